// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"

	"github.com/wfunc/survivalserver/logger"
)

// Task is a scheduled callback. Interval > 0 makes it repeat.
type Task struct {
	ID       int64
	Name     string
	Execute  time.Time
	Interval time.Duration
	Callback func(now time.Time)
	index    int
}

type queue []*Task

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x interface{}) {
	n := len(*q)
	task := x.(*Task)
	task.index = n
	*q = append(*q, task)
}

func (q *queue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// Manager runs due tasks from a min-heap. Callbacks run on the manager's
// goroutine one at a time, so a slow sweep delays the next one instead of
// overlapping it.
type Manager struct {
	queue  queue
	mutex  sync.Mutex
	nextID int64
	tick   time.Duration
	now    func() time.Time
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewManager(tick time.Duration) *Manager {
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	m := &Manager{
		queue:  make(queue, 0),
		nextID: 1,
		tick:   tick,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	heap.Init(&m.queue)
	return m
}

// Start launches the processing loop.
func (m *Manager) Start() {
	go m.process()
}

// Stop ends the loop and waits for a running callback to return.
func (m *Manager) Stop() {
	m.once.Do(func() {
		close(m.stop)
	})
	<-m.done
}

func (m *Manager) AddTimer(name string, delay, interval time.Duration, callback func(now time.Time)) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &Task{
		ID:       m.nextID,
		Name:     name,
		Execute:  m.now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextID++

	heap.Push(&m.queue, task)
	return task.ID
}

// Every schedules callback at a fixed interval, first run one interval
// from now.
func (m *Manager) Every(name string, interval time.Duration, callback func(now time.Time)) int64 {
	return m.AddTimer(name, interval, interval, callback)
}

func (m *Manager) RemoveTimer(id int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, task := range m.queue {
		if task.ID == id {
			heap.Remove(&m.queue, i)
			break
		}
	}
}

func (m *Manager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

// RunDue executes every task due at now and reschedules repeating ones.
// It returns the number of callbacks run.
func (m *Manager) RunDue(now time.Time) int {
	m.mutex.Lock()
	var due []*Task
	for m.queue.Len() > 0 {
		task := m.queue[0]
		if task.Execute.After(now) {
			break
		}
		heap.Pop(&m.queue)
		due = append(due, task)
		if task.Interval > 0 {
			task.Execute = now.Add(task.Interval)
			heap.Push(&m.queue, task)
		}
	}
	m.mutex.Unlock()

	for _, task := range due {
		m.run(task, now)
	}
	return len(due)
}

func (m *Manager) run(task *Task, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorw("timer task panicked", "task", task.Name, "panic", r)
		}
	}()
	task.Callback(now)
}

func (m *Manager) process() {
	defer close(m.done)
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RunDue(m.now())
		case <-m.stop:
			return
		}
	}
}
