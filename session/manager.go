package session

import (
	"sync"
	"time"
)

// Manager caches live sessions and serialises transitions per session.
// A cached session keeps its live references between requests; a session
// reloaded from storage does not.
type Manager struct {
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Lock blocks until the caller owns the session id and returns the unlock
// function. Lock entries outlive cache eviction.
func (m *Manager) Lock(sessionID string) func() {
	m.mutex.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	m.mutex.Unlock()

	l.Lock()
	return l.Unlock
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) GetByUserID(userID int64) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.UserID == userID {
			result = append(result, session)
		}
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// EvictIdle drops cached sessions untouched for longer than ttl and returns
// their ids. Sessions mid-transition are skipped.
func (m *Manager) EvictIdle(ttl time.Duration, now time.Time) []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var evicted []string
	for id, s := range m.sessions {
		if now.Sub(s.LastActive) <= ttl {
			continue
		}
		l := m.locks[id]
		if l != nil && !l.TryLock() {
			continue
		}
		delete(m.sessions, id)
		if l != nil {
			l.Unlock()
		}
		evicted = append(evicted, id)
	}
	return evicted
}
