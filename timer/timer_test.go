package timer

import (
	"testing"
	"time"
)

func TestRunDueOrderAndRepeat(t *testing.T) {
	m := NewManager(time.Hour)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	var ran []string
	m.AddTimer("late", 2*time.Second, 0, func(time.Time) { ran = append(ran, "late") })
	m.AddTimer("early", time.Second, 0, func(time.Time) { ran = append(ran, "early") })
	m.Every("sweep", time.Second, func(time.Time) { ran = append(ran, "sweep") })

	if n := m.RunDue(base); n != 0 {
		t.Errorf("Expected nothing due yet, got %d", n)
	}
	m.RunDue(base.Add(3 * time.Second))
	if len(ran) != 3 || ran[2] != "late" {
		t.Errorf("Expected early, sweep then late, got %v", ran)
	}
	if m.Len() != 1 {
		t.Errorf("Expected only the repeating task left, got %d", m.Len())
	}

	ran = nil
	m.RunDue(base.Add(4 * time.Second))
	if len(ran) != 1 || ran[0] != "sweep" {
		t.Errorf("Expected sweep to repeat, got %v", ran)
	}
}

func TestRemoveTimer(t *testing.T) {
	m := NewManager(time.Hour)
	id := m.AddTimer("x", 0, 0, func(time.Time) { t.Error("Removed timer should not run") })
	m.RemoveTimer(id)
	m.RunDue(time.Now().Add(time.Minute))
}

func TestPanickingTaskDoesNotStopOthers(t *testing.T) {
	m := NewManager(time.Hour)
	ran := false
	m.AddTimer("bad", 0, 0, func(time.Time) { panic("boom") })
	m.AddTimer("good", 0, 0, func(time.Time) { ran = true })
	m.RunDue(time.Now().Add(time.Second))
	if !ran {
		t.Error("Expected good task to run after a panic")
	}
}

func TestStartStop(t *testing.T) {
	m := NewManager(time.Millisecond)
	fired := make(chan struct{}, 1)
	m.AddTimer("once", 0, 0, func(time.Time) { fired <- struct{}{} })
	m.Start()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Timer did not fire")
	}
	m.Stop()
	m.Stop()
}
