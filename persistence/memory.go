package persistence

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wfunc/survivalserver/models"
)

// Memory keeps everything in process. Used by default and in tests.
type Memory struct {
	sessions map[string]models.SessionRecord
	records  []models.ActivityRecord
	mutex    sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]models.SessionRecord)}
}

func (m *Memory) SaveSession(ctx context.Context, rec *models.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	stored := *rec
	stored.Data = append([]byte(nil), rec.Data...)
	if old, ok := m.sessions[rec.SessionID]; ok {
		stored.CreatedAt = old.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.sessions[rec.SessionID] = stored
	return nil
}

func (m *Memory) LoadSession(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rec, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	rec.Data = append([]byte(nil), rec.Data...)
	return &rec, nil
}

func (m *Memory) SaveActivityRecord(ctx context.Context, rec *models.ActivityRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stored := *rec
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	m.records = append(m.records, stored)
	return nil
}

func (m *Memory) GetSessionStats(ctx context.Context, sessionID string) (*models.SessionStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var recs []models.ActivityRecord
	for _, r := range m.records {
		if r.SessionID == sessionID {
			recs = append(recs, r)
		}
	}
	return tally(recs), nil
}

// Records returns the activity records of a session in insertion order.
func (m *Memory) Records(sessionID string) []models.ActivityRecord {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []models.ActivityRecord
	for _, r := range m.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out
}

func (m *Memory) Close() error {
	return nil
}

// tally mirrors the aggregate the SQL stores compute.
func tally(recs []models.ActivityRecord) *models.SessionStats {
	stats := &models.SessionStats{}
	for _, r := range recs {
		stats.TotalActions++
		if r.Outcome != models.OutcomeOK {
			stats.Rejected++
			continue
		}
		switch {
		case r.ToPhase == "hunt.sighting":
			stats.Hunts++
		case r.ToPhase == "combat.intro":
			stats.Fights++
		}
		if strings.HasPrefix(r.Token, "move:") {
			stats.Journeys++
		}
	}
	return stats
}
