// models/models.go
package models

import (
	"time"
)

// SessionRecord 会话存档
type SessionRecord struct {
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	Phase     string    `json:"phase"`
	Version   int64     `json:"version"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityRecord 单次操作记录
type ActivityRecord struct {
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"token"`
	Family    string    `json:"family"`
	FromPhase string    `json:"from_phase"`
	ToPhase   string    `json:"to_phase"`
	Path      []string  `json:"path"`
	Outcome   string    `json:"outcome"` // ok or an error code
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStats 会话统计信息
type SessionStats struct {
	TotalActions int `json:"total_actions"`
	Rejected     int `json:"rejected"`
	Hunts        int `json:"hunts"`
	Fights       int `json:"fights"`
	Journeys     int `json:"journeys"`
}

// OutcomeOK marks an applied action.
const OutcomeOK = "ok"
