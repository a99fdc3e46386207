// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormSession 会话模型
type GormSession struct {
	gorm.Model
	SessionID string `gorm:"uniqueIndex;not null"`
	UserID    int64  `gorm:"index;not null"`
	Phase     string `gorm:"not null"`
	Version   int64  `gorm:"default:0"`
	Data      string `gorm:"type:jsonb;not null"`
}

// GormActivityRecord 操作记录模型
type GormActivityRecord struct {
	gorm.Model
	SessionID string `gorm:"index;not null"`
	UserID    int64  `gorm:"index"`
	Token     string `gorm:"not null"`
	Family    string
	FromPhase string `gorm:"not null"`
	ToPhase   string `gorm:"not null"`
	Path      string `gorm:"type:jsonb"`
	Outcome   string `gorm:"index;not null"`
	Message   string
}
