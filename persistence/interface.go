// persistence/interface.go
package persistence

import (
	"context"
	"fmt"

	"github.com/wfunc/survivalserver/models"
)

// Database 数据库接口
type Database interface {
	SaveSession(ctx context.Context, rec *models.SessionRecord) error
	LoadSession(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	SaveActivityRecord(ctx context.Context, rec *models.ActivityRecord) error
	GetSessionStats(ctx context.Context, sessionID string) (*models.SessionStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
