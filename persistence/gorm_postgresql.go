// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/survivalserver/logger"
	"github.com/wfunc/survivalserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志，输出到 zap
	gormLogger := gormlogger.New(
		zap.NewStdLog(logger.Log.Desugar()),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Warn,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormSession{},
		&models.GormActivityRecord{},
	)
}

// SaveSession 保存会话
func (p *GormPostgreSQL) SaveSession(ctx context.Context, rec *models.SessionRecord) error {
	return p.Transaction(ctx, func(tx *gorm.DB) error {
		var row models.GormSession
		result := tx.Where("session_id = ?", rec.SessionID).First(&row)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			// 创建新记录
			row = models.GormSession{
				SessionID: rec.SessionID,
				UserID:    rec.UserID,
				Phase:     rec.Phase,
				Version:   rec.Version,
				Data:      string(rec.Data),
			}
			return tx.Create(&row).Error
		} else if result.Error != nil {
			return result.Error
		}

		// 更新现有记录
		row.Phase = rec.Phase
		row.Version = rec.Version
		row.Data = string(rec.Data)
		return tx.Save(&row).Error
	})
}

// LoadSession 加载会话
func (p *GormPostgreSQL) LoadSession(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	var row models.GormSession
	if err := p.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &models.SessionRecord{
		SessionID: row.SessionID,
		UserID:    row.UserID,
		Phase:     row.Phase,
		Version:   row.Version,
		Data:      []byte(row.Data),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// SaveActivityRecord 保存操作记录
func (p *GormPostgreSQL) SaveActivityRecord(ctx context.Context, rec *models.ActivityRecord) error {
	path, err := json.Marshal(rec.Path)
	if err != nil {
		return err
	}
	row := models.GormActivityRecord{
		SessionID: rec.SessionID,
		UserID:    rec.UserID,
		Token:     rec.Token,
		Family:    rec.Family,
		FromPhase: rec.FromPhase,
		ToPhase:   rec.ToPhase,
		Path:      string(path),
		Outcome:   rec.Outcome,
		Message:   rec.Message,
	}
	return p.db.WithContext(ctx).Create(&row).Error
}

// GetSessionStats 会话统计
func (p *GormPostgreSQL) GetSessionStats(ctx context.Context, sessionID string) (*models.SessionStats, error) {
	var stats models.SessionStats
	err := p.db.WithContext(ctx).Raw(`
        SELECT
            COUNT(*) AS total_actions,
            COALESCE(SUM(CASE WHEN outcome <> 'ok' THEN 1 ELSE 0 END), 0) AS rejected,
            COALESCE(SUM(CASE WHEN outcome = 'ok' AND to_phase = 'hunt.sighting' THEN 1 ELSE 0 END), 0) AS hunts,
            COALESCE(SUM(CASE WHEN outcome = 'ok' AND to_phase = 'combat.intro' THEN 1 ELSE 0 END), 0) AS fights,
            COALESCE(SUM(CASE WHEN outcome = 'ok' AND token LIKE 'move:%' THEN 1 ELSE 0 END), 0) AS journeys
        FROM gorm_activity_records
        WHERE session_id = ? AND deleted_at IS NULL`,
		sessionID,
	).Scan(&stats).Error
	return &stats, err
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction 事务支持
func (p *GormPostgreSQL) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return p.db.WithContext(ctx).Transaction(fn)
}
