// persistence/sql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动
	_ "modernc.org/sqlite"

	"github.com/wfunc/survivalserver/models"
)

const queryTimeout = 5 * time.Second

// SQLStore 基于 database/sql 的实现，支持 PostgreSQL 和 SQLite
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*SQLStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
	s, err := openSQL("postgres", connStr)
	if err != nil {
		return nil, err
	}
	// 设置连接池参数
	s.db.SetMaxOpenConns(25)
	s.db.SetMaxIdleConns(25)
	s.db.SetConnMaxLifetime(5 * time.Minute)
	return s, nil
}

// NewSQLite opens a SQLite file; ":memory:" gives a private in-memory
// database held on a single connection.
func NewSQLite(path string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	s, err := openSQL("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	s.db.SetMaxOpenConns(1)
	return s, nil
}

func openSQL(driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.initTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}
	return s, nil
}

// initTables 初始化数据库表结构
func (s *SQLStore) initTables(ctx context.Context) error {
	dataType, idType := "JSONB", "BIGSERIAL PRIMARY KEY"
	if s.driver == "sqlite" {
		dataType, idType = "TEXT", "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
            session_id VARCHAR(64) PRIMARY KEY,
            user_id BIGINT NOT NULL,
            phase VARCHAR(64) NOT NULL,
            version BIGINT NOT NULL DEFAULT 0,
            data ` + dataType + ` NOT NULL,
            created_at BIGINT NOT NULL,
            updated_at BIGINT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS activity_records (
            id ` + idType + `,
            session_id VARCHAR(64) NOT NULL,
            user_id BIGINT NOT NULL,
            token VARCHAR(255) NOT NULL,
            family VARCHAR(32) NOT NULL,
            from_phase VARCHAR(64) NOT NULL,
            to_phase VARCHAR(64) NOT NULL,
            path ` + dataType + ` NOT NULL,
            outcome VARCHAR(64) NOT NULL,
            message TEXT NOT NULL,
            created_at BIGINT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_records_session_id ON activity_records(session_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveSession 保存会话 (UPSERT)
func (s *SQLStore) SaveSession(ctx context.Context, rec *models.SessionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC().UnixMilli()
	query := s.rebind(`
        INSERT INTO sessions (session_id, user_id, phase, version, data, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (session_id)
        DO UPDATE SET phase = excluded.phase, version = excluded.version,
            data = excluded.data, updated_at = excluded.updated_at
    `)
	_, err := s.db.ExecContext(ctx, query,
		rec.SessionID, rec.UserID, rec.Phase, rec.Version, string(rec.Data), now, now)
	return err
}

// LoadSession 加载会话
func (s *SQLStore) LoadSession(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		rec                  models.SessionRecord
		data                 string
		createdAt, updatedAt int64
	)
	query := s.rebind(`SELECT session_id, user_id, phase, version, data, created_at, updated_at FROM sessions WHERE session_id = ?`)
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&rec.SessionID, &rec.UserID, &rec.Phase, &rec.Version, &data, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	rec.Data = []byte(data)
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &rec, nil
}

// SaveActivityRecord 保存操作记录
func (s *SQLStore) SaveActivityRecord(ctx context.Context, rec *models.ActivityRecord) error {
	path, err := json.Marshal(rec.Path)
	if err != nil {
		return err
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.rebind(`
        INSERT INTO activity_records
            (session_id, user_id, token, family, from_phase, to_phase, path, outcome, message, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	_, err = s.db.ExecContext(ctx, query,
		rec.SessionID, rec.UserID, rec.Token, rec.Family, rec.FromPhase, rec.ToPhase,
		string(path), rec.Outcome, rec.Message, createdAt.UTC().UnixMilli())
	return err
}

// GetSessionStats 会话统计
func (s *SQLStore) GetSessionStats(ctx context.Context, sessionID string) (*models.SessionStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.rebind(`
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN outcome <> 'ok' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN outcome = 'ok' AND to_phase = 'hunt.sighting' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN outcome = 'ok' AND to_phase = 'combat.intro' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN outcome = 'ok' AND token LIKE 'move:%' THEN 1 ELSE 0 END), 0)
        FROM activity_records
        WHERE session_id = ?
    `)
	var stats models.SessionStats
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&stats.TotalActions, &stats.Rejected, &stats.Hunts, &stats.Fights, &stats.Journeys)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (s *SQLStore) Close() error {
	return s.db.Close()
}
