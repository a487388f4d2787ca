// Package proposallog 记录每次评估的结果，供 /api/proposals 查询与事后审计。
package proposallog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// Record is one evaluated token. Rationale and Snapshot are stored as JSON.
type Record struct {
	ID         int64          `gorm:"column:id;primaryKey" json:"id"`
	TraceID    string         `gorm:"column:trace_id;index" json:"trace_id"`
	ChatID     string         `gorm:"column:chat_id;index" json:"chat_id"`
	Slug       string         `gorm:"column:slug;index" json:"slug"`
	TokenName  string         `gorm:"column:token_name" json:"token_name"`
	Verdict    string         `gorm:"column:verdict;index" json:"verdict"`
	Investment int64          `gorm:"column:investment" json:"investment,omitempty"`
	Commitment int64          `gorm:"column:commitment" json:"commitment,omitempty"`
	Rationale  datatypes.JSON `gorm:"column:rationale;type:TEXT" json:"rationale"`
	Snapshot   datatypes.JSON `gorm:"column:snapshot;type:TEXT" json:"snapshot,omitempty"`
	Delivered  bool           `gorm:"column:delivered" json:"delivered"`
	CreatedAt  time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (Record) TableName() string { return "proposal_logs" }

// Entry is what callers hand to Append.
type Entry struct {
	TraceID    string
	ChatID     string
	Slug       string
	TokenName  string
	Verdict    string
	Investment int64
	Commitment int64
	Rationale  []string
	Snapshot   any
	Delivered  bool
	At         time.Time
}

// Store implements the audit log on SQLite through gorm.
type Store struct {
	db *gorm.DB
}

// Open 打开（必要时创建）数据库文件并迁移表结构。
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("proposal log: path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("proposal log: create dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("proposal log: open: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("proposal log: migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append stores one entry and returns its id.
func (s *Store) Append(ctx context.Context, e Entry) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("proposal log not initialized")
	}
	rationale, err := json.Marshal(nonNil(e.Rationale))
	if err != nil {
		return 0, fmt.Errorf("encode rationale: %w", err)
	}
	var snapshot datatypes.JSON
	if e.Snapshot != nil {
		raw, err := json.Marshal(e.Snapshot)
		if err != nil {
			return 0, fmt.Errorf("encode snapshot: %w", err)
		}
		snapshot = datatypes.JSON(raw)
	}
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	rec := Record{
		TraceID:    e.TraceID,
		ChatID:     e.ChatID,
		Slug:       e.Slug,
		TokenName:  e.TokenName,
		Verdict:    e.Verdict,
		Investment: e.Investment,
		Commitment: e.Commitment,
		Rationale:  datatypes.JSON(rationale),
		Snapshot:   snapshot,
		Delivered:  e.Delivered,
		CreatedAt:  at.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, fmt.Errorf("insert proposal log: %w", err)
	}
	return rec.ID, nil
}

// Query filters List.
type Query struct {
	Slug    string
	Verdict string
	Limit   int
}

// List returns the newest records first.
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("proposal log not initialized")
	}
	limit := q.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	tx := s.db.WithContext(ctx).Model(&Record{})
	if slug := strings.TrimSpace(q.Slug); slug != "" {
		tx = tx.Where("slug = ?", strings.ToLower(slug))
	}
	if verdict := strings.TrimSpace(q.Verdict); verdict != "" {
		tx = tx.Where("verdict = ?", verdict)
	}
	var out []Record
	if err := tx.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list proposal logs: %w", err)
	}
	return out, nil
}

// RationaleLines decodes the stored rationale.
func (r Record) RationaleLines() []string {
	var lines []string
	if len(r.Rationale) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Rationale, &lines); err != nil {
		return nil
	}
	return lines
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
