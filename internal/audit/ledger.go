// Package audit keeps a durable ledger of release decisions and task
// outcomes in a local SQLite database.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Ledger entry kinds.
const (
	KindTopicReleased = "topic_released"
	KindTopicDenied   = "topic_denied"
	KindTaskFailed    = "task_failed"
	KindTaskDone      = "task_done"
)

// Record is one ledger row.
type Record struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Actor     string    `json:"actor"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger appends and lists records.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append stores one record.
func (l *Ledger) Append(ctx context.Context, kind, subject, actor, payload string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO ledger(kind, subject, actor, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		kind, subject, actor, payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to append %s record: %w", kind, err)
	}
	return nil
}

// List returns up to limit records, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, kind, subject, actor, payload, created_at FROM ledger ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var created int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.Subject, &r.Actor, &r.Payload, &created); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
