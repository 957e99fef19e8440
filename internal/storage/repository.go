package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bankdash/internal/session"

	_ "modernc.org/sqlite"
)

// SessionRepository persists the session snapshot in a single-row
// SQLite table, the durable equivalent of the browser's key-value
// session storage.
type SessionRepository struct {
	db *sql.DB
}

var _ session.Repository = (*SessionRepository)(nil)

func NewSessionRepository(dbPath string) (*SessionRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SessionRepository{db: db}, nil
}

func (r *SessionRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SessionRepository) Save(ctx context.Context, s session.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO session (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	slog.DebugContext(ctx, "Session persisted", "bytes", len(payload))
	return nil
}

func (r *SessionRepository) Load(ctx context.Context) (session.Snapshot, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM session WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, false, nil
	}
	if err != nil {
		return session.Snapshot{}, false, fmt.Errorf("load session: %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return session.Snapshot{}, false, fmt.Errorf("unmarshal session: %w", err)
	}
	return snap, true, nil
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
