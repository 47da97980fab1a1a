package progress

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteStore keeps records in the server database's progress table, for
// deployments where saved progress should survive process restarts.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.
		QueryRowContext(ctx, "SELECT value FROM progress WHERE key = ?", key).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now(),
	)
	return err
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM progress WHERE key = ?", key)
	return err
}
