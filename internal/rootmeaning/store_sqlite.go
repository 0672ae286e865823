package rootmeaning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteStore implements Store for SQLite databases.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the root_translation_cache table if it doesn't exist.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS root_translation_cache (
			root_normalized TEXT PRIMARY KEY,
			meaning TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create root_translation_cache table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, root string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT root_normalized, meaning, created_at FROM root_translation_cache WHERE root_normalized = ?`, root,
	).Scan(&e.Root, &e.Meaning, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query root meaning: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO root_translation_cache (root_normalized, meaning, created_at) VALUES (?, ?, ?)`,
		e.Root, e.Meaning, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert root meaning: %w", err)
	}
	return nil
}

// Close is a no-op; the shared database is closed by its owner.
func (s *SQLiteStore) Close() error {
	return nil
}
