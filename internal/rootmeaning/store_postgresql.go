package rootmeaning

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLStore implements Store for PostgreSQL databases.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates the root_translation_cache table if it doesn't
// exist.
func NewPostgreSQLStore(pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	_, err := pool.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS root_translation_cache (
			root_normalized TEXT PRIMARY KEY,
			meaning TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create root_translation_cache table: %w", err)
	}
	return &PostgreSQLStore{pool: pool}, nil
}

func (s *PostgreSQLStore) Get(ctx context.Context, root string) (*Entry, error) {
	var e Entry
	err := s.pool.QueryRow(ctx,
		`SELECT root_normalized, meaning, created_at FROM root_translation_cache WHERE root_normalized = $1`, root,
	).Scan(&e.Root, &e.Meaning, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query root meaning: %w", err)
	}
	return &e, nil
}

func (s *PostgreSQLStore) Upsert(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO root_translation_cache (root_normalized, meaning, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (root_normalized) DO UPDATE SET
			meaning = EXCLUDED.meaning,
			created_at = EXCLUDED.created_at`,
		e.Root, e.Meaning, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert root meaning: %w", err)
	}
	return nil
}

// Close is a no-op; the shared pool is closed by its owner.
func (s *PostgreSQLStore) Close() error {
	return nil
}
