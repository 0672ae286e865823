package translationcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sefariaproxy/internal/storage"
)

// PostgreSQLStore implements Store for PostgreSQL databases.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates the tables if they don't exist and seeds the
// stats singleton.
func NewPostgreSQLStore(pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS translation_cache (
			phrase_hash TEXT PRIMARY KEY,
			phrase TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			prompt_hash TEXT
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation_cache table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cache_stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			hits BIGINT NOT NULL DEFAULT 0,
			misses BIGINT NOT NULL DEFAULT 0,
			malformed_hits BIGINT NOT NULL DEFAULT 0,
			updated_at BIGINT NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache_stats table: %w", err)
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO cache_stats (id, hits, misses, malformed_hits, updated_at) VALUES (1, 0, 0, 0, $1) ON CONFLICT (id) DO NOTHING`,
		time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("failed to seed cache_stats: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_translation_cache_created_at ON translation_cache(created_at)"); err != nil {
		slog.Warn("failed to create index", "error", err)
	}

	return &PostgreSQLStore{pool: pool}, nil
}

func (s *PostgreSQLStore) Get(ctx context.Context, hash string) (*Entry, error) {
	var e Entry
	var promptHash *string
	err := s.pool.QueryRow(ctx,
		`SELECT phrase_hash, phrase, response, created_at, version, prompt_hash FROM translation_cache WHERE phrase_hash = $1`,
		hash,
	).Scan(&e.PhraseHash, &e.Phrase, &e.Response, &e.CreatedAt, &e.Version, &promptHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query translation cache: %w", err)
	}
	if promptHash != nil {
		e.PromptHash = *promptHash
	}
	return &e, nil
}

func (s *PostgreSQLStore) Upsert(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO translation_cache (phrase_hash, phrase, response, created_at, version, prompt_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (phrase_hash) DO UPDATE SET
			phrase = EXCLUDED.phrase,
			response = EXCLUDED.response,
			created_at = EXCLUDED.created_at,
			version = EXCLUDED.version,
			prompt_hash = EXCLUDED.prompt_hash`,
		e.PhraseHash, e.Phrase, e.Response, e.CreatedAt, e.Version, e.PromptHash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert translation cache entry: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) Delete(ctx context.Context, hash string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM translation_cache WHERE phrase_hash = $1`, hash)
	if err != nil {
		return false, fmt.Errorf("failed to delete translation cache entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgreSQLStore) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM translation_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear translation cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgreSQLStore) List(ctx context.Context, p ListParams) ([]Entry, int64, error) {
	where := ""
	var args []interface{}
	if p.Search != "" {
		where = ` WHERE phrase ILIKE $1 ESCAPE '\' OR phrase_hash ILIKE $1 ESCAPE '\'`
		args = append(args, storage.ContainsPattern(p.Search))
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM translation_cache`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count translation cache entries: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT phrase_hash, phrase, response, created_at, version, prompt_hash FROM translation_cache%s
		ORDER BY created_at DESC, phrase_hash LIMIT $%d OFFSET $%d`, where, n+1, n+2)
	rows, err := s.pool.Query(ctx, query, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list translation cache entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var promptHash *string
		if err := rows.Scan(&e.PhraseHash, &e.Phrase, &e.Response, &e.CreatedAt, &e.Version, &promptHash); err != nil {
			return nil, 0, fmt.Errorf("failed to scan translation cache entry: %w", err)
		}
		if promptHash != nil {
			e.PromptHash = *promptHash
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (s *PostgreSQLStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx,
		`SELECT hits, misses, malformed_hits, updated_at FROM cache_stats WHERE id = 1`,
	).Scan(&st.Hits, &st.Misses, &st.MalformedHits, &st.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return st, nil
}

func (s *PostgreSQLStore) Increment(ctx context.Context, c Counter, now int64) error {
	if !c.valid() {
		return fmt.Errorf("unknown counter %q", c)
	}
	query := fmt.Sprintf(`UPDATE cache_stats SET %s = %s + 1, updated_at = $1 WHERE id = 1`, c, c)
	if _, err := s.pool.Exec(ctx, query, now); err != nil {
		return fmt.Errorf("failed to increment %s: %w", c, err)
	}
	return nil
}

func (s *PostgreSQLStore) ResetStats(ctx context.Context, now int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE cache_stats SET hits = 0, misses = 0, malformed_hits = 0, updated_at = $1 WHERE id = 1`, now)
	if err != nil {
		return fmt.Errorf("failed to reset cache stats: %w", err)
	}
	return nil
}

// Close is a no-op; the pool is managed by the storage layer.
func (s *PostgreSQLStore) Close() error {
	return nil
}
