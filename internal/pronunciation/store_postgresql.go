package pronunciation

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

// NewPostgreSQLStore creates the pronunciation tables if they don't exist and
// seeds the stats singleton.
func NewPostgreSQLStore(pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pronunciation_cache (
			text_hash TEXT PRIMARY KEY,
			normalized_text TEXT NOT NULL,
			r2_key TEXT NOT NULL,
			file_size_bytes BIGINT NOT NULL,
			created_at BIGINT NOT NULL,
			last_accessed_at BIGINT NOT NULL,
			access_count BIGINT NOT NULL DEFAULT 1
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create pronunciation_cache table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pronunciation_cache_stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			total_size_bytes BIGINT NOT NULL DEFAULT 0,
			total_files BIGINT NOT NULL DEFAULT 0,
			hits BIGINT NOT NULL DEFAULT 0,
			misses BIGINT NOT NULL DEFAULT 0,
			last_purge_at BIGINT,
			updated_at BIGINT NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create pronunciation_cache_stats table: %w", err)
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO pronunciation_cache_stats (id, updated_at) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`,
		time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("failed to seed pronunciation_cache_stats: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_pronunciation_cache_last_accessed ON pronunciation_cache(last_accessed_at)"); err != nil {
		slog.Warn("failed to create index", "error", err)
	}

	return &PostgreSQLStore{pool: pool}, nil
}

func (s *PostgreSQLStore) Get(ctx context.Context, hash string) (*Entry, error) {
	e, err := scanEntry(s.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM pronunciation_cache WHERE text_hash = $1`, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query pronunciation cache: %w", err)
	}
	return &e, nil
}

func (s *PostgreSQLStore) Upsert(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pronunciation_cache (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (text_hash) DO UPDATE SET
			normalized_text = EXCLUDED.normalized_text,
			r2_key = EXCLUDED.r2_key,
			file_size_bytes = EXCLUDED.file_size_bytes,
			created_at = EXCLUDED.created_at,
			last_accessed_at = EXCLUDED.last_accessed_at,
			access_count = EXCLUDED.access_count`,
		e.TextHash, e.NormalizedText, e.BlobKey, e.FileSizeBytes, e.CreatedAt, e.LastAccessedAt, e.AccessCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pronunciation entry: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) Touch(ctx context.Context, hash string, now int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE pronunciation_cache SET last_accessed_at = $1, access_count = access_count + 1 WHERE text_hash = $2`,
		now, hash)
	if err != nil {
		return fmt.Errorf("failed to touch pronunciation entry: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) Delete(ctx context.Context, hash string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pronunciation_cache WHERE text_hash = $1`, hash)
	if err != nil {
		return false, fmt.Errorf("failed to delete pronunciation entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgreSQLStore) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pronunciation_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear pronunciation cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgreSQLStore) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pronunciation entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pronunciation entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgreSQLStore) ListLRU(ctx context.Context) ([]Entry, error) {
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM pronunciation_cache ORDER BY last_accessed_at ASC, text_hash ASC`)
}

func (s *PostgreSQLStore) List(ctx context.Context, p ListParams) ([]Entry, int64, error) {
	where := ""
	var args []any
	if p.Search != "" {
		where = ` WHERE normalized_text ILIKE $1 ESCAPE '\' OR text_hash ILIKE $1 ESCAPE '\'`
		args = append(args, storage.ContainsPattern(p.Search))
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pronunciation_cache`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pronunciation entries: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM pronunciation_cache%s ORDER BY last_accessed_at DESC, text_hash LIMIT $%d OFFSET $%d`,
		entryColumns, where, n+1, n+2)
	entries, err := s.queryEntries(ctx, query, append(args, p.Limit, p.Offset)...)
	return entries, total, err
}

func (s *PostgreSQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pronunciation_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pronunciation entries: %w", err)
	}
	return n, nil
}

func (s *PostgreSQLStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var lastPurge *int64
	err := s.pool.QueryRow(ctx,
		`SELECT total_size_bytes, total_files, hits, misses, last_purge_at, updated_at FROM pronunciation_cache_stats WHERE id = 1`,
	).Scan(&st.TotalSizeBytes, &st.TotalFiles, &st.Hits, &st.Misses, &lastPurge, &st.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, fmt.Errorf("failed to read pronunciation stats: %w", err)
	}
	if lastPurge != nil {
		st.LastPurgeAt = *lastPurge
	}
	return st, nil
}

func (s *PostgreSQLStore) Increment(ctx context.Context, c Counter, now int64) error {
	if !c.valid() {
		return fmt.Errorf("unknown counter %q", c)
	}
	query := fmt.Sprintf(`UPDATE pronunciation_cache_stats SET %s = %s + 1, updated_at = $1 WHERE id = 1`, c, c)
	if _, err := s.pool.Exec(ctx, query, now); err != nil {
		return fmt.Errorf("failed to increment %s: %w", c, err)
	}
	return nil
}

func (s *PostgreSQLStore) AdjustTotals(ctx context.Context, sizeDelta, filesDelta, now int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE pronunciation_cache_stats SET
			total_size_bytes = GREATEST(0, total_size_bytes + $1),
			total_files = GREATEST(0, total_files + $2),
			updated_at = $3
		WHERE id = 1`,
		sizeDelta, filesDelta, now)
	if err != nil {
		return fmt.Errorf("failed to adjust pronunciation totals: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) SetTotals(ctx context.Context, totalSize, totalFiles, purgedAt, now int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE pronunciation_cache_stats SET
			total_size_bytes = $1,
			total_files = $2,
			last_purge_at = CASE WHEN $3::BIGINT > 0 THEN $3::BIGINT ELSE last_purge_at END,
			updated_at = $4
		WHERE id = 1`,
		totalSize, totalFiles, purgedAt, now)
	if err != nil {
		return fmt.Errorf("failed to set pronunciation totals: %w", err)
	}
	return nil
}

// Close is a no-op; the pool is managed by the storage layer.
func (s *PostgreSQLStore) Close() error {
	return nil
}
