package translationcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sefariaproxy/internal/storage"
)

// SQLiteStore implements Store for SQLite databases.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the translation_cache and cache_stats tables if they
// don't exist and seeds the stats singleton.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS translation_cache (
			phrase_hash TEXT PRIMARY KEY,
			phrase TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			prompt_hash TEXT
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation_cache table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			hits INTEGER NOT NULL DEFAULT 0,
			misses INTEGER NOT NULL DEFAULT 0,
			malformed_hits INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache_stats table: %w", err)
	}

	if _, err := db.Exec(`INSERT OR IGNORE INTO cache_stats (id, hits, misses, malformed_hits, updated_at) VALUES (1, 0, 0, 0, ?)`,
		time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("failed to seed cache_stats: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_translation_cache_created_at ON translation_cache(created_at)"); err != nil {
		slog.Warn("failed to create index", "error", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, hash string) (*Entry, error) {
	var e Entry
	var promptHash sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT phrase_hash, phrase, response, created_at, version, prompt_hash FROM translation_cache WHERE phrase_hash = ?`,
		hash,
	).Scan(&e.PhraseHash, &e.Phrase, &e.Response, &e.CreatedAt, &e.Version, &promptHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query translation cache: %w", err)
	}
	e.PromptHash = promptHash.String
	return &e, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_cache (phrase_hash, phrase, response, created_at, version, prompt_hash)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.PhraseHash, e.Phrase, e.Response, e.CreatedAt, e.Version, e.PromptHash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert translation cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, hash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_cache WHERE phrase_hash = ?`, hash)
	if err != nil {
		return false, fmt.Errorf("failed to delete translation cache entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear translation cache: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]Entry, int64, error) {
	where := ""
	var args []interface{}
	if p.Search != "" {
		where = ` WHERE phrase LIKE ? ESCAPE '\' OR phrase_hash LIKE ? ESCAPE '\'`
		like := storage.ContainsPattern(p.Search)
		args = append(args, like, like)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translation_cache`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count translation cache entries: %w", err)
	}

	query := `SELECT phrase_hash, phrase, response, created_at, version, prompt_hash FROM translation_cache` +
		where + ` ORDER BY created_at DESC, phrase_hash LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list translation cache entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var promptHash sql.NullString
		if err := rows.Scan(&e.PhraseHash, &e.Phrase, &e.Response, &e.CreatedAt, &e.Version, &promptHash); err != nil {
			return nil, 0, fmt.Errorf("failed to scan translation cache entry: %w", err)
		}
		e.PromptHash = promptHash.String
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT hits, misses, malformed_hits, updated_at FROM cache_stats WHERE id = 1`,
	).Scan(&st.Hits, &st.Misses, &st.MalformedHits, &st.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) Increment(ctx context.Context, c Counter, now int64) error {
	if !c.valid() {
		return fmt.Errorf("unknown counter %q", c)
	}
	query := fmt.Sprintf(`UPDATE cache_stats SET %s = %s + 1, updated_at = ? WHERE id = 1`, c, c)
	if _, err := s.db.ExecContext(ctx, query, now); err != nil {
		return fmt.Errorf("failed to increment %s: %w", c, err)
	}
	return nil
}

func (s *SQLiteStore) ResetStats(ctx context.Context, now int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE cache_stats SET hits = 0, misses = 0, malformed_hits = 0, updated_at = ? WHERE id = 1`, now)
	if err != nil {
		return fmt.Errorf("failed to reset cache stats: %w", err)
	}
	return nil
}

// Close is a no-op; the database is managed by the storage layer.
func (s *SQLiteStore) Close() error {
	return nil
}
