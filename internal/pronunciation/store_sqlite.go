package pronunciation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sefariaproxy/internal/storage"
)

const entryColumns = `text_hash, normalized_text, r2_key, file_size_bytes, created_at, last_accessed_at, access_count`

// SQLiteStore implements Store for SQLite databases.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the pronunciation tables if they don't exist and
// seeds the stats singleton.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pronunciation_cache (
			text_hash TEXT PRIMARY KEY,
			normalized_text TEXT NOT NULL,
			r2_key TEXT NOT NULL,
			file_size_bytes INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			last_accessed_at INTEGER NOT NULL,
			access_count INTEGER NOT NULL DEFAULT 1
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create pronunciation_cache table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS pronunciation_cache_stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			total_size_bytes INTEGER NOT NULL DEFAULT 0,
			total_files INTEGER NOT NULL DEFAULT 0,
			hits INTEGER NOT NULL DEFAULT 0,
			misses INTEGER NOT NULL DEFAULT 0,
			last_purge_at INTEGER,
			updated_at INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create pronunciation_cache_stats table: %w", err)
	}

	if _, err := db.Exec(`INSERT OR IGNORE INTO pronunciation_cache_stats (id, updated_at) VALUES (1, ?)`,
		time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("failed to seed pronunciation_cache_stats: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_pronunciation_cache_last_accessed ON pronunciation_cache(last_accessed_at)"); err != nil {
		slog.Warn("failed to create index", "error", err)
	}

	return &SQLiteStore{db: db}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (Entry, error) {
	var e Entry
	err := r.Scan(&e.TextHash, &e.NormalizedText, &e.BlobKey, &e.FileSizeBytes, &e.CreatedAt, &e.LastAccessedAt, &e.AccessCount)
	return e, err
}

func (s *SQLiteStore) Get(ctx context.Context, hash string) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM pronunciation_cache WHERE text_hash = ?`, hash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query pronunciation cache: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pronunciation_cache (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.TextHash, e.NormalizedText, e.BlobKey, e.FileSizeBytes, e.CreatedAt, e.LastAccessedAt, e.AccessCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pronunciation entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Touch(ctx context.Context, hash string, now int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE pronunciation_cache SET last_accessed_at = ?, access_count = access_count + 1 WHERE text_hash = ?`,
		now, hash)
	if err != nil {
		return fmt.Errorf("failed to touch pronunciation entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, hash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pronunciation_cache WHERE text_hash = ?`, hash)
	if err != nil {
		return false, fmt.Errorf("failed to delete pronunciation entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pronunciation_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear pronunciation cache: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) ListLRU(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM pronunciation_cache ORDER BY last_accessed_at ASC, text_hash ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pronunciation entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
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

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]Entry, int64, error) {
	where := ""
	var args []interface{}
	if p.Search != "" {
		where = ` WHERE normalized_text LIKE ? ESCAPE '\' OR text_hash LIKE ? ESCAPE '\'`
		like := storage.ContainsPattern(p.Search)
		args = append(args, like, like)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pronunciation_cache`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pronunciation entries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM pronunciation_cache`+where+` ORDER BY last_accessed_at DESC, text_hash LIMIT ? OFFSET ?`,
		append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pronunciation entries: %w", err)
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	return entries, total, err
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pronunciation_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pronunciation entries: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var lastPurge sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT total_size_bytes, total_files, hits, misses, last_purge_at, updated_at FROM pronunciation_cache_stats WHERE id = 1`,
	).Scan(&st.TotalSizeBytes, &st.TotalFiles, &st.Hits, &st.Misses, &lastPurge, &st.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}, fmt.Errorf("failed to read pronunciation stats: %w", err)
	}
	st.LastPurgeAt = lastPurge.Int64
	return st, nil
}

func (s *SQLiteStore) Increment(ctx context.Context, c Counter, now int64) error {
	if !c.valid() {
		return fmt.Errorf("unknown counter %q", c)
	}
	query := fmt.Sprintf(`UPDATE pronunciation_cache_stats SET %s = %s + 1, updated_at = ? WHERE id = 1`, c, c)
	if _, err := s.db.ExecContext(ctx, query, now); err != nil {
		return fmt.Errorf("failed to increment %s: %w", c, err)
	}
	return nil
}

func (s *SQLiteStore) AdjustTotals(ctx context.Context, sizeDelta, filesDelta, now int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pronunciation_cache_stats SET
			total_size_bytes = MAX(0, total_size_bytes + ?),
			total_files = MAX(0, total_files + ?),
			updated_at = ?
		WHERE id = 1`,
		sizeDelta, filesDelta, now)
	if err != nil {
		return fmt.Errorf("failed to adjust pronunciation totals: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetTotals(ctx context.Context, totalSize, totalFiles, purgedAt, now int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pronunciation_cache_stats SET
			total_size_bytes = ?,
			total_files = ?,
			last_purge_at = CASE WHEN ? > 0 THEN ? ELSE last_purge_at END,
			updated_at = ?
		WHERE id = 1`,
		totalSize, totalFiles, purgedAt, purgedAt, now)
	if err != nil {
		return fmt.Errorf("failed to set pronunciation totals: %w", err)
	}
	return nil
}

// Close is a no-op; the database is managed by the storage layer.
func (s *SQLiteStore) Close() error {
	return nil
}
