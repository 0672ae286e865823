// Package pronunciation caches synthesized pronunciation audio: metadata rows
// in the shared database, audio bytes in a blob store, and a global size
// budget enforced by an LRU purge.
package pronunciation

import (
	"context"
	"errors"
)

const (
	// DefaultMaxSizeBytes is the default cache budget (500 MiB).
	DefaultMaxSizeBytes int64 = 500 * 1024 * 1024

	// PurgeThresholdPercent is the occupancy at which a purge starts.
	PurgeThresholdPercent = 90
	// PurgeTargetPercent is the occupancy a purge frees down to.
	PurgeTargetPercent = 70

	// AudioExt is the extension of stored clips.
	AudioExt = "mp3"
)

// ErrNotFound is returned by Store.Get when no row exists for the hash.
var ErrNotFound = errors.New("pronunciation cache entry not found")

// Entry is one row of the pronunciation_cache table.
type Entry struct {
	TextHash       string `json:"text_hash" bson:"_id"`
	NormalizedText string `json:"normalized_text" bson:"normalized_text"`
	BlobKey        string `json:"r2_key" bson:"r2_key"`
	FileSizeBytes  int64  `json:"file_size_bytes" bson:"file_size_bytes"`
	CreatedAt      int64  `json:"created_at" bson:"created_at"`
	LastAccessedAt int64  `json:"last_accessed_at" bson:"last_accessed_at"`
	AccessCount    int64  `json:"access_count" bson:"access_count"`
}

// Stats is the pronunciation_cache_stats singleton. LastPurgeAt is zero until
// the first purge.
type Stats struct {
	TotalSizeBytes int64 `json:"total_size_bytes" bson:"total_size_bytes"`
	TotalFiles     int64 `json:"total_files" bson:"total_files"`
	Hits           int64 `json:"hits" bson:"hits"`
	Misses         int64 `json:"misses" bson:"misses"`
	LastPurgeAt    int64 `json:"last_purge_at" bson:"last_purge_at"`
	UpdatedAt      int64 `json:"updated_at" bson:"updated_at"`
}

// Counter names a hit/miss counter.
type Counter string

const (
	CounterHits   Counter = "hits"
	CounterMisses Counter = "misses"
)

func (c Counter) valid() bool {
	return c == CounterHits || c == CounterMisses
}

// ListParams selects a page of entries for the admin surface.
type ListParams struct {
	Limit  int
	Offset int
	// Search is a substring matched against the normalized text or its hash.
	Search string
}

// Store persists metadata rows and the stats singleton.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the row for hash or ErrNotFound.
	Get(ctx context.Context, hash string) (*Entry, error)

	// Upsert inserts or replaces the row keyed by TextHash.
	Upsert(ctx context.Context, e Entry) error

	// Touch sets last_accessed_at and increments access_count.
	Touch(ctx context.Context, hash string, now int64) error

	// Delete removes one row and reports whether it existed.
	Delete(ctx context.Context, hash string) (bool, error)

	// DeleteAll removes every row and returns how many were deleted.
	DeleteAll(ctx context.Context) (int64, error)

	// ListLRU returns every row ordered by last_accessed_at ascending, ties
	// broken by text_hash.
	ListLRU(ctx context.Context) ([]Entry, error)

	// List returns a page ordered by last_accessed_at descending and the
	// total number of rows matching the filter.
	List(ctx context.Context, p ListParams) ([]Entry, int64, error)

	// Count returns the number of rows.
	Count(ctx context.Context) (int64, error)

	// Stats reads the stats singleton.
	Stats(ctx context.Context) (Stats, error)

	// Increment adds one to a counter and stamps updated_at.
	Increment(ctx context.Context, c Counter, now int64) error

	// AdjustTotals adds the deltas to total_size_bytes and total_files,
	// clamping both at zero.
	AdjustTotals(ctx context.Context, sizeDelta, filesDelta, now int64) error

	// SetTotals overwrites total_size_bytes and total_files. When purgedAt is
	// non-zero it is recorded as last_purge_at.
	SetTotals(ctx context.Context, totalSize, totalFiles, purgedAt, now int64) error

	// Close releases resources. The shared database is not closed.
	Close() error
}
