// Package translationcache stores upstream translation envelopes keyed by the
// normalized phrase hash, with schema-version and TTL freshness gates and
// hit/miss/malformed counters.
package translationcache

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultSchemaVersion tags the shape of the cached payload. Bumping it
	// turns every existing row into a miss.
	DefaultSchemaVersion = 1

	// DefaultTTL bounds the age of a servable entry.
	DefaultTTL = 30 * 24 * time.Hour
)

// ErrNotFound is returned by Store.Get when no row exists for the hash.
var ErrNotFound = errors.New("translation cache entry not found")

// Entry is one row of the translation_cache table.
type Entry struct {
	PhraseHash string `json:"phrase_hash" bson:"_id"`
	Phrase     string `json:"phrase" bson:"phrase"`
	Response   string `json:"response" bson:"response"`
	CreatedAt  int64  `json:"created_at" bson:"created_at"`
	Version    int    `json:"version" bson:"version"`
	PromptHash string `json:"prompt_hash,omitempty" bson:"prompt_hash,omitempty"`
}

// Stats is the cache_stats singleton.
type Stats struct {
	Hits          int64 `json:"hits" bson:"hits"`
	Misses        int64 `json:"misses" bson:"misses"`
	MalformedHits int64 `json:"malformed_hits" bson:"malformed_hits"`
	UpdatedAt     int64 `json:"updated_at" bson:"updated_at"`
}

// Counter names one of the stats counters.
type Counter string

const (
	CounterHits          Counter = "hits"
	CounterMisses        Counter = "misses"
	CounterMalformedHits Counter = "malformed_hits"
)

func (c Counter) valid() bool {
	switch c {
	case CounterHits, CounterMisses, CounterMalformedHits:
		return true
	}
	return false
}

// ListParams selects a page of entries for the admin surface.
type ListParams struct {
	Limit  int
	Offset int
	// Search is a substring matched against the phrase or its hash.
	Search string
}

// Store persists entries and the stats singleton.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the row for hash or ErrNotFound.
	Get(ctx context.Context, hash string) (*Entry, error)

	// Upsert inserts or replaces the row keyed by PhraseHash.
	Upsert(ctx context.Context, e Entry) error

	// Delete removes one row and reports whether it existed.
	Delete(ctx context.Context, hash string) (bool, error)

	// DeleteAll removes every row and returns how many were deleted.
	DeleteAll(ctx context.Context) (int64, error)

	// List returns a page ordered by created_at descending and the total
	// number of rows matching the filter.
	List(ctx context.Context, p ListParams) ([]Entry, int64, error)

	// Stats reads the stats singleton.
	Stats(ctx context.Context) (Stats, error)

	// Increment adds one to a counter and stamps updated_at in one statement.
	Increment(ctx context.Context, c Counter, now int64) error

	// ResetStats sets every counter to zero.
	ResetStats(ctx context.Context, now int64) error

	// Close releases resources. The shared database is not closed.
	Close() error
}
