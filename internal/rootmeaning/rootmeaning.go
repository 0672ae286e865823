// Package rootmeaning caches the short English gloss of a Hebrew root, keyed
// by the root's normalized letters.
package rootmeaning

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when no row exists for the root.
var ErrNotFound = errors.New("root meaning not found")

// Entry is one row of the root_translation_cache table.
type Entry struct {
	Root      string `json:"root_normalized" bson:"_id"`
	Meaning   string `json:"meaning" bson:"meaning"`
	CreatedAt int64  `json:"created_at" bson:"created_at"`
}

// Store persists root meanings. Implementations must be safe for concurrent
// use.
type Store interface {
	// Get returns the row for root or ErrNotFound.
	Get(ctx context.Context, root string) (*Entry, error)

	// Upsert inserts or replaces the row keyed by Root.
	Upsert(ctx context.Context, e Entry) error

	// Close releases resources. The shared database is not closed.
	Close() error
}
