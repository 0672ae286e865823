package rootmeaning

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sefariaproxy_root_meaning_cache_lookups_total",
	Help: "Root meaning cache lookups by result",
}, []string{"result"})

// Cache fronts a Store. Read and write failures are logged and never
// surfaced: a failed read is a miss and a failed write leaves the result
// uncached.
type Cache struct {
	store Store
	now   func() time.Time
}

// New creates a Cache.
func New(store Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

// Lookup returns the cached meaning of a normalized root.
func (c *Cache) Lookup(ctx context.Context, root string) (string, bool) {
	e, err := c.store.Get(ctx, root)
	switch {
	case errors.Is(err, ErrNotFound):
		lookups.WithLabelValues("miss").Inc()
		return "", false
	case err != nil:
		slog.Warn("root meaning cache read failed", "root", root, "error", err)
		lookups.WithLabelValues("error").Inc()
		return "", false
	case e.Meaning == "":
		lookups.WithLabelValues("miss").Inc()
		return "", false
	}
	lookups.WithLabelValues("hit").Inc()
	return e.Meaning, true
}

// Store records meaning for a normalized root. Empty meanings are not
// stored.
func (c *Cache) Store(ctx context.Context, root, meaning string) {
	if meaning == "" {
		return
	}
	err := c.store.Upsert(ctx, Entry{Root: root, Meaning: meaning, CreatedAt: c.now().Unix()})
	if err != nil {
		slog.Warn("root meaning cache write failed", "root", root, "error", err)
	}
}
