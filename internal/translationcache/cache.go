package translationcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sefariaproxy/internal/cachekey"
)

// Outcome classifies a lookup.
type Outcome int

const (
	OutcomeMiss Outcome = iota
	OutcomeHit
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "miss"
	}
}

// Miss reasons reported in LookupResult.Reason.
const (
	ReasonAbsent    = "absent"
	ReasonCollision = "collision"
	ReasonVersion   = "version"
	ReasonExpired   = "expired"
	ReasonReadError = "read_error"
)

// LookupResult is the outcome of Cache.Lookup.
type LookupResult struct {
	Outcome Outcome
	Key     cachekey.Key
	// Payload is set on OutcomeHit.
	Payload Valid
	// Reason explains a miss or, for OutcomeMalformed, the failed check.
	Reason string
}

// Hit reports whether the payload may be served.
func (r LookupResult) Hit() bool { return r.Outcome == OutcomeHit }

// Cache applies the freshness policy on top of a Store.
type Cache struct {
	store         Store
	schemaVersion int
	ttl           time.Duration
	now           func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithSchemaVersion overrides the current schema version.
func WithSchemaVersion(v int) Option {
	return func(c *Cache) {
		if v > 0 {
			c.schemaVersion = v
		}
	}
}

// WithTTL overrides the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache over store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:         store,
		schemaVersion: DefaultSchemaVersion,
		ttl:           DefaultTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SchemaVersion returns the version new entries are written with.
func (c *Cache) SchemaVersion() int { return c.schemaVersion }

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Lookup classifies the cached row for phrase. A row is a hit only when it
// exists, its phrase equals the normalized input, its version is current,
// it is younger than the TTL and its payload passes ParseEnvelope. A row that
// passes every gate but the structural check is OutcomeMalformed.
// Store read failures are logged and reported as a miss.
func (c *Cache) Lookup(ctx context.Context, phrase string) LookupResult {
	key := cachekey.New(phrase)
	res := LookupResult{Outcome: OutcomeMiss, Key: key}

	row, err := c.store.Get(ctx, key.Hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			res.Reason = ReasonAbsent
			return res
		}
		slog.Warn("translation cache read failed", "hash", key.Hash, "error", err)
		cacheErrors.WithLabelValues("read").Inc()
		res.Reason = ReasonReadError
		return res
	}

	switch {
	case row.Phrase != key.Text:
		res.Reason = ReasonCollision
		return res
	case row.Version != c.schemaVersion:
		res.Reason = ReasonVersion
		return res
	case c.now().Unix()-row.CreatedAt >= int64(c.ttl/time.Second):
		res.Reason = ReasonExpired
		return res
	}

	switch env := ParseEnvelope(row.Response).(type) {
	case Valid:
		res.Outcome = OutcomeHit
		res.Payload = env
	case Malformed:
		res.Outcome = OutcomeMalformed
		res.Reason = env.Reason
	}
	return res
}

// Store upserts the response for phrase at the current schema version.
func (c *Cache) Store(ctx context.Context, phrase, response, promptHash string) error {
	key := cachekey.New(phrase)
	err := c.store.Upsert(ctx, Entry{
		PhraseHash: key.Hash,
		Phrase:     key.Text,
		Response:   response,
		CreatedAt:  c.now().Unix(),
		Version:    c.schemaVersion,
		PromptHash: promptHash,
	})
	if err != nil {
		cacheErrors.WithLabelValues("write").Inc()
		return fmt.Errorf("store translation: %w", err)
	}
	return nil
}

// RecordHit increments the hit counter.
func (c *Cache) RecordHit(ctx context.Context) error {
	return c.record(ctx, CounterHits)
}

// RecordMiss increments the miss counter.
func (c *Cache) RecordMiss(ctx context.Context) error {
	return c.record(ctx, CounterMisses)
}

// RecordMalformedHit increments the malformed-hit counter.
func (c *Cache) RecordMalformedHit(ctx context.Context) error {
	return c.record(ctx, CounterMalformedHits)
}

func (c *Cache) record(ctx context.Context, counter Counter) error {
	lookups.WithLabelValues(string(counter)).Inc()
	if err := c.store.Increment(ctx, counter, c.now().Unix()); err != nil {
		return fmt.Errorf("record %s: %w", counter, err)
	}
	return nil
}

// Stats reads the counters from the store.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	return c.store.Stats(ctx)
}

// List returns a page of entries and the total matching count.
func (c *Cache) List(ctx context.Context, p ListParams) ([]Entry, int64, error) {
	return c.store.List(ctx, p)
}

// Delete removes one entry by hash.
func (c *Cache) Delete(ctx context.Context, hash string) (bool, error) {
	return c.store.Delete(ctx, hash)
}

// Clear deletes every entry and resets the counters to zero.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	n, err := c.store.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear translation cache: %w", err)
	}
	if err := c.store.ResetStats(ctx, c.now().Unix()); err != nil {
		return n, fmt.Errorf("reset translation cache stats: %w", err)
	}
	slog.Info("translation cache cleared", "deleted", n)
	return n, nil
}
