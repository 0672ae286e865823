package pronunciation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sefariaproxy/internal/blobstore"
	"sefariaproxy/internal/cachekey"
)

// Lookup miss reasons.
const (
	ReasonAbsent      = "absent"
	ReasonCollision   = "collision"
	ReasonBlobMissing = "blob_missing"
	ReasonReadError   = "read_error"
)

// LookupResult is the outcome of Cache.Lookup.
type LookupResult struct {
	Hit   bool
	Key   cachekey.Key
	Entry *Entry
	Audio []byte
	// Reason explains a miss.
	Reason string
}

// PurgeResult reports a purge pass.
type PurgeResult struct {
	DeletedCount int   `json:"deletedCount"`
	FreedBytes   int64 `json:"freedBytes"`
	// Failures counts entries whose deletion failed and was skipped.
	Failures int `json:"failures"`
}

// ClearResult reports a clear pass. DeletedCount counts blobs actually
// deleted; every row is removed regardless.
type ClearResult struct {
	DeletedCount int64 `json:"deletedCount"`
	// BlobFailures counts blobs that could not be deleted.
	BlobFailures int `json:"errors"`
}

// Cache composes the metadata Store and the blob store under a size budget.
type Cache struct {
	store   Store
	blobs   blobstore.Store
	maxSize int64
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxSizeBytes overrides the size budget.
func WithMaxSizeBytes(n int64) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache.
func New(store Store, blobs blobstore.Store, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		blobs:   blobs,
		maxSize: DefaultMaxSizeBytes,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxSizeBytes returns the configured budget.
func (c *Cache) MaxSizeBytes() int64 { return c.maxSize }

// Lookup fetches the clip for text. A hit requires the row's normalized text
// to equal the input and the blob to be readable. When the row exists but its
// blob cannot be read the row is deleted and the lookup is a miss; the blob
// fetch is not retried.
func (c *Cache) Lookup(ctx context.Context, text string) LookupResult {
	key := cachekey.New(text)
	res := LookupResult{Key: key}

	row, err := c.store.Get(ctx, key.Hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			res.Reason = ReasonAbsent
			return res
		}
		slog.Warn("pronunciation cache read failed", "hash", key.Hash, "error", err)
		cacheErrors.WithLabelValues("read").Inc()
		res.Reason = ReasonReadError
		return res
	}
	if row.NormalizedText != key.Text {
		res.Reason = ReasonCollision
		return res
	}

	audio, err := c.blobs.Get(ctx, row.BlobKey)
	if err != nil {
		slog.Warn("pronunciation blob missing, dropping metadata",
			"hash", key.Hash, "blob_key", row.BlobKey, "error", err)
		c.heal(ctx, row)
		res.Reason = ReasonBlobMissing
		return res
	}

	res.Hit = true
	res.Entry = row
	res.Audio = audio
	return res
}

// heal removes an orphaned metadata row and takes its size out of the totals.
func (c *Cache) heal(ctx context.Context, row *Entry) {
	healed.Inc()
	deleted, err := c.store.Delete(ctx, row.TextHash)
	if err != nil {
		slog.Warn("failed to delete orphaned pronunciation row", "hash", row.TextHash, "error", err)
		return
	}
	if !deleted {
		return
	}
	if err := c.store.AdjustTotals(ctx, -row.FileSizeBytes, -1, c.now().Unix()); err != nil {
		slog.Warn("failed to adjust pronunciation totals", "hash", row.TextHash, "error", err)
	}
}

// RecordHit refreshes the entry's access time and count and increments hits.
func (c *Cache) RecordHit(ctx context.Context, hash string) error {
	lookups.WithLabelValues(string(CounterHits)).Inc()
	now := c.now().Unix()
	if err := c.store.Touch(ctx, hash, now); err != nil {
		return fmt.Errorf("touch pronunciation entry: %w", err)
	}
	if err := c.store.Increment(ctx, CounterHits, now); err != nil {
		return fmt.Errorf("record hit: %w", err)
	}
	return nil
}

// RecordMiss increments the miss counter.
func (c *Cache) RecordMiss(ctx context.Context) error {
	lookups.WithLabelValues(string(CounterMisses)).Inc()
	if err := c.store.Increment(ctx, CounterMisses, c.now().Unix()); err != nil {
		return fmt.Errorf("record miss: %w", err)
	}
	return nil
}

// Add stores a clip. When the projected total exceeds the purge threshold a
// purge runs first. Totals are updated incrementally; replacing an existing
// row applies only the size difference.
func (c *Cache) Add(ctx context.Context, key cachekey.Key, audio []byte) (*Entry, error) {
	size := int64(len(audio))

	st, err := c.store.Stats(ctx)
	if err != nil {
		cacheErrors.WithLabelValues("write").Inc()
		return nil, fmt.Errorf("read pronunciation stats: %w", err)
	}
	if overThreshold(st.TotalSizeBytes+size, c.maxSize, false) {
		if _, err := c.Purge(ctx, c.maxSize); err != nil {
			slog.Warn("pronunciation purge before add failed", "error", err)
		}
	}

	prev, err := c.store.Get(ctx, key.Hash)
	switch {
	case errors.Is(err, ErrNotFound):
		prev = nil
	case err != nil:
		cacheErrors.WithLabelValues("write").Inc()
		return nil, fmt.Errorf("get pronunciation entry: %w", err)
	}

	blobKey := blobstore.PronunciationKey(key.Hash, AudioExt)
	if err := c.blobs.Put(ctx, blobKey, audio, blobstore.ContentTypeMPEG); err != nil {
		cacheErrors.WithLabelValues("write").Inc()
		return nil, fmt.Errorf("put pronunciation blob: %w", err)
	}

	now := c.now().Unix()
	entry := Entry{
		TextHash:       key.Hash,
		NormalizedText: key.Text,
		BlobKey:        blobKey,
		FileSizeBytes:  size,
		CreatedAt:      now,
		LastAccessedAt: now,
		AccessCount:    1,
	}
	if err := c.store.Upsert(ctx, entry); err != nil {
		cacheErrors.WithLabelValues("write").Inc()
		// Leave no blob without a row. A replaced row still points at it.
		if prev != nil && prev.BlobKey == blobKey {
			return nil, fmt.Errorf("upsert pronunciation entry: %w", err)
		}
		if delErr := c.blobs.Delete(ctx, blobKey); delErr != nil {
			slog.Warn("failed to remove blob after metadata write failure", "blob_key", blobKey, "error", delErr)
		}
		return nil, fmt.Errorf("upsert pronunciation entry: %w", err)
	}

	sizeDelta, filesDelta := size, int64(1)
	if prev != nil {
		sizeDelta, filesDelta = size-prev.FileSizeBytes, 0
		if prev.BlobKey != blobKey {
			if err := c.blobs.Delete(ctx, prev.BlobKey); err != nil {
				slog.Warn("failed to remove replaced pronunciation blob", "blob_key", prev.BlobKey, "error", err)
			}
		}
	}
	if err := c.store.AdjustTotals(ctx, sizeDelta, filesDelta, now); err != nil {
		cacheErrors.WithLabelValues("write").Inc()
		return &entry, fmt.Errorf("update pronunciation totals: %w", err)
	}
	return &entry, nil
}

// overThreshold compares total against the purge threshold of maxSize using
// integer arithmetic. inclusive selects >= instead of >.
func overThreshold(total, maxSize int64, inclusive bool) bool {
	lhs, rhs := total*100, maxSize*PurgeThresholdPercent
	if inclusive {
		return lhs >= rhs
	}
	return lhs > rhs
}

// Purge evicts least-recently-accessed entries until occupancy drops to the
// purge target. It is a no-op below the threshold. Per-entry failures are
// logged and skipped. Afterwards total_files is recounted from the rows and
// total_size_bytes is reduced by the freed bytes.
func (c *Cache) Purge(ctx context.Context, maxSize int64) (PurgeResult, error) {
	var res PurgeResult
	if maxSize <= 0 {
		return res, nil
	}

	st, err := c.store.Stats(ctx)
	if err != nil {
		return res, fmt.Errorf("read pronunciation stats: %w", err)
	}
	if !overThreshold(st.TotalSizeBytes, maxSize, true) {
		return res, nil
	}

	bytesToFree := st.TotalSizeBytes - maxSize*PurgeTargetPercent/100

	entries, err := c.store.ListLRU(ctx)
	if err != nil {
		return res, fmt.Errorf("list pronunciation entries: %w", err)
	}
	batch := selectVictims(entries, bytesToFree)

	res = foldDeletes(batch, func(e Entry) error {
		if err := c.blobs.Delete(ctx, e.BlobKey); err != nil {
			return fmt.Errorf("delete blob: %w", err)
		}
		if _, err := c.store.Delete(ctx, e.TextHash); err != nil {
			return fmt.Errorf("delete row: %w", err)
		}
		return nil
	})

	remaining, err := c.store.Count(ctx)
	if err != nil {
		return res, fmt.Errorf("count pronunciation entries: %w", err)
	}
	now := c.now().Unix()
	newTotal := max(0, st.TotalSizeBytes-res.FreedBytes)
	if err := c.store.SetTotals(ctx, newTotal, remaining, now, now); err != nil {
		return res, fmt.Errorf("update pronunciation totals: %w", err)
	}

	purgeRuns.Inc()
	purgedEntries.Add(float64(res.DeletedCount))
	purgedBytes.Add(float64(res.FreedBytes))
	slog.Info("pronunciation cache purged",
		"deleted", res.DeletedCount, "freed_bytes", res.FreedBytes, "failures", res.Failures,
		"remaining_files", remaining, "total_size_bytes", newTotal)
	return res, nil
}

// selectVictims takes entries in order until their sizes sum to at least
// bytesToFree.
func selectVictims(entries []Entry, bytesToFree int64) []Entry {
	var acc int64
	for i, e := range entries {
		acc += e.FileSizeBytes
		if acc >= bytesToFree {
			return entries[:i+1]
		}
	}
	return entries
}

// foldDeletes applies del to every entry and accumulates successes and
// failures.
func foldDeletes(entries []Entry, del func(Entry) error) PurgeResult {
	var res PurgeResult
	for _, e := range entries {
		if err := del(e); err != nil {
			slog.Warn("failed to purge pronunciation entry", "hash", e.TextHash, "error", err)
			res.Failures++
			continue
		}
		res.DeletedCount++
		res.FreedBytes += e.FileSizeBytes
	}
	return res
}

// DeleteOne removes one entry and its blob and subtracts exactly that entry
// from the totals. It reports false when no entry exists.
func (c *Cache) DeleteOne(ctx context.Context, hash string) (bool, error) {
	row, err := c.store.Get(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get pronunciation entry: %w", err)
	}

	if err := c.blobs.Delete(ctx, row.BlobKey); err != nil {
		return false, fmt.Errorf("delete pronunciation blob: %w", err)
	}
	deleted, err := c.store.Delete(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("delete pronunciation entry: %w", err)
	}
	if !deleted {
		return false, nil
	}
	if err := c.store.AdjustTotals(ctx, -row.FileSizeBytes, -1, c.now().Unix()); err != nil {
		return true, fmt.Errorf("update pronunciation totals: %w", err)
	}
	return true, nil
}

// Clear deletes every blob, counting failures without stopping, then every
// row, and resets the size totals to zero.
func (c *Cache) Clear(ctx context.Context) (ClearResult, error) {
	var res ClearResult

	entries, err := c.store.ListLRU(ctx)
	if err != nil {
		return res, fmt.Errorf("list pronunciation entries: %w", err)
	}
	for _, e := range entries {
		if err := c.blobs.Delete(ctx, e.BlobKey); err != nil {
			slog.Warn("failed to delete pronunciation blob", "blob_key", e.BlobKey, "error", err)
			res.BlobFailures++
			continue
		}
		res.DeletedCount++
	}

	n, err := c.store.DeleteAll(ctx)
	if err != nil {
		return res, fmt.Errorf("clear pronunciation cache: %w", err)
	}

	if err := c.store.SetTotals(ctx, 0, 0, 0, c.now().Unix()); err != nil {
		return res, fmt.Errorf("reset pronunciation totals: %w", err)
	}
	slog.Info("pronunciation cache cleared", "rows", n, "blobs_deleted", res.DeletedCount, "blob_failures", res.BlobFailures)
	return res, nil
}

// Stats reads the stats singleton.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	return c.store.Stats(ctx)
}

// List returns a page of entries ordered by most recent access.
func (c *Cache) List(ctx context.Context, p ListParams) ([]Entry, int64, error) {
	return c.store.List(ctx, p)
}
