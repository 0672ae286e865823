package pronunciation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sefariaproxy_pronunciation_cache_lookups_total",
			Help: "Pronunciation cache lookups by outcome (hits, misses)",
		},
		[]string{"outcome"},
	)

	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sefariaproxy_pronunciation_cache_errors_total",
			Help: "Pronunciation cache store failures by operation",
		},
		[]string{"op"},
	)

	healed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sefariaproxy_pronunciation_cache_orphans_removed_total",
		Help: "Metadata rows removed because their blob was missing",
	})

	purgeRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sefariaproxy_pronunciation_cache_purges_total",
		Help: "Purge passes that evicted entries",
	})

	purgedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sefariaproxy_pronunciation_cache_purged_entries_total",
		Help: "Entries evicted by purge",
	})

	purgedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sefariaproxy_pronunciation_cache_purged_bytes_total",
		Help: "Bytes freed by purge",
	})
)
