package translationcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sefariaproxy_translation_cache_lookups_total",
			Help: "Translation cache lookups by outcome (hits, misses, malformed_hits)",
		},
		[]string{"outcome"},
	)

	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sefariaproxy_translation_cache_errors_total",
			Help: "Translation cache store failures by operation",
		},
		[]string{"op"},
	)
)
