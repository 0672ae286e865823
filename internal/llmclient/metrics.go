package llmclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sefariaproxy_upstream_requests_total",
		Help: "Upstream HTTP round trips by endpoint and status code",
	}, []string{"endpoint", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sefariaproxy_upstream_request_duration_seconds",
		Help:    "Upstream HTTP round trip latency",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"endpoint"})

	upstreamRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sefariaproxy_upstream_retries_total",
		Help: "Upstream requests retried after a gateway error",
	}, []string{"endpoint"})

	circuitOpenGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sefariaproxy_upstream_circuit_open",
		Help: "1 while the upstream circuit breaker is open",
	}, []string{"provider"})
)
