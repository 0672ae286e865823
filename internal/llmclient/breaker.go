package llmclient

import (
	"sync"
	"time"
)

// CircuitBreakerConfig holds circuit breaker settings
type CircuitBreakerConfig struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int
	// SuccessThreshold half-open successes close it again.
	SuccessThreshold int
	// Timeout is how long an open circuit rejects calls before probing.
	Timeout time.Duration
}

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// circuitBreaker stops calling an upstream that keeps failing and retries it
// again after Timeout.
type circuitBreaker struct {
	mu          sync.Mutex
	cfg         CircuitBreakerConfig
	now         func() time.Time
	provider    string
	state       circuitState
	failures    int
	successes   int
	lastFailure time.Time
}

func newCircuitBreaker(provider string, cfg CircuitBreakerConfig, now func() time.Time) *circuitBreaker {
	cb := &circuitBreaker{cfg: cfg, now: now, provider: provider}
	cb.publish()
	return cb
}

// Allow reports whether a call may go out. An open circuit turns half-open
// once Timeout has passed since the last failure.
func (cb *circuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != circuitOpen {
		return true
	}
	if cb.now().Sub(cb.lastFailure) <= cb.cfg.Timeout {
		return false
	}
	cb.setState(circuitHalfOpen)
	cb.successes = 0
	return true
}

func (cb *circuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.setState(circuitClosed)
			cb.failures = 0
		}
	case circuitClosed:
		cb.failures = 0
	}
}

func (cb *circuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()

	switch cb.state {
	case circuitClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.setState(circuitOpen)
		}
	case circuitHalfOpen:
		cb.setState(circuitOpen)
		cb.successes = 0
	}
}

// State returns the current circuit state name.
func (cb *circuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state.String()
}

// setState must be called with mu held.
func (cb *circuitBreaker) setState(s circuitState) {
	cb.state = s
	cb.publish()
}

func (cb *circuitBreaker) publish() {
	circuitOpenGauge.WithLabelValues(cb.provider).Set(boolFloat(cb.state == circuitOpen))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
