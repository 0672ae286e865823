package llmclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCircuitBreaker_Transitions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newCircuitBreaker("breaker-test", CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 2,
		Timeout:          time.Minute,
	}, clock.now)

	assert.Equal(t, "closed", cb.State())
	cb.RecordFailure()
	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, "open", cb.State())
	assert.False(t, cb.Allow())

	clock.advance(30 * time.Second)
	assert.False(t, cb.Allow(), "still inside the timeout")

	clock.advance(31 * time.Second)
	assert.True(t, cb.Allow())
	assert.Equal(t, "half-open", cb.State())

	// a failed trial call reopens at once
	cb.RecordFailure()
	assert.Equal(t, "open", cb.State())

	clock.advance(2 * time.Minute)
	assert.True(t, cb.Allow())
	cb.RecordSuccess()
	assert.Equal(t, "half-open", cb.State())
	cb.RecordSuccess()
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := newCircuitBreaker("breaker-reset", CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	}, time.Now)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "unknown", circuitState(42).String())
}
