// Package llmclient is the HTTP layer under the OpenAI client: JSON request
// building, bounded retries on gateway errors, provider error classification,
// brotli-aware body decoding and a circuit breaker.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/httpclient"
)

// Config holds configuration for the LLM client
type Config struct {
	// ProviderName labels errors and metrics.
	ProviderName string

	// BaseURL is prefixed to every request endpoint.
	BaseURL string

	MaxRetries     int           // retries after the first attempt (default: 2)
	InitialBackoff time.Duration // delay before the first retry (default: 500ms)
	MaxBackoff     time.Duration // backoff cap (default: 10s)
	BackoffFactor  float64       // growth per retry (default: 2.0)

	// CircuitBreaker is disabled when nil.
	CircuitBreaker *CircuitBreakerConfig
}

// DefaultConfig returns default client configuration
func DefaultConfig(providerName, baseURL string) Config {
	return Config{
		ProviderName:   providerName,
		BaseURL:        baseURL,
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		CircuitBreaker: &CircuitBreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
		},
	}
}

// HeaderSetter decorates every outgoing request, typically with credentials.
type HeaderSetter func(req *http.Request)

// Client sends requests to one upstream API.
type Client struct {
	httpClient   *http.Client
	config       Config
	headerSetter HeaderSetter
	breaker      *circuitBreaker
}

// New creates a client. A nil httpClient uses the shared default transport.
func New(httpClient *http.Client, config Config, headerSetter HeaderSetter) *Client {
	if httpClient == nil {
		httpClient = httpclient.Default()
	}
	c := &Client{
		httpClient:   httpClient,
		config:       config,
		headerSetter: headerSetter,
	}
	if config.CircuitBreaker != nil {
		c.breaker = newCircuitBreaker(config.ProviderName, *config.CircuitBreaker, time.Now)
	}
	return c
}

// Request is one upstream call. Body is JSON-encoded when non-nil.
type Request struct {
	Method   string
	Endpoint string
	Body     any
}

// Response is an upstream reply with its body already decoded.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Do sends req and unmarshals a successful JSON body into result.
func (c *Client) Do(ctx context.Context, req Request, result any) error {
	resp, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, result); err != nil {
		return core.NewProviderError(c.config.ProviderName, http.StatusBadGateway, "failed to unmarshal response: "+err.Error(), err)
	}
	return nil
}

// DoRaw sends req and returns the raw 2xx response. Only network errors and
// 502/503/504 are retried; every other failure is classified by
// core.ParseProviderError and returned at once so that a 404 reaches the
// model fallback and a 429 ends the request.
func (c *Client) DoRaw(ctx context.Context, req Request) (*Response, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return nil, core.NewProviderError(c.config.ProviderName, http.StatusServiceUnavailable,
			"circuit breaker is open - provider temporarily unavailable", nil)
	}

	attempts := max(c.config.MaxRetries+1, 1)
	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			upstreamRetries.WithLabelValues(req.Endpoint).Inc()
			if err := c.wait(ctx, req.Endpoint, attempt); err != nil {
				return nil, err
			}
		}

		resp, retry, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}
	return nil, lastErr
}

// attempt performs one round trip and reports whether a failure is worth
// retrying. It feeds the circuit breaker and the request metrics.
func (c *Client) attempt(ctx context.Context, req Request) (*Response, bool, error) {
	start := time.Now()
	resp, err := c.send(ctx, req)
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	upstreamRequests.WithLabelValues(req.Endpoint, status).Inc()
	upstreamDuration.WithLabelValues(req.Endpoint).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.recordFailure()
		// a cancelled or timed-out caller is not retried
		return nil, ctx.Err() == nil, err
	case isRetryable(resp.StatusCode):
		c.recordFailure()
		return nil, true, core.ParseProviderError(c.config.ProviderName, resp.StatusCode, resp.Body, nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		if resp.StatusCode >= 500 {
			c.recordFailure()
		}
		return nil, false, core.ParseProviderError(c.config.ProviderName, resp.StatusCode, resp.Body, nil)
	}
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
	return resp, false, nil
}

func (c *Client) recordFailure() {
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
}

func (c *Client) wait(ctx context.Context, endpoint string, attempt int) error {
	backoff := c.calculateBackoff(attempt)
	slog.Debug("retrying upstream request", "endpoint", endpoint, "attempt", attempt, "backoff", backoff)
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return core.NewProviderError(c.config.ProviderName, http.StatusGatewayTimeout, ctx.Err().Error(), ctx.Err())
	case <-timer.C:
		return nil
	}
}

// send executes a single HTTP round trip.
func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewProviderError(c.config.ProviderName, http.StatusBadGateway, "failed to send request: "+err.Error(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := readBody(resp)
	if err != nil {
		return nil, core.NewProviderError(c.config.ProviderName, http.StatusBadGateway, "failed to read response: "+err.Error(), err)
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// readBody reads the response body, decoding brotli when the server sent it.
// gzip is handled transparently by net/http.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(strings.TrimSpace(resp.Header.Get("Content-Encoding")), "br") {
		r = brotli.NewReader(resp.Body)
	}
	return io.ReadAll(r)
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, core.NewInvalidRequestError("failed to marshal request", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.config.BaseURL+req.Endpoint, body)
	if err != nil {
		return nil, core.NewInvalidRequestError(fmt.Sprintf("failed to create request: %v", err), err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.headerSetter != nil {
		c.headerSetter(httpReq)
	}
	return httpReq, nil
}

// calculateBackoff returns InitialBackoff * BackoffFactor^(attempt-1),
// capped at MaxBackoff.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.config.InitialBackoff) * math.Pow(c.config.BackoffFactor, float64(attempt-1))
	return time.Duration(min(backoff, float64(c.config.MaxBackoff)))
}

// isRetryable reports whether the status is a transient gateway failure.
// 429 is not retried: a rate limit ends the request.
func isRetryable(statusCode int) bool {
	return statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusGatewayTimeout
}
