package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sefariaproxy/internal/core"
)

func fastConfig(url string) Config {
	cfg := DefaultConfig("test", url)
	cfg.InitialBackoff = 5 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond
	return cfg
}

// countingServer answers every request with handler and counts the calls.
func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func get(endpoint string) Request {
	return Request{Method: http.MethodGet, Endpoint: endpoint}
}

func TestDo_DecodesJSONAndSetsHeaders(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Content-Type"), "GET without a body has no content type")
		_, _ = w.Write([]byte(`{"message":"shalom"}`))
	})

	client := New(nil, DefaultConfig("test", srv.URL), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer sk-test")
	})

	var out struct {
		Message string `json:"message"`
	}
	require.NoError(t, client.Do(context.Background(), get("/test"), &out))
	assert.Equal(t, "shalom", out.Message)
}

func TestDo_EncodesRequestBody(t *testing.T) {
	var received map[string]string
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &received)
		_, _ = w.Write([]byte(`{}`))
	})

	client := New(srv.Client(), DefaultConfig("test", srv.URL), nil)
	err := client.Do(context.Background(), Request{
		Method:   http.MethodPost,
		Endpoint: "/responses",
		Body:     map[string]string{"model": "gpt-4o"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", received["model"])
}

func TestDoRaw_DecodesBrotli(t *testing.T) {
	var compressed bytes.Buffer
	bw := brotli.NewWriter(&compressed)
	_, _ = bw.Write([]byte(`{"object":"list"}`))
	require.NoError(t, bw.Close())

	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(compressed.Bytes())
	})

	resp, err := New(nil, DefaultConfig("test", srv.URL), nil).DoRaw(context.Background(), get("/models"))
	require.NoError(t, err)
	assert.Equal(t, `{"object":"list"}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.ContentType)
}

func TestDo_ClassifiesProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   core.ErrorType
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Invalid API key"}}`, core.ErrorTypeAuthentication},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"Rate limit exceeded"}}`, core.ErrorTypeRateLimit},
		{"model not found", http.StatusNotFound, `{"error":{"message":"The model 'gpt-9' does not exist","code":"model_not_found"}}`, core.ErrorTypeModelUnavailable},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"Invalid request"}}`, core.ErrorTypeInvalidRequest},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"Server error"}}`, core.ErrorTypeProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			cfg := DefaultConfig("test", srv.URL)
			cfg.MaxRetries = 0

			err := New(nil, cfg, nil).Do(context.Background(), get("/test"), nil)
			var gwErr *core.GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, tt.want, gwErr.Type)
		})
	}
}

func TestDoRaw_RetriesGatewayErrors(t *testing.T) {
	var n atomic.Int32
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	var out struct {
		Success bool `json:"success"`
	}
	require.NoError(t, New(nil, fastConfig(srv.URL), nil).Do(context.Background(), get("/test"), &out))
	assert.True(t, out.Success)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoRaw_GivesUpAfterMaxRetries(t *testing.T) {
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	cfg := fastConfig(srv.URL)
	cfg.CircuitBreaker = nil

	err := New(nil, cfg, nil).Do(context.Background(), get("/test"), nil)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestDoRaw_DoesNotRetryClientErrors(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusNotFound, http.StatusUnauthorized, http.StatusBadRequest} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			})
			cfg := fastConfig(srv.URL)
			cfg.MaxRetries = 3

			require.Error(t, New(nil, cfg, nil).Do(context.Background(), get("/test"), nil))
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestDo_InvalidJSONResponse(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	var out map[string]any
	err := New(nil, DefaultConfig("test", srv.URL), nil).Do(context.Background(), get("/test"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal response")
}

func TestDoRaw_CircuitOpensAfterServerErrors(t *testing.T) {
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"Server error"}}`))
	})
	cfg := DefaultConfig("test", srv.URL)
	cfg.MaxRetries = 0
	cfg.CircuitBreaker = &CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 2, Timeout: time.Minute}
	client := New(nil, cfg, nil)

	for range 5 {
		_ = client.Do(context.Background(), get("/test"), nil)
	}

	err := client.Do(context.Background(), get("/test"), nil)
	var gwErr *core.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusServiceUnavailable, gwErr.StatusCode)
	assert.Contains(t, gwErr.Message, "circuit breaker")
	assert.Equal(t, int32(3), calls.Load(), "calls stop once the circuit opens")
	assert.Equal(t, "open", client.breaker.State())
}

func TestDoRaw_CircuitRecoversAfterTimeout(t *testing.T) {
	var healthy atomic.Bool
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	cfg := DefaultConfig("test", srv.URL)
	cfg.MaxRetries = 0
	cfg.CircuitBreaker = &CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Timeout: 50 * time.Millisecond}
	client := New(nil, cfg, nil)

	for range 2 {
		_ = client.Do(context.Background(), get("/test"), nil)
	}
	require.Error(t, client.Do(context.Background(), get("/test"), nil))

	time.Sleep(100 * time.Millisecond)
	healthy.Store(true)

	require.NoError(t, client.Do(context.Background(), get("/test"), nil))
	assert.Equal(t, "closed", client.breaker.State())
}

func TestDoRaw_ContextDeadlineIsNotRetried(t *testing.T) {
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := New(nil, fastConfig(srv.URL), nil).Do(ctx, get("/test"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("openai", "https://api.openai.com/v1")

	assert.Equal(t, "openai", cfg.ProviderName)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialBackoff)
	assert.NotNil(t, cfg.CircuitBreaker)
}

func TestCalculateBackoff(t *testing.T) {
	cfg := DefaultConfig("test", "http://example.invalid")
	cfg.InitialBackoff = 100 * time.Millisecond
	cfg.MaxBackoff = time.Second
	cfg.BackoffFactor = 2.0
	client := New(nil, cfg, nil)

	want := map[int]time.Duration{
		1:  100 * time.Millisecond,
		2:  200 * time.Millisecond,
		3:  400 * time.Millisecond,
		4:  800 * time.Millisecond,
		5:  time.Second,
		10: time.Second,
	}
	for attempt, d := range want {
		assert.Equal(t, d, client.calculateBackoff(attempt), "attempt %d", attempt)
	}
}
