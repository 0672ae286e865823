// Package orchestrator runs the cache-fronted upstream calls: look up the
// cache, call the model on a miss with a single fallback retry when the model
// is unavailable, then store the fresh result.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/openai"
)

// Upstream is the subset of the OpenAI client the orchestrator calls.
type Upstream interface {
	Responses(ctx context.Context, req openai.ResponsesRequest) (*openai.ResponsesResult, error)
	Speech(ctx context.Context, req openai.SpeechRequest) ([]byte, error)
}

// Catalogue supplies the model list and substitute models.
type Catalogue interface {
	Models(ctx context.Context) ([]openai.Model, error)
	TranslationFallback(ctx context.Context, failed string) string
	SpeechFallback(ctx context.Context, failed string) string
}

// ModelSource resolves a primary model that may be overridden at runtime.
type ModelSource interface {
	DefaultModel(ctx context.Context) string
}

var (
	fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sefariaproxy_upstream_fallbacks_total",
		Help: "Upstream calls retried with a substitute model",
	}, []string{"operation"})

	upstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sefariaproxy_upstream_failures_total",
		Help: "Upstream calls that failed after any fallback",
	}, []string{"operation", "type"})

	cacheWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sefariaproxy_orchestrator_cache_write_failures_total",
		Help: "Fresh results returned without being cached",
	}, []string{"operation"})
)

// callWithFallback calls with model and, only when the failure says the model
// is unavailable, retries once with the substitute. A second failure is final.
// It returns the model that produced the result.
func callWithFallback[T any](
	ctx context.Context,
	op, model string,
	substitute func(ctx context.Context, failed string) string,
	call func(model string) (T, error),
) (T, string, error) {
	out, err := call(model)
	if err == nil || !core.IsModelUnavailable(err) {
		return out, model, err
	}

	next := substitute(ctx, model)
	if next == "" || next == model {
		return out, model, err
	}
	slog.Warn("model unavailable, retrying with fallback",
		"operation", op, "model", model, "fallback", next, "error", err)
	fallbacks.WithLabelValues(op).Inc()

	out, err = call(next)
	return out, next, err
}

// upstreamError labels an upstream failure for the caller. Client-class
// statuses are kept; anything else becomes 502. Configuration errors pass
// through untouched.
func upstreamError(op, prefix string, err error) error {
	var gwErr *core.GatewayError
	if !errors.As(err, &gwErr) {
		upstreamFailures.WithLabelValues(op, "unknown").Inc()
		return core.NewProviderError(openai.ProviderName, http.StatusBadGateway, prefix+err.Error(), err)
	}
	upstreamFailures.WithLabelValues(op, string(gwErr.Type)).Inc()
	if gwErr.Type == core.ErrorTypeConfiguration {
		return gwErr
	}

	out := gwErr.WithMessagePrefix(prefix)
	status := gwErr.HTTPStatusCode()
	if status < 400 || status >= 500 {
		status = http.StatusBadGateway
	}
	out.StatusCode = status
	return out
}

// warnOnError logs a failed bookkeeping step; these never fail a request.
func warnOnError(msg string, err error, args ...any) {
	if err != nil {
		slog.Warn(msg, append(args, "error", err)...)
	}
}
