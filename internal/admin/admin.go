// Package admin provides the admin REST API for inspecting and maintaining
// the translation and pronunciation caches.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/pronunciation"
	"sefariaproxy/internal/translationcache"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// TranslationCache is the admin view of the translation cache.
// *translationcache.Cache satisfies this interface.
type TranslationCache interface {
	Stats(ctx context.Context) (translationcache.Stats, error)
	List(ctx context.Context, p translationcache.ListParams) ([]translationcache.Entry, int64, error)
	Delete(ctx context.Context, hash string) (bool, error)
	Clear(ctx context.Context) (int64, error)
}

// PronunciationCache is the admin view of the pronunciation cache.
// *pronunciation.Cache satisfies this interface.
type PronunciationCache interface {
	Stats(ctx context.Context) (pronunciation.Stats, error)
	List(ctx context.Context, p pronunciation.ListParams) ([]pronunciation.Entry, int64, error)
	DeleteOne(ctx context.Context, hash string) (bool, error)
	Clear(ctx context.Context) (pronunciation.ClearResult, error)
	Purge(ctx context.Context, maxSize int64) (pronunciation.PurgeResult, error)
	MaxSizeBytes() int64
}

// ModelSettings reads and writes a primary model override.
// *settings.Models satisfies this interface.
type ModelSettings interface {
	DefaultModel(ctx context.Context) string
	Configured() string
	SetDefaultModel(ctx context.Context, model string) error
}

// ModelLister ranks the models selectable for translation.
type ModelLister interface {
	RankedModels(ctx context.Context) ([]string, error)
}

// Handler serves admin API endpoints.
type Handler struct {
	translations   TranslationCache
	pronunciations PronunciationCache
	settings       ModelSettings
	speech         ModelSettings
	models         ModelLister
}

// Option configures a Handler.
type Option func(*Handler)

// WithSpeechModels enables the speech model override endpoints.
func WithSpeechModels(s ModelSettings) Option {
	return func(h *Handler) { h.speech = s }
}

// NewHandler creates a new admin API handler. settings and models may be nil,
// in which case their endpoints answer 503.
func NewHandler(translations TranslationCache, pronunciations PronunciationCache, settings ModelSettings, models ModelLister, opts ...Option) *Handler {
	h := &Handler{
		translations:   translations,
		pronunciations: pronunciations,
		settings:       settings,
		models:         models,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the admin routes on g, which carries the admin auth.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/overview", h.Overview)

	g.GET("/translation-cache/stats", h.TranslationStats)
	g.GET("/translation-cache/entries", h.TranslationEntries)
	g.DELETE("/translation-cache/entries/:hash", h.DeleteTranslation)
	g.POST("/translation-cache/clear", h.ClearTranslations)

	g.GET("/pronunciation-cache/stats", h.PronunciationStats)
	g.GET("/pronunciation-cache/entries", h.PronunciationEntries)
	g.DELETE("/pronunciation-cache/entries/:hash", h.DeletePronunciation)
	g.POST("/pronunciation-cache/clear", h.ClearPronunciations)
	g.POST("/pronunciation-cache/purge", h.PurgePronunciations)

	g.GET("/default-model", h.GetDefaultModel)
	g.PUT("/default-model", h.PutDefaultModel)
	g.GET("/tts-default-model", h.GetSpeechModel)
	g.PUT("/tts-default-model", h.PutSpeechModel)
	g.GET("/models", h.ListModels)
}

// page holds the parsed limit/offset/search query parameters.
type page struct {
	limit  int
	offset int
	search string
}

// parsePage reads limit (default 50, capped at 100), offset (default 0) and
// search. Unparseable numbers fall back to the defaults.
func parsePage(c echo.Context) page {
	p := page{limit: defaultPageLimit}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		p.limit = min(v, maxPageLimit)
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v > 0 {
		p.offset = v
	}
	p.search = strings.TrimSpace(c.QueryParam("search"))
	return p
}

// percent returns num/den as a percentage rounded to two decimals.
func percent(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return math.Round(float64(num)*10000/float64(den)) / 100
}

// handleError converts errors to appropriate HTTP responses, matching the
// format used by the main API handlers in the server package.
func handleError(c echo.Context, err error) error {
	var gatewayErr *core.GatewayError
	if errors.As(err, &gatewayErr) {
		return c.JSON(gatewayErr.HTTPStatusCode(), gatewayErr.ToJSON())
	}

	slog.Error("admin request failed", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}

func unavailable(c echo.Context, what string) error {
	return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "service_unavailable",
			"message": what + " is not configured",
		},
	})
}
