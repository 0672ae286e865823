package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cespare/xxhash/v2"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/openai"
	"sefariaproxy/internal/translationcache"
)

// TranslationMaxOutputTokens caps the translation response.
const TranslationMaxOutputTokens = 4095

// Translation is the result of Translator.Translate.
type Translation struct {
	// Response is the Responses API envelope, verbatim.
	Response json.RawMessage
	// Model is empty when the response came from the cache.
	Model  string
	Cached bool
}

// Translator serves translations through the translation cache.
type Translator struct {
	cache      *translationcache.Cache
	upstream   Upstream
	models     ModelSource
	catalogue  Catalogue
	promptHash string
}

// NewTranslator creates a Translator.
func NewTranslator(cache *translationcache.Cache, upstream Upstream, models ModelSource, catalogue Catalogue) *Translator {
	return &Translator{
		cache:      cache,
		upstream:   upstream,
		models:     models,
		catalogue:  catalogue,
		promptHash: PromptFingerprint(TranslationInstructions),
	}
}

// PromptFingerprint identifies the instructions an entry was produced with.
func PromptFingerprint(instructions string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(instructions))
}

// Translate returns the cached translation of phrase or produces a fresh one.
// model overrides the primary model when non-empty.
func (t *Translator) Translate(ctx context.Context, phrase, model string) (*Translation, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, core.NewInvalidRequestError("Missing prompt in body", nil)
	}

	lookup := t.cache.Lookup(ctx, phrase)
	switch lookup.Outcome {
	case translationcache.OutcomeHit:
		warnOnError("failed to record translation cache hit", t.cache.RecordHit(ctx))
		return &Translation{Response: json.RawMessage(lookup.Payload.Raw), Cached: true}, nil
	case translationcache.OutcomeMalformed:
		slog.Warn("malformed translation cache entry", "hash", lookup.Key.Hash, "reason", lookup.Reason)
		warnOnError("failed to record malformed translation cache hit", t.cache.RecordMalformedHit(ctx))
	}

	if model == "" {
		model = t.models.DefaultModel(ctx)
	}
	res, used, err := callWithFallback(ctx, "translation", model, t.catalogue.TranslationFallback,
		func(m string) (*openai.ResponsesResult, error) {
			return t.upstream.Responses(ctx, openai.ResponsesRequest{
				Model:           m,
				Instructions:    TranslationInstructions,
				Input:           phrase,
				MaxOutputTokens: TranslationMaxOutputTokens,
			})
		})
	if err != nil {
		return nil, upstreamError("translation", "Translation failed: ", err)
	}

	raw := string(res.Raw)
	if bad, ok := translationcache.ParseEnvelope(raw).(translationcache.Malformed); ok {
		upstreamFailures.WithLabelValues("translation", "malformed").Inc()
		return nil, core.NewUpstreamFailedError(openai.ProviderName,
			"Translation failed: empty or unexpected response from OpenAI ("+bad.Reason+")")
	}

	if err := t.cache.Store(ctx, phrase, raw, t.promptHash); err != nil {
		cacheWriteFailures.WithLabelValues("translation").Inc()
		slog.Warn("failed to cache translation", "hash", lookup.Key.Hash, "error", err)
	}
	if lookup.Outcome == translationcache.OutcomeMiss {
		warnOnError("failed to record translation cache miss", t.cache.RecordMiss(ctx))
	}

	return &Translation{Response: res.Raw, Model: used}, nil
}
