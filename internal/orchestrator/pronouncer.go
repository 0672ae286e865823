package orchestrator

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/openai"
	"sefariaproxy/internal/pronunciation"
)

var (
	// yod, he, vav, he, each followed by any cantillation or niqqud mark
	tetragrammaton = regexp.MustCompile(`י[\x{0591}-\x{05C7}]*ה[\x{0591}-\x{05C7}]*ו[\x{0591}-\x{05C7}]*ה[\x{0591}-\x{05C7}]*`)
	adonai         = regexp.MustCompile(`אדוני`)
)

// SpeechInput rewrites display text into the text sent for synthesis: the
// Tetragrammaton and the written form אדוני are read as "Adonai".
func SpeechInput(text string) string {
	text = tetragrammaton.ReplaceAllString(text, "אדוני")
	return adonai.ReplaceAllString(text, "Adonai")
}

// SpeechConfig selects the synthesis model and voice. When Models is set it
// supplies the primary model and Model is used only if it returns "".
type SpeechConfig struct {
	Models       ModelSource
	Model        string
	Voice        string
	Instructions string
}

func (c SpeechConfig) primaryModel(ctx context.Context) string {
	if c.Models != nil {
		if m := c.Models.DefaultModel(ctx); m != "" {
			return m
		}
	}
	return c.Model
}

func (c SpeechConfig) withDefaults() SpeechConfig {
	if c.Model == "" {
		c.Model = openai.DefaultTTSModel
	}
	if c.Voice == "" {
		c.Voice = openai.DefaultTTSVoice
	}
	if c.Instructions == "" {
		c.Instructions = openai.DefaultTTSInstructions
	}
	return c
}

// Pronunciation is the result of Pronouncer.Pronounce.
type Pronunciation struct {
	Audio  []byte
	Hash   string
	Cached bool
}

// Pronouncer serves pronunciation audio through the pronunciation cache.
type Pronouncer struct {
	cache     *pronunciation.Cache
	upstream  Upstream
	catalogue Catalogue
	speech    SpeechConfig
}

// NewPronouncer creates a Pronouncer.
func NewPronouncer(cache *pronunciation.Cache, upstream Upstream, catalogue Catalogue, speech SpeechConfig) *Pronouncer {
	return &Pronouncer{
		cache:     cache,
		upstream:  upstream,
		catalogue: catalogue,
		speech:    speech.withDefaults(),
	}
}

// Pronounce returns the cached audio for text or synthesizes it. The cache
// key is the normalized display text, not the rewritten speech input.
func (p *Pronouncer) Pronounce(ctx context.Context, text string) (*Pronunciation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, core.NewInvalidRequestError("Missing text in body", nil)
	}

	lookup := p.cache.Lookup(ctx, text)
	if lookup.Hit {
		warnOnError("failed to record pronunciation cache hit", p.cache.RecordHit(ctx, lookup.Key.Hash), "hash", lookup.Key.Hash)
		return &Pronunciation{Audio: lookup.Audio, Hash: lookup.Key.Hash, Cached: true}, nil
	}

	input := SpeechInput(text)
	audio, used, err := callWithFallback(ctx, "speech", p.speech.primaryModel(ctx), p.catalogue.SpeechFallback,
		func(m string) ([]byte, error) {
			return p.upstream.Speech(ctx, openai.SpeechRequest{
				Model:        m,
				Voice:        p.speech.Voice,
				Input:        input,
				Instructions: p.speech.Instructions,
			})
		})
	if err != nil {
		return nil, upstreamError("speech", "Pronunciation failed: ", err)
	}

	if _, err := p.cache.Add(ctx, lookup.Key, audio); err != nil {
		cacheWriteFailures.WithLabelValues("speech").Inc()
		slog.Warn("failed to cache pronunciation", "hash", lookup.Key.Hash, "error", err)
	}
	warnOnError("failed to record pronunciation cache miss", p.cache.RecordMiss(ctx))

	slog.Debug("pronunciation synthesized", "hash", lookup.Key.Hash, "model", used, "bytes", len(audio))
	return &Pronunciation{Audio: audio, Hash: lookup.Key.Hash}, nil
}
