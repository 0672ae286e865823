package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/openai"
	"sefariaproxy/internal/rootmeaning"
)

const (
	tutorMaxOutputTokens = 1024
	tutorEffort          = "medium"
	tutorVerbosity       = "medium"
	maxExamples          = 3

	rootMeaningMaxOutputTokens = 256
)

// Example is one modern Hebrew usage sentence.
type Example struct {
	Sentence    string `json:"sentence"`
	Translation string `json:"translation"`
}

// Examples holds either up to three examples or an explanation of why there
// are none.
type Examples struct {
	Examples    []Example `json:"examples,omitempty"`
	Explanation string    `json:"explanation,omitempty"`
}

// Tutor runs the grammar, usage and root meaning calls. They share the
// primary model resolution and fallback of translation. Only root meanings
// are cached.
type Tutor struct {
	upstream  Upstream
	models    ModelSource
	catalogue Catalogue
	roots     *rootmeaning.Cache
}

// TutorOption configures a Tutor.
type TutorOption func(*Tutor)

// WithRootMeanings caches root meanings in c.
func WithRootMeanings(c *rootmeaning.Cache) TutorOption {
	return func(t *Tutor) { t.roots = c }
}

// NewTutor creates a Tutor.
func NewTutor(upstream Upstream, models ModelSource, catalogue Catalogue, opts ...TutorOption) *Tutor {
	t := &Tutor{upstream: upstream, models: models, catalogue: catalogue}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tutor) respond(ctx context.Context, op, prefix, instructions, input string) (string, error) {
	model := t.models.DefaultModel(ctx)
	res, _, err := callWithFallback(ctx, op, model, t.catalogue.TranslationFallback,
		func(m string) (*openai.ResponsesResult, error) {
			return t.upstream.Responses(ctx, openai.ResponsesRequest{
				Model:           m,
				Instructions:    instructions,
				Input:           input,
				MaxOutputTokens: tutorMaxOutputTokens,
				Reasoning:       &openai.Reasoning{Effort: tutorEffort},
				Text:            &openai.TextOptions{Verbosity: tutorVerbosity},
			})
		})
	if err != nil {
		return "", upstreamError(op, prefix, err)
	}
	return res.Text, nil
}

// SentenceGrammar explains the structure of phrase. translation is optional.
func (t *Tutor) SentenceGrammar(ctx context.Context, phrase, translation string) (string, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return "", core.NewInvalidRequestError("Missing phrase in body", nil)
	}
	input := phrase
	if translation = strings.TrimSpace(translation); translation != "" {
		input = "Hebrew/Aramaic phrase: " + phrase + "\n\nEnglish translation: " + translation
	}

	const prefix = "Grammar explanation failed: "
	text, err := t.respond(ctx, "sentence_grammar", prefix, SentenceGrammarInstructions, input)
	if err != nil {
		return "", err
	}
	if text == "" {
		upstreamFailures.WithLabelValues("sentence_grammar", "empty").Inc()
		return "", core.NewUpstreamFailedError(openai.ProviderName, prefix+"empty or unexpected response from OpenAI")
	}
	return text, nil
}

// ModernHebrewExamples asks for modern usage of word. translation is optional.
func (t *Tutor) ModernHebrewExamples(ctx context.Context, word, translation string) (*Examples, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, core.NewInvalidRequestError("Missing word in body", nil)
	}
	input := "Hebrew word: " + word
	if translation = strings.TrimSpace(translation); translation != "" {
		input += "\nEnglish translation: " + translation
	}

	const (
		op     = "modern_hebrew_examples"
		prefix = "Modern Hebrew examples failed: "
	)
	text, err := t.respond(ctx, op, prefix, ModernHebrewExamplesInstructions, input)
	if err != nil {
		return nil, err
	}
	if text == "" {
		upstreamFailures.WithLabelValues(op, "empty").Inc()
		return nil, core.NewUpstreamFailedError(openai.ProviderName, prefix+"empty response from OpenAI")
	}

	var parsed Examples
	if err := json.Unmarshal([]byte(openai.ExtractJSONObject(text)), &parsed); err != nil {
		upstreamFailures.WithLabelValues(op, "invalid_json").Inc()
		return nil, core.NewUpstreamFailedError(openai.ProviderName, prefix+"invalid JSON from OpenAI")
	}
	if len(parsed.Examples) > 0 {
		if len(parsed.Examples) > maxExamples {
			parsed.Examples = parsed.Examples[:maxExamples]
		}
		return &Examples{Examples: parsed.Examples}, nil
	}
	if explanation := strings.TrimSpace(parsed.Explanation); explanation != "" {
		return &Examples{Explanation: explanation}, nil
	}
	upstreamFailures.WithLabelValues(op, "incomplete").Inc()
	return nil, core.NewUpstreamFailedError(openai.ProviderName, prefix+"response missing examples or explanation")
}

// RootMeaning returns a short English gloss for a Hebrew root or word. The
// root is normalized first and an unusable root is rejected. Upstream
// failures yield an empty meaning rather than an error so callers can render
// without it; nothing is cached then.
func (t *Tutor) RootMeaning(ctx context.Context, root string) (string, error) {
	normalized, ok := rootmeaning.Normalize(root)
	if !ok {
		return "", core.NewInvalidRequestError("Please provide a valid Hebrew root or word.", nil)
	}
	if t.roots != nil {
		if meaning, ok := t.roots.Lookup(ctx, normalized); ok {
			return meaning, nil
		}
	}

	const op = "root_meaning"
	res, _, err := callWithFallback(ctx, op, t.models.DefaultModel(ctx), t.catalogue.TranslationFallback,
		func(m string) (*openai.ResponsesResult, error) {
			return t.upstream.Responses(ctx, openai.ResponsesRequest{
				Model:           m,
				Instructions:    RootMeaningInstructions,
				Input:           "Hebrew root: " + rootmeaning.Display(normalized) + " (" + normalized + ")",
				MaxOutputTokens: rootMeaningMaxOutputTokens,
			})
		})
	if err != nil {
		slog.Warn("root meaning lookup failed", "root", normalized, "error", upstreamError(op, "", err))
		return "", nil
	}

	meaning := unquote(res.Text)
	if t.roots != nil {
		t.roots.Store(ctx, normalized, meaning)
	}
	return meaning, nil
}

// unquote trims one leading and one trailing quote character.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	t := s
	if t != "" && strings.ContainsRune(`"'`, rune(t[0])) {
		t = t[1:]
	}
	if n := len(t); n > 0 && strings.ContainsRune(`"'`, rune(t[n-1])) {
		t = t[:n-1]
	}
	if t = strings.TrimSpace(t); t != "" {
		return t
	}
	return s
}

// CurrentModel reports the newest general-purpose model the key can use.
func (t *Tutor) CurrentModel(ctx context.Context) (string, error) {
	models, err := t.catalogue.Models(ctx)
	if err != nil {
		return "", upstreamError("models", "", err)
	}
	return openai.LatestGeneralPurpose(models), nil
}

// RankedModels lists the selectable translation models, preferred first.
func (t *Tutor) RankedModels(ctx context.Context) ([]string, error) {
	models, err := t.catalogue.Models(ctx)
	if err != nil {
		return nil, upstreamError("models", "", err)
	}
	return openai.RankModels(models), nil
}
