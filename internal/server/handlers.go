// Package server provides HTTP handlers and server setup for the caching proxy.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/orchestrator"
)

// Cache status header values.
const (
	CacheHeader = "X-Cache"
	cacheHit    = "HIT"
	cacheMiss   = "MISS"
)

// Translator serves cached translations.
type Translator interface {
	Translate(ctx context.Context, phrase, model string) (*orchestrator.Translation, error)
}

// Pronouncer serves cached pronunciation audio.
type Pronouncer interface {
	Pronounce(ctx context.Context, text string) (*orchestrator.Pronunciation, error)
}

// Tutor serves the uncached grammar and usage calls.
type Tutor interface {
	SentenceGrammar(ctx context.Context, phrase, translation string) (string, error)
	ModernHebrewExamples(ctx context.Context, word, translation string) (*orchestrator.Examples, error)
	CurrentModel(ctx context.Context) (string, error)
	RootMeaning(ctx context.Context, root string) (string, error)
}

// Handler holds the HTTP handlers
type Handler struct {
	translator Translator
	pronouncer Pronouncer
	tutor      Tutor
}

// NewHandler creates a new handler over the orchestrator services
func NewHandler(translator Translator, pronouncer Pronouncer, tutor Tutor) *Handler {
	return &Handler{
		translator: translator,
		pronouncer: pronouncer,
		tutor:      tutor,
	}
}

// Register mounts the proxy routes on g, which is expected to be /api/openai.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/chat", h.Chat)
	g.POST("/tts", h.TTS)
	g.POST("/sentence-grammar", h.SentenceGrammar)
	g.POST("/modern-hebrew-examples", h.ModernHebrewExamples)
	g.GET("/model", h.Model)
	g.GET("/root-meaning", h.RootMeaning)
}

// ChatRequest is the body of POST /api/openai/chat.
type ChatRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// TTSRequest is the body of POST /api/openai/tts.
type TTSRequest struct {
	Text string `json:"text"`
}

// SentenceGrammarRequest is the body of POST /api/openai/sentence-grammar.
type SentenceGrammarRequest struct {
	Phrase           string `json:"phrase"`
	TranslatedPhrase string `json:"translatedPhrase,omitempty"`
}

// SentenceGrammarResponse carries the grammar explanation.
type SentenceGrammarResponse struct {
	Explanation string `json:"explanation"`
}

// ModernHebrewExamplesRequest is the body of POST /api/openai/modern-hebrew-examples.
type ModernHebrewExamplesRequest struct {
	Word            string `json:"word"`
	WordTranslation string `json:"wordTranslation,omitempty"`
}

// RootMeaningResponse carries the English gloss of a root. Meaning is empty
// when the upstream call failed.
type RootMeaningResponse struct {
	Meaning string `json:"meaning"`
}

// ModelResponse names the current model.
type ModelResponse struct {
	Model string `json:"model"`
}

// Chat handles POST /api/openai/chat
//
// @Summary      Translate a phrase
// @Description  Returns the upstream Responses envelope verbatim, served from the translation cache when fresh.
// @Tags         openai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ChatRequest  true  "Phrase to translate"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  core.GatewayError
// @Failure      401      {object}  core.GatewayError
// @Failure      502      {object}  core.GatewayError
// @Router       /api/openai/chat [post]
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	res, err := h.translator.Translate(c.Request().Context(), req.Prompt, req.Model)
	if err != nil {
		return handleError(c, err)
	}

	c.Response().Header().Set(CacheHeader, cacheStatus(res.Cached))
	return c.JSONBlob(http.StatusOK, res.Response)
}

// TTS handles POST /api/openai/tts
//
// @Summary      Pronounce Hebrew text
// @Description  Returns MP3 audio, served from the pronunciation cache when present.
// @Tags         openai
// @Accept       json
// @Produce      audio/mpeg
// @Security     BearerAuth
// @Param        request  body  TTSRequest  true  "Text to pronounce"
// @Success      200      {file}    binary
// @Failure      400      {object}  core.GatewayError
// @Failure      401      {object}  core.GatewayError
// @Failure      502      {object}  core.GatewayError
// @Router       /api/openai/tts [post]
func (h *Handler) TTS(c echo.Context) error {
	var req TTSRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	res, err := h.pronouncer.Pronounce(c.Request().Context(), req.Text)
	if err != nil {
		return handleError(c, err)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderCacheControl, "public, max-age=3600")
	header.Set(CacheHeader, cacheStatus(res.Cached))
	return c.Blob(http.StatusOK, "audio/mpeg", res.Audio)
}

// SentenceGrammar handles POST /api/openai/sentence-grammar
//
// @Summary      Explain the grammar of a phrase
// @Tags         openai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SentenceGrammarRequest  true  "Phrase and optional translation"
// @Success      200      {object}  SentenceGrammarResponse
// @Failure      400      {object}  core.GatewayError
// @Failure      502      {object}  core.GatewayError
// @Router       /api/openai/sentence-grammar [post]
func (h *Handler) SentenceGrammar(c echo.Context) error {
	var req SentenceGrammarRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	explanation, err := h.tutor.SentenceGrammar(c.Request().Context(), req.Phrase, req.TranslatedPhrase)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, SentenceGrammarResponse{Explanation: explanation})
}

// ModernHebrewExamples handles POST /api/openai/modern-hebrew-examples
//
// @Summary      Modern Hebrew usage examples for a word
// @Tags         openai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ModernHebrewExamplesRequest  true  "Word and optional translation"
// @Success      200      {object}  orchestrator.Examples
// @Failure      400      {object}  core.GatewayError
// @Failure      502      {object}  core.GatewayError
// @Router       /api/openai/modern-hebrew-examples [post]
func (h *Handler) ModernHebrewExamples(c echo.Context) error {
	var req ModernHebrewExamplesRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	examples, err := h.tutor.ModernHebrewExamples(c.Request().Context(), req.Word, req.WordTranslation)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, examples)
}

// Model handles GET /api/openai/model
//
// @Summary      Newest general-purpose model
// @Tags         openai
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ModelResponse
// @Failure      502  {object}  core.GatewayError
// @Router       /api/openai/model [get]
func (h *Handler) Model(c echo.Context) error {
	model, err := h.tutor.CurrentModel(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, ModelResponse{Model: model})
}

// RootMeaning handles GET /api/openai/root-meaning
//
// @Summary      Short English meaning of a Hebrew root
// @Description  Accepts Hebrew with or without maqaf and niqqud, or a Latin transliteration. Served from the root meaning cache when present.
// @Tags         openai
// @Produce      json
// @Security     BearerAuth
// @Param        root  query     string  true  "Hebrew root or word"
// @Success      200   {object}  RootMeaningResponse
// @Failure      400   {object}  core.GatewayError
// @Router       /api/openai/root-meaning [get]
func (h *Handler) RootMeaning(c echo.Context) error {
	meaning, err := h.tutor.RootMeaning(c.Request().Context(), c.QueryParam("root"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, RootMeaningResponse{Meaning: meaning})
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func cacheStatus(cached bool) string {
	if cached {
		return cacheHit
	}
	return cacheMiss
}

// handleError converts gateway errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var gatewayErr *core.GatewayError
	if errors.As(err, &gatewayErr) {
		return c.JSON(gatewayErr.HTTPStatusCode(), gatewayErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
