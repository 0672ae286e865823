package admin

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/openai"
	"sefariaproxy/internal/translationcache"
)

const snippetRunes = 100

// TranslationStats handles GET /admin/api/v1/translation-cache/stats
//
// @Summary      Translation cache counters
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  TranslationStatsResponse
// @Failure      401  {object}  core.GatewayError
// @Router       /admin/api/v1/translation-cache/stats [get]
func (h *Handler) TranslationStats(c echo.Context) error {
	st, err := h.translations.Stats(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, translationStats(st))
}

func translationStats(st translationcache.Stats) TranslationStatsResponse {
	return TranslationStatsResponse{
		Hits:          st.Hits,
		Misses:        st.Misses,
		MalformedHits: st.MalformedHits,
		HitRate:       percent(st.Hits, st.Hits+st.Misses),
		UpdatedAt:     st.UpdatedAt,
	}
}

// TranslationEntries handles GET /admin/api/v1/translation-cache/entries
//
// @Summary      List cached translations
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int     false  "Page size (default 50, max 100)"
// @Param        offset  query     int     false  "Rows to skip"
// @Param        search  query     string  false  "Substring of the phrase or its hash"
// @Success      200     {object}  TranslationEntriesResponse
// @Failure      401     {object}  core.GatewayError
// @Router       /admin/api/v1/translation-cache/entries [get]
func (h *Handler) TranslationEntries(c echo.Context) error {
	p := parsePage(c)
	rows, total, err := h.translations.List(c.Request().Context(), translationcache.ListParams{
		Limit:  p.limit,
		Offset: p.offset,
		Search: p.search,
	})
	if err != nil {
		return handleError(c, err)
	}

	entries := make([]TranslationEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, TranslationEntry{
			PhraseHash:         r.PhraseHash,
			Phrase:             r.Phrase,
			TranslationSnippet: translationSnippet(r.Response),
			CreatedAt:          r.CreatedAt,
			Version:            r.Version,
			PromptHash:         r.PromptHash,
		})
	}
	return c.JSON(http.StatusOK, TranslationEntriesResponse{
		Entries: entries,
		Total:   total,
		Limit:   p.limit,
		Offset:  p.offset,
	})
}

// translationSnippet returns the translatedPhrase of a cached envelope, or the
// first characters of its text when the text is not a JSON object.
func translationSnippet(response string) string {
	if !gjson.Valid(response) {
		return "Error parsing response"
	}
	texts := translationcache.OutputTexts(response)
	if len(texts) == 0 {
		return ""
	}
	text := texts[0]
	if obj := openai.ExtractJSONObject(text); obj != "" {
		if v := gjson.Get(obj, "translatedPhrase"); v.Exists() {
			return v.String()
		}
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > snippetRunes {
		runes = runes[:snippetRunes]
	}
	return string(runes)
}

// DeleteTranslation handles DELETE /admin/api/v1/translation-cache/entries/:hash
//
// @Summary      Delete one cached translation
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        hash  path      string  true  "Phrase hash"
// @Success      200   {object}  SuccessResponse
// @Failure      400   {object}  core.GatewayError
// @Router       /admin/api/v1/translation-cache/entries/{hash} [delete]
func (h *Handler) DeleteTranslation(c echo.Context) error {
	hash := strings.TrimSpace(c.Param("hash"))
	if hash == "" {
		return handleError(c, core.NewInvalidRequestError("Missing hash parameter", nil))
	}
	if _, err := h.translations.Delete(c.Request().Context(), hash); err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ClearTranslations handles POST /admin/api/v1/translation-cache/clear
//
// @Summary      Delete every cached translation and reset the counters
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ClearResponse
// @Router       /admin/api/v1/translation-cache/clear [post]
func (h *Handler) ClearTranslations(c echo.Context) error {
	n, err := h.translations.Clear(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, ClearResponse{
		Success:      true,
		DeletedCount: n,
		Message:      fmt.Sprintf("Cleared %d translation cache entries and reset stats.", n),
	})
}
