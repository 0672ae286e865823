package admin

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/pronunciation"
)

// PronunciationStats handles GET /admin/api/v1/pronunciation-cache/stats
//
// @Summary      Pronunciation cache occupancy and counters
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PronunciationStatsResponse
// @Failure      401  {object}  core.GatewayError
// @Router       /admin/api/v1/pronunciation-cache/stats [get]
func (h *Handler) PronunciationStats(c echo.Context) error {
	st, err := h.pronunciations.Stats(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, pronunciationStats(st, h.pronunciations.MaxSizeBytes()))
}

func pronunciationStats(st pronunciation.Stats, maxSize int64) PronunciationStatsResponse {
	res := PronunciationStatsResponse{
		TotalSizeBytes: st.TotalSizeBytes,
		TotalFiles:     st.TotalFiles,
		Hits:           st.Hits,
		Misses:         st.Misses,
		HitRate:        percent(st.Hits, st.Hits+st.Misses),
		MaxSizeBytes:   maxSize,
		UsagePercent:   percent(st.TotalSizeBytes, maxSize),
		UpdatedAt:      st.UpdatedAt,
	}
	if st.LastPurgeAt != 0 {
		at := st.LastPurgeAt
		res.LastPurgeAt = &at
	}
	return res
}

// PronunciationEntries handles GET /admin/api/v1/pronunciation-cache/entries
//
// @Summary      List cached pronunciations, most recently used first
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int     false  "Page size (default 50, max 100)"
// @Param        offset  query     int     false  "Rows to skip"
// @Param        search  query     string  false  "Substring of the text or its hash"
// @Success      200     {object}  PronunciationEntriesResponse
// @Failure      401     {object}  core.GatewayError
// @Router       /admin/api/v1/pronunciation-cache/entries [get]
func (h *Handler) PronunciationEntries(c echo.Context) error {
	p := parsePage(c)
	rows, total, err := h.pronunciations.List(c.Request().Context(), pronunciation.ListParams{
		Limit:  p.limit,
		Offset: p.offset,
		Search: p.search,
	})
	if err != nil {
		return handleError(c, err)
	}
	if rows == nil {
		rows = []pronunciation.Entry{}
	}
	return c.JSON(http.StatusOK, PronunciationEntriesResponse{
		Entries: rows,
		Total:   total,
		Limit:   p.limit,
		Offset:  p.offset,
	})
}

// DeletePronunciation handles DELETE /admin/api/v1/pronunciation-cache/entries/:hash
//
// @Summary      Delete one cached pronunciation and its audio
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        hash  path      string  true  "Text hash"
// @Success      200   {object}  SuccessResponse
// @Failure      400   {object}  core.GatewayError
// @Failure      404   {object}  core.GatewayError
// @Router       /admin/api/v1/pronunciation-cache/entries/{hash} [delete]
func (h *Handler) DeletePronunciation(c echo.Context) error {
	hash := strings.TrimSpace(c.Param("hash"))
	if hash == "" {
		return handleError(c, core.NewInvalidRequestError("Missing text hash parameter", nil))
	}
	deleted, err := h.pronunciations.DeleteOne(c.Request().Context(), hash)
	if err != nil {
		return handleError(c, err)
	}
	if !deleted {
		return handleError(c, core.NewNotFoundError("Cache entry not found"))
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Entry deleted successfully"})
}

// ClearPronunciations handles POST /admin/api/v1/pronunciation-cache/clear
//
// @Summary      Delete every cached pronunciation
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ClearResponse
// @Router       /admin/api/v1/pronunciation-cache/clear [post]
func (h *Handler) ClearPronunciations(c echo.Context) error {
	res, err := h.pronunciations.Clear(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	msg := fmt.Sprintf("Cleared %d entries", res.DeletedCount)
	if res.BlobFailures > 0 {
		msg += fmt.Sprintf(" (%d errors)", res.BlobFailures)
	}
	return c.JSON(http.StatusOK, ClearResponse{
		Success:      true,
		DeletedCount: res.DeletedCount,
		Errors:       res.BlobFailures,
		Message:      msg,
	})
}

// PurgePronunciations handles POST /admin/api/v1/pronunciation-cache/purge
//
// @Summary      Evict least recently used pronunciations down to the purge target
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PurgeResponse
// @Router       /admin/api/v1/pronunciation-cache/purge [post]
func (h *Handler) PurgePronunciations(c echo.Context) error {
	res, err := h.pronunciations.Purge(c.Request().Context(), h.pronunciations.MaxSizeBytes())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, PurgeResponse{
		Success:      true,
		DeletedCount: res.DeletedCount,
		FreedBytes:   res.FreedBytes,
		Message:      PurgeMessage(res),
	})
}

// PurgeMessage summarizes a purge for operators.
func PurgeMessage(res pronunciation.PurgeResult) string {
	return fmt.Sprintf("Purged %d entries, freed %s", res.DeletedCount, humanize.IBytes(uint64(res.FreedBytes)))
}
