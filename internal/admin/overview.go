package admin

import (
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"sefariaproxy/internal/pronunciation"
	"sefariaproxy/internal/translationcache"
	"sefariaproxy/internal/version"
)

// Overview handles GET /admin/api/v1/overview.
//
// @Summary      Both caches' stats in one call
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  OverviewResponse
// @Failure      401  {object}  core.GatewayError
// @Router       /admin/api/v1/overview [get]
func (h *Handler) Overview(c echo.Context) error {
	var (
		ts translationcache.Stats
		ps pronunciation.Stats
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		var err error
		ts, err = h.translations.Stats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		ps, err = h.pronunciations.Stats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return handleError(c, err)
	}

	res := OverviewResponse{
		Translation:   translationStats(ts),
		Pronunciation: pronunciationStats(ps, h.pronunciations.MaxSizeBytes()),
		Version:       version.Version,
		GoVersion:     runtime.Version(),
	}
	if h.settings != nil {
		res.DefaultModel = h.settings.DefaultModel(c.Request().Context())
	}
	return c.JSON(http.StatusOK, res)
}
