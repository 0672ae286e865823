package admin

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"sefariaproxy/internal/core"
)

// GetDefaultModel handles GET /admin/api/v1/default-model.
//
// @Summary      Effective primary translation model
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  DefaultModelResponse
// @Router       /admin/api/v1/default-model [get]
func (h *Handler) GetDefaultModel(c echo.Context) error {
	return getModel(c, h.settings)
}

// PutDefaultModel handles PUT /admin/api/v1/default-model.
//
// @Summary      Override the primary translation model
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      DefaultModelRequest  true  "Model id"
// @Success      200      {object}  DefaultModelResponse
// @Failure      400      {object}  core.GatewayError
// @Router       /admin/api/v1/default-model [put]
func (h *Handler) PutDefaultModel(c echo.Context) error {
	return putModel(c, h.settings)
}

// GetSpeechModel handles GET /admin/api/v1/tts-default-model.
//
// @Summary      Effective primary speech model
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  DefaultModelResponse
// @Router       /admin/api/v1/tts-default-model [get]
func (h *Handler) GetSpeechModel(c echo.Context) error {
	return getModel(c, h.speech)
}

// PutSpeechModel handles PUT /admin/api/v1/tts-default-model.
//
// @Summary      Override the primary speech model
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      DefaultModelRequest  true  "Model id"
// @Success      200      {object}  DefaultModelResponse
// @Failure      400      {object}  core.GatewayError
// @Router       /admin/api/v1/tts-default-model [put]
func (h *Handler) PutSpeechModel(c echo.Context) error {
	return putModel(c, h.speech)
}

func getModel(c echo.Context, s ModelSettings) error {
	if s == nil {
		return unavailable(c, "settings store")
	}
	return c.JSON(http.StatusOK, DefaultModelResponse{
		Model:      s.DefaultModel(c.Request().Context()),
		Configured: s.Configured(),
	})
}

func putModel(c echo.Context, s ModelSettings) error {
	if s == nil {
		return unavailable(c, "settings store")
	}
	var req DefaultModelRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return handleError(c, core.NewInvalidRequestError("Model is required", nil))
	}
	if err := s.SetDefaultModel(c.Request().Context(), model); err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, DefaultModelResponse{Success: true, Model: model})
}

// ListModels handles GET /admin/api/v1/models.
//
// @Summary      Models selectable for translation, preferred first
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ModelsResponse
// @Failure      502  {object}  core.GatewayError
// @Router       /admin/api/v1/models [get]
func (h *Handler) ListModels(c echo.Context) error {
	if h.models == nil {
		return unavailable(c, "model catalogue")
	}
	models, err := h.models.RankedModels(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	if models == nil {
		models = []string{}
	}
	return c.JSON(http.StatusOK, ModelsResponse{Models: models, Total: len(models)})
}
