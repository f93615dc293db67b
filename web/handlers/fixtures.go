package handlers

import (
	"context"
	"net/http"

	"betlogic/fixtures"
	"betlogic/web/middleware"
	"betlogic/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FixtureLister lists the current day's fixtures.
type FixtureLister interface {
	Configured() bool
	Today(ctx context.Context) ([]fixtures.Fixture, error)
}

type FixturesHandler struct {
	lister FixtureLister
	logger *zap.Logger
}

func NewFixturesHandler(lister FixtureLister, logger *zap.Logger) *FixturesHandler {
	return &FixturesHandler{lister: lister, logger: logger}
}

// List serves GET /fixtures.
func (h *FixturesHandler) List(c *gin.Context) {
	list, status, errMsg := h.fetch(c)
	c.JSON(status, types.FixturesResponse{Fixtures: list, Error: errMsg})
}

// Legacy serves GET /api/meciuri with the Romanian field names.
func (h *FixturesHandler) Legacy(c *gin.Context) {
	list, status, errMsg := h.fetch(c)
	c.JSON(status, types.LegacyFixturesResponse{Meciuri: types.ToLegacy(list), Error: errMsg})
}

// fetch degrades every upstream failure to an empty list; only a missing
// key is reported as an error.
func (h *FixturesHandler) fetch(c *gin.Context) ([]fixtures.Fixture, int, string) {
	logger := middleware.LoggerFrom(c, h.logger)
	if !h.lister.Configured() {
		logger.Error("Missing APISPORTS_KEY")
		return []fixtures.Fixture{}, http.StatusInternalServerError, "Missing APISPORTS_KEY"
	}

	list, err := h.lister.Today(c.Request.Context())
	if err != nil {
		logger.Error("Fixtures lookup failed", zap.Error(err))
		return []fixtures.Fixture{}, http.StatusOK, ""
	}
	return list, http.StatusOK, ""
}
