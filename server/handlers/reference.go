package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "salesrecon/server/errors"
	"salesrecon/server/middleware"
)

// InvalidateRequest регионы, кэш которых нужно сбросить. Пустой список сбрасывает все.
type InvalidateRequest struct {
	Regions []string `json:"regions"`
}

// ListRegions GET /api/regions
func (h *Handler) ListRegions(c *gin.Context) {
	regions, err := h.store.ListRegions(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, apperrors.NewInternalError("failed to list regions", err).WithContext("ListRegions"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"regions": regions})
}

// ListTerritories GET /api/regions/:region/territories
func (h *Handler) ListTerritories(c *gin.Context) {
	territories, err := h.store.ListTerritories(c.Request.Context(), c.Param("region"))
	if err != nil {
		middleware.RespondError(c, apperrors.NewInternalError("failed to list territories", err).WithContext("ListTerritories"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"territories": territories})
}

// InvalidateRegistry POST /api/registry/invalidate
func (h *Handler) InvalidateRegistry(c *gin.Context) {
	var req InvalidateRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	h.registry.Invalidate(req.Regions...)
	c.JSON(http.StatusOK, gin.H{
		"invalidated": req.Regions,
		"stats":       h.registry.GetStats(),
	})
}
