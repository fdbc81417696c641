package handlers

import (
	"net/http"
	"strconv"

	"github.com/Anoopkumargithub/gla-zoom/internal/services"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the raw per-tick observation trail for support
// and debugging. Role-gated; regular users never see these documents.
type AdminHandler struct {
	observations services.ObservationService
}

func NewAdminHandler(observations services.ObservationService) *AdminHandler {
	return &AdminHandler{observations: observations}
}

func (h *AdminHandler) ListObservations(c *gin.Context) {
	sessionID := c.Param("session_id")

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := h.observations.ListBySession(c.Request.Context(), sessionID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":   sessionID,
		"count":        len(rows),
		"observations": rows,
	})
}
