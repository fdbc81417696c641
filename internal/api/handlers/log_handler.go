package handlers

import (
	"net/http"

	"github.com/Anoopkumargithub/gla-zoom/internal/cache"
	"github.com/Anoopkumargithub/gla-zoom/internal/export"
	"github.com/Anoopkumargithub/gla-zoom/internal/services"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"
	"github.com/gin-gonic/gin"
)

type LogHandler struct {
	sessions services.SessionService
	log      services.EmotionLogService
	cache    cache.Cache
}

func NewLogHandler(sessions services.SessionService, log services.EmotionLogService, ch cache.Cache) *LogHandler {
	return &LogHandler{sessions: sessions, log: log, cache: ch}
}

// shared owner-or-share-code check, same rules as the report endpoint
func (h *LogHandler) authorizeRead(c *gin.Context, sessionID string) bool {
	sh := &SessionHandler{svc: h.sessions}
	return sh.authorizeRead(c, sessionID)
}

func (h *LogHandler) ListBySession(c *gin.Context) {
	sessionID := c.Param("session_id")
	if !h.authorizeRead(c, sessionID) {
		return
	}

	rows, err := h.log.ListBySession(c.Request.Context(), sessionID, 0)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"count":      len(rows),
		"entries":    rows,
	})
}

// Export streams the emotion log as the downloadable CSV. The document
// format is fixed: `Time,Emotion,Speech` header, one unquoted row per
// entry. An empty log is refused, matching the UI only offering the
// download once an entry exists.
func (h *LogHandler) Export(c *gin.Context) {
	sessionID := c.Param("session_id")
	if !h.authorizeRead(c, sessionID) {
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)

	if err := h.log.ExportCSV(c.Request.Context(), sessionID, c.Writer); err != nil {
		// nothing written yet on the empty-log path, safe to switch to JSON
		c.Header("Content-Type", "application/json")
		c.Header("Content-Disposition", "")
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type SimilarMomentsRequest struct {
	Scores map[string]float64 `json:"scores" binding:"required"`
	Limit  int                `json:"limit"`
}

// SimilarMoments finds the log entries whose expression mix sits
// closest to the given score map, by embedding distance.
func (h *LogHandler) SimilarMoments(c *gin.Context) {
	sessionID := c.Param("session_id")
	if !h.authorizeRead(c, sessionID) {
		return
	}

	var req SimilarMomentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "LogHandler.SimilarMoments", "invalid request body", err))
		return
	}

	rows, err := h.log.SimilarMoments(c.Request.Context(), sessionID, req.Scores, req.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"entries":    rows,
	})
}

// CurrentEmotion returns the session's latest committed emotion from
// the cache; 204 when nothing has been committed yet.
func (h *LogHandler) CurrentEmotion(c *gin.Context) {
	sessionID := c.Param("session_id")
	if !h.authorizeRead(c, sessionID) {
		return
	}

	var cur map[string]any
	hit, err := h.cache.GetJSON(c.Request.Context(), cache.CurrentEmotionKey(sessionID), &cur)
	if err != nil || !hit {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, cur)
}
