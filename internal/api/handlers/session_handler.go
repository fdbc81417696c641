package handlers

import (
	"net/http"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/Anoopkumargithub/gla-zoom/internal/sampler"
	"github.com/Anoopkumargithub/gla-zoom/internal/services"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"
	"github.com/Anoopkumargithub/gla-zoom/internal/workers"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	svc     services.SessionService
	reports services.ReportService

	// teardown hooks: ending a session must drop its sampler state and
	// cancel any pending speech restart timer
	samplers *sampler.Registry
	speech   *workers.SpeechWorkerPool
}

func NewSessionHandler(svc services.SessionService, reports services.ReportService, samplers *sampler.Registry, speech *workers.SpeechWorkerPool) *SessionHandler {
	return &SessionHandler{svc: svc, reports: reports, samplers: samplers, speech: speech}
}

type StartSessionRequest struct {
	Mode     string                 `json:"mode" binding:"required"` // full|overlay
	Language string                 `json:"language"`
	Metadata models.SessionMetadata `json:"metadata"`
}

type StartSessionResponse struct {
	SessionID     string `json:"session_id"`
	Status        string `json:"status"`
	Mode          string `json:"mode"`
	SpeechEnabled bool   `json:"speech_enabled"`
	ShareCode     string `json:"share_code"` // shown once
	CreatedAt     string `json:"created_at"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Start", "invalid request body", err))
		return
	}

	sess, shareCode, err := h.svc.Start(c.Request.Context(), userID, req.Mode, req.Language, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, StartSessionResponse{
		SessionID:     sess.SessionID,
		Status:        sess.Status,
		Mode:          sess.Mode,
		SpeechEnabled: sess.SpeechEnabled,
		ShareCode:     shareCode,
		CreatedAt:     sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	sess, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "SessionHandler.Get", "forbidden", nil))
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) End(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")

	sess, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "SessionHandler.End", "forbidden", nil))
		return
	}

	ended, err := h.svc.End(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.samplers != nil {
		h.samplers.EndSession(sessionID)
	}
	if h.speech != nil {
		h.speech.StopSession(sessionID)
	}

	// build the report out of the final log; failures here must not
	// fail the end call itself
	if h.reports != nil {
		if _, rerr := h.reports.Build(c.Request.Context(), ended); rerr != nil {
			_ = c.Error(rerr)
		}
	}

	c.JSON(http.StatusOK, ended)
}

// Report serves the aggregated session report; readable by the owner or
// by anyone presenting the session's share code.
func (h *SessionHandler) Report(c *gin.Context) {
	sessionID := c.Param("session_id")

	if !h.authorizeRead(c, sessionID) {
		return
	}

	report, err := h.reports.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// authorizeRead allows the session owner (JWT) or a valid share code.
func (h *SessionHandler) authorizeRead(c *gin.Context, sessionID string) bool {
	if code := c.GetHeader("X-Share-Code"); code != "" {
		if err := h.svc.VerifyShareCode(c.Request.Context(), sessionID, code); err != nil {
			writeError(c, err)
			return false
		}
		return true
	}

	userID, ok := requireUserID(c)
	if !ok {
		return false
	}
	sess, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return false
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "SessionHandler", "forbidden", nil))
		return false
	}
	return true
}
