package routes

import (
	"github.com/Anoopkumargithub/gla-zoom/internal/api/handlers"
	"github.com/Anoopkumargithub/gla-zoom/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Session *handlers.SessionHandler
	Log     *handlers.LogHandler
	WS      *handlers.WSHandler
	Admin   *handlers.AdminHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Owner-only routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/session/start", d.Session.Start)
	auth.GET("/session/:session_id", d.Session.Get)
	auth.POST("/session/:session_id/end", d.Session.End)

	// Read routes: owner JWT or X-Share-Code (verified in the handler)
	shared := r.Group("/")
	shared.Use(middleware.ShareCodeOr(middleware.JWTAuth()))

	shared.GET("/session/:session_id/report", d.Session.Report)
	shared.GET("/session/:session_id/log", d.Log.ListBySession)
	shared.GET("/session/:session_id/log/export", d.Log.Export)
	shared.GET("/session/:session_id/emotion", d.Log.CurrentEmotion)
	shared.POST("/session/:session_id/moments/similar", d.Log.SimilarMoments)

	// WebSocket
	auth.GET("/ws/session/:session_id", d.WS.SessionWS)

	// Ops
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/session/:session_id/observations", d.Admin.ListObservations)
}
