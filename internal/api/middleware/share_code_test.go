package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestShareCodeOrBypassesTokenAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	r := gin.New()
	r.GET("/session/:session_id/report", ShareCodeOr(JWTAuth()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// share code present, no bearer token: the handler decides
	req := httptest.NewRequest(http.MethodGet, "/session/abc/report", nil)
	req.Header.Set("X-Share-Code", "123456")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// neither credential: token auth rejects as before
	req = httptest.NewRequest(http.MethodGet, "/session/abc/report", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
