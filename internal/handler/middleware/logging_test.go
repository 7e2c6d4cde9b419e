//go:build unit

package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"cart-service/internal/handler/middleware"
	"cart-service/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("writes through the injected logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		engine := gin.New()
		engine.Use(middleware.LoggingMiddleware(logger, config.LogConfig{Level: "info", TimeFormat: "2006-01-02 15:04:05.000"}))
		engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Idempotency-Key", "key-1")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		out := buf.String()
		assert.Contains(t, out, "Request started")
		assert.Contains(t, out, "Request completed")
		assert.Contains(t, out, "idempotency_key=key-1")
		assert.Contains(t, out, "status_code=204")
	})
}
