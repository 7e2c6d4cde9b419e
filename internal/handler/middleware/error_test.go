//go:build unit

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cart-service/internal/handler/httperr"
	"cart-service/internal/handler/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("renders a recorded public error when nothing was written", func(t *testing.T) {
		engine := gin.New()
		engine.Use(middleware.ErrorHandler())
		engine.GET("/boom", func(c *gin.Context) {
			resp := httperr.Response{Status: http.StatusConflict}
			resp.Error.Message = "conflicting state"
			_ = c.Error(gin.Error{Err: assert.AnError, Type: gin.ErrorTypePublic, Meta: resp})
		})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":{"message":"conflicting state"}}`, w.Body.String())
	})

	t.Run("abort with error writes the envelope and records the cause", func(t *testing.T) {
		engine := gin.New()
		engine.Use(middleware.ErrorHandler())
		engine.GET("/abort", func(c *gin.Context) {
			httperr.AbortWithError(c, http.StatusBadRequest, assert.AnError, "bad input", nil)
			assert.Len(t, c.Errors, 1)
		})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/abort", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":{"message":"bad input"}}`, w.Body.String())
	})
}
