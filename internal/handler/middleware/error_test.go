//go:build unit

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"parkgate/internal/handler/httperr"
	"parkgate/internal/handler/middleware"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("writes the recorded public envelope when the handler did not", func(t *testing.T) {
		e := gin.New()
		e.Use(middleware.ErrorHandler())
		e.GET("/boom", func(c *gin.Context) {
			resp := httperr.Response{Status: http.StatusConflict}
			resp.Error.Message = "No capacity for the requested slot"
			_ = c.Error(&gin.Error{Err: errors.New("no capacity"), Type: gin.ErrorTypePublic, Meta: resp})
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		e.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":{"message":"No capacity for the requested slot"}}`, w.Body.String())
	})

	t.Run("responses already written pass through untouched", func(t *testing.T) {
		e := gin.New()
		e.Use(middleware.ErrorHandler())
		e.GET("/conflict", func(c *gin.Context) {
			httperr.AbortWithError(c, http.StatusConflict, errors.New("no capacity"), "No capacity for the requested slot")
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/conflict", nil)
		e.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":{"message":"No capacity for the requested slot"}}`, w.Body.String())
	})

	t.Run("recovers a panicking handler into a 500 envelope", func(t *testing.T) {
		e := gin.New()
		e.Use(middleware.CustomRecovery())
		e.GET("/panic", func(c *gin.Context) {
			panic("boom")
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		e.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":{"message":"Internal server error"}}`, w.Body.String())
	})
}
