package obs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestSetupTracingNoopWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "erent", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestRequestIDAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := Middleware{}
	ready := errors.New("mongo unreachable")
	health := HealthHandlers{Ready: func(context.Context) error { return ready }}

	r := gin.New()
	r.Use(mw.RequestID(), mw.Tracing())
	r.GET("/livez", health.Livez)
	r.GET("/readyz", health.Readyz)
	r.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFromContext(c.Request.Context())) })

	t.Run("request id is echoed", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set("X-Request-ID", "req-42")
		r.ServeHTTP(w, req)
		assert.Equal(t, "req-42", w.Body.String())
		assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	})

	t.Run("request id is generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
		assert.NotEmpty(t, w.Body.String())
	})

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		ready = nil
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
