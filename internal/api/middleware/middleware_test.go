package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harkveil/harkveil/internal/logger"
)

func TestRequestIDReachesHandlerContext(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewRequestID())

	var seen string
	e.GET("/ping", func(c echo.Context) error {
		seen, _ = c.Request().Context().Value(logger.TraceIDKey).(string)
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), seen)
}

func TestRequestLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelDebug, nil)

	e := echo.New()
	e.Use(NewRequestID(), NewRequestLogger(log, func(c echo.Context) bool {
		return c.Path() == "/metrics"
	}))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/bad", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "nope") })
	e.GET("/metrics", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/ok", "/bad", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody).WithContext(context.Background())
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "request rejected")
	assert.Contains(t, out, "route=/bad")
	assert.NotContains(t, out, "route=/metrics")
}

func TestSecureHeaders(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewSecureHeaders(DefaultSecurityConfig()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "no-referrer", rec.Header().Get(echo.HeaderReferrerPolicy))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentSecurityPolicy), "default-src 'none'")
}
