// Package middleware provides the echo middleware stack of the HarkVeil API.
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/harkveil/harkveil/internal/logger"
)

// HeaderSessionID carries the triage session a response belongs to, so the
// operator console can trace a batch without parsing the body first.
const HeaderSessionID = "X-Harkveil-Session"

// SecurityConfig controls CORS and response hardening.
type SecurityConfig struct {
	AllowedOrigins []string
	HSTSMaxAge     int
	// CORSMaxAge is how long browsers may cache a preflight, in seconds.
	CORSMaxAge int
}

// DefaultSecurityConfig allows any origin since the operator map page is
// usually served from a different host than the API.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		AllowedOrigins: []string{"*"},
		HSTSMaxAge:     365 * 24 * 60 * 60,
		CORSMaxAge:     600,
	}
}

// NewCORS allows uploads and trace posts from the console and exposes the
// headers audio players need for seeking.
func NewCORS(config SecurityConfig) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
		ExposeHeaders: []string{
			echo.HeaderContentLength,
			"Accept-Ranges",
			"Content-Range",
			echo.HeaderXRequestID,
			HeaderSessionID,
		},
		MaxAge: config.CORSMaxAge,
	})
}

// NewSecureHeaders sets hardening headers. The API serves JSON and audio
// only, so the content security policy forbids everything else.
func NewSecureHeaders(config SecurityConfig) echo.MiddlewareFunc {
	return middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            config.HSTSMaxAge,
		ContentSecurityPolicy: "default-src 'none'; media-src 'self'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	})
}

// NewBodyLimit caps request bodies; limit uses echo's size syntax ("501M").
func NewBodyLimit(limit string) echo.MiddlewareFunc {
	return middleware.BodyLimit(limit)
}

// NewRequestID tags every request with an id echoed in the response. The id
// also rides the request context so triage logs carry it as trace_id.
func NewRequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	})
}
