package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harkveil/harkveil/internal/observability/metrics"
)

// NewMetrics records request count, latency and response size per route.
// The route pattern is used as the path label to bound cardinality.
func NewMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.RecordHTTPRequest(c.Request().Method, path, c.Response().Status,
				time.Since(start).Seconds(), c.Response().Size)
			return nil
		}
	}
}
