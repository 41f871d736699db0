package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/harkveil/harkveil/internal/logger"
)

// NewRequestLogger writes one line per request. Server errors log at error
// level, client errors at warn and the rest at debug, except uploads which
// are always logged at info since each one is a batch of calls.
// Requests for which skip returns true are not logged.
func NewRequestLogger(log logger.Logger, skip middleware.Skipper) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:          skip,
		LogStatus:        true,
		LogURI:           true,
		LogMethod:        true,
		LogLatency:       true,
		LogRemoteIP:      true,
		LogRequestID:     true,
		LogContentLength: true,
		LogError:         true,
		HandleError:      true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if log == nil {
				return nil
			}

			fields := []logger.Field{
				logger.String("request_id", v.RequestID),
				logger.String("method", v.Method),
				logger.String("route", c.Path()),
				logger.Int("status", v.Status),
				logger.String("ip", v.RemoteIP),
				logger.Duration("latency", v.Latency),
			}
			if v.ContentLength != "" {
				fields = append(fields, logger.String("bytes_in", v.ContentLength))
			}
			if sid := c.Response().Header().Get(HeaderSessionID); sid != "" {
				fields = append(fields, logger.SessionID(sid))
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}

			level, msg := logger.LogLevelDebug, "request"
			switch {
			case v.Status >= http.StatusInternalServerError:
				level, msg = logger.LogLevelError, "request failed"
			case v.Status >= http.StatusBadRequest:
				level, msg = logger.LogLevelWarn, "request rejected"
			case v.Method == http.MethodPost:
				level = logger.LogLevelInfo
			}
			log.Log(level, msg, fields...)
			return nil
		},
	})
}
