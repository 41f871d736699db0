// Package v1 implements the HarkVeil JSON API: batch triage uploads, session
// round trips for the trace step, clip playback and operator metadata.
package v1

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/harkveil/harkveil/internal/buildinfo"
	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/geo"
	"github.com/harkveil/harkveil/internal/logger"
	"github.com/harkveil/harkveil/internal/observability/metrics"
	"github.com/harkveil/harkveil/internal/session"
	"github.com/harkveil/harkveil/internal/triage"
)

// Default limits for the upload endpoint.
const (
	DefaultMaxUploadBytes = 25 << 20
	DefaultAlertTimeout   = 15 * time.Second
)

// Triager runs a batch of clips.
type Triager interface {
	Triage(ctx context.Context, clips []clip.AudioClip) triage.Report
	OperatorLocation() geo.Point
}

// AlertPublisher forwards emergencies to external consumers.
type AlertPublisher interface {
	PublishReport(ctx context.Context, sessionID string, report triage.Report) error
}

// Deps are the collaborators of the controller. Alerts, HTTPMetrics and
// MetricsHandler are optional.
type Deps struct {
	Triager        Triager
	Clips          *clip.Store
	Sessions       *session.Store
	Alerts         AlertPublisher
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	MaxUploadBytes int64
	AlertTimeout   time.Duration
	BuildInfo      buildinfo.Context
}

// Controller holds the API handlers.
type Controller struct {
	Group *echo.Group

	deps      Deps
	log       logger.Logger
	startTime time.Time

	// background alert publications
	wg sync.WaitGroup
}

// New registers the API routes on e under /api/v1.
func New(e *echo.Echo, deps Deps) (*Controller, error) {
	if deps.Triager == nil || deps.Clips == nil || deps.Sessions == nil {
		return nil, errors.Newf("api controller requires triager, clip store and session store").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if deps.AlertTimeout <= 0 {
		deps.AlertTimeout = DefaultAlertTimeout
	}

	c := &Controller{
		Group:     e.Group("/api/v1"),
		deps:      deps,
		log:       GetLogger(),
		startTime: time.Now(),
	}
	c.initRoutes(e)
	return c, nil
}

func (c *Controller) initRoutes(e *echo.Echo) {
	c.Group.GET("/health", c.HealthCheck)
	c.Group.GET("/operator", c.GetOperator)

	c.Group.POST("/triage", c.TriageUpload)
	c.Group.GET("/sessions/:id", c.GetSession)
	c.Group.GET("/sessions/:id/trace", c.TraceSession)
	c.Group.POST("/trace", c.TraceUpload)

	c.Group.GET("/clips/:id", c.ServeClip)

	if c.deps.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(c.deps.MetricsHandler))
	}
}

// Close waits for in-flight alert publications.
func (c *Controller) Close() {
	c.wg.Wait()
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates an error body with a fresh correlation id.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
}

// HandleError logs err and writes an ErrorResponse.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("path", ctx.Path()),
		logger.String("ip", ctx.RealIP()),
		logger.Int("code", code),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		c.log.Error(message, fields...)
	} else {
		c.log.Debug(message, fields...)
	}

	return ctx.JSON(code, resp)
}

// statusFor maps error categories to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GetLogger returns the api module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}
