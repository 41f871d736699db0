package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harkveil/harkveil/internal/geo"
)

// HealthCheck reports liveness and build metadata.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	uptime := time.Since(c.startTime)
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":          "healthy",
		"version":         c.deps.BuildInfo.GetVersion(),
		"build_date":      c.deps.BuildInfo.GetBuildDate(),
		"uptime":          uptime.String(),
		"uptime_seconds":  uptime.Seconds(),
		"active_sessions": c.deps.Sessions.Len(),
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

// OperatorResponse is the fixed operator position.
type OperatorResponse struct {
	Operator geo.Point `json:"operator"`
	Label    string    `json:"label"`
}

// GetOperator returns the operator location used for every simulated caller.
func (c *Controller) GetOperator(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, OperatorResponse{
		Operator: c.deps.Triager.OperatorLocation(),
		Label:    "Operator",
	})
}
