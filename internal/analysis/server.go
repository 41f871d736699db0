package analysis

import (
	"github.com/harkveil/harkveil/internal/api"
	v1 "github.com/harkveil/harkveil/internal/api/v1"
	"github.com/harkveil/harkveil/internal/buildinfo"
)

// NewServer builds the HTTP API around app.
func NewServer(app *App, info buildinfo.Context) (*api.Server, error) {
	cfg, err := api.ConfigFromSettings(app.Settings)
	if err != nil {
		return nil, err
	}

	deps := v1.Deps{
		Triager:        app.Orchestrator,
		Clips:          app.Clips,
		Sessions:       app.Sessions,
		HTTPMetrics:    app.Metrics.HTTP,
		MetricsHandler: app.Metrics.Handler(),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		BuildInfo:      info,
	}
	if app.Alerts != nil {
		deps.Alerts = app.Alerts
	}

	return api.New(cfg, deps)
}

// Serve runs the HTTP API until SIGINT or SIGTERM.
func Serve(app *App, info buildinfo.Context) error {
	srv, err := NewServer(app, info)
	if err != nil {
		return err
	}
	return srv.StartWithGracefulShutdown()
}
