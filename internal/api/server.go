package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/harkveil/harkveil/internal/api/middleware"
	v1 "github.com/harkveil/harkveil/internal/api/v1"
	"github.com/harkveil/harkveil/internal/logger"
)

// Server is the HTTP server for HarkVeil. It owns the echo instance, the
// middleware stack and the v1 controller.
type Server struct {
	echo       *echo.Echo
	config     *Config
	log        logger.Logger
	controller *v1.Controller
}

// New creates a server; deps are handed to the v1 controller.
func New(config *Config, deps v1.Deps) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config: config,
		log:    GetLogger(),
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware(deps)

	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = config.MaxUploadBytes()
	}
	controller, err := v1.New(s.echo, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API v1: %w", err)
	}
	s.controller = controller

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.String("body_limit", config.BodyLimit()))

	return s, nil
}

// setupMiddleware configures the echo middleware stack.
func (s *Server) setupMiddleware(deps v1.Deps) {
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewMetrics(deps.HTTPMetrics))
	s.echo.Use(mw.NewRequestLogger(s.log, func(c echo.Context) bool {
		return c.Path() == "/metrics" || c.Path() == "/api/v1/health"
	}))

	security := mw.DefaultSecurityConfig()
	security.AllowedOrigins = s.config.AllowedOrigins
	s.echo.Use(mw.NewCORS(security))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit()))
	s.echo.Use(mw.NewSecureHeaders(security))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", logger.String("address", s.config.Address()))
	if err := s.echo.Start(s.config.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartWithGracefulShutdown serves until SIGINT or SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
		s.log.Info("shutdown signal received")
	}

	if err := s.Shutdown(); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown gracefully stops the server and waits for pending alerts.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	err := s.echo.Shutdown(ctx)
	s.controller.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}
