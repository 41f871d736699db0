// Package api provides the HTTP server infrastructure for HarkVeil. The JSON
// endpoints live in the v1 subpackage.
package api

import (
	"fmt"
	"net"
	"time"

	"github.com/harkveil/harkveil/internal/conf"
	"github.com/harkveil/harkveil/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 2 * time.Minute // large batch uploads
	DefaultWriteTimeout    = 10 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxFiles        = 50
)

// Config holds the HTTP server configuration.
type Config struct {
	Host string
	Port string

	AllowedOrigins []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // covers the whole triage batch
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MaxUploadMB int // per file
	MaxFiles    int // per request, sizes the body limit

	Debug bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		MaxUploadMB:     25,
		MaxFiles:        DefaultMaxFiles,
	}
}

// ConfigFromSettings creates a Config from the application settings.
func ConfigFromSettings(settings *conf.Settings) (*Config, error) {
	cfg := DefaultConfig()

	if settings.WebServer.Listen != "" {
		host, port, err := net.SplitHostPort(settings.WebServer.Listen)
		if err != nil {
			return nil, fmt.Errorf("invalid webserver.listen %q: %w", settings.WebServer.Listen, err)
		}
		cfg.Host, cfg.Port = host, port
	}
	if settings.Audio.MaxUploadMB > 0 {
		cfg.MaxUploadMB = settings.Audio.MaxUploadMB
	}
	cfg.Debug = settings.Debug

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("read and write timeouts must be positive")
	}
	if c.MaxUploadMB <= 0 || c.MaxFiles <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}
	return nil
}

// Address returns the full address string for the server to listen on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// MaxUploadBytes is the per-file upload limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// BodyLimit is the echo body limit for a full batch plus multipart overhead.
func (c *Config) BodyLimit() string {
	return fmt.Sprintf("%dM", c.MaxUploadMB*c.MaxFiles+1)
}
