// Package metrics provides the Prometheus collectors for HarkVeil components.
package metrics

import "github.com/harkveil/harkveil/internal/logger"

// GetLogger returns the metrics module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("metrics")
}
