// Package logger provides module-aware structured logging on top of log/slog.
//
// Every package obtains a scoped logger once and reuses it:
//
//	log := logger.Global().Module("triage")
//	log.Info("batch complete",
//	    logger.Int("clips", len(clips)),
//	    logger.Duration("elapsed", time.Since(start)))
//
// Console output is human-readable text; the optional file output is JSON.
// Tests use NewSlogLogger with a buffer or io.Discard.
package logger

import (
	"context"
	"time"
	"unique"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field represents a structured log field. Keys are interned with unique.Make
// so hot keys such as "clip_id" share one allocation.
type Field struct {
	Key   string
	Value any
}

func internKey(key string) string {
	return unique.Make(key).Value()
}

var (
	errorKey   = internKey("error")
	clipIDKey  = internKey("clip_id")
	stageKey   = internKey("stage")
	sessionKey = internKey("session_id")
)

// Logger is the centralized logging interface for dependency injection
type Logger interface {
	// Module returns a logger scoped to a specific module
	Module(name string) Logger

	// Leveled logging methods
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Context-aware logging
	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger

	// Log with explicit level
	Log(level LogLevel, msg string, fields ...Field)

	// Flush ensures all buffered logs are written
	Flush() error
}

// String creates a string field for structured logging.
func String(key, value string) Field {
	return Field{Key: internKey(key), Value: value}
}

// Int creates an integer field for structured logging.
func Int(key string, value int) Field {
	return Field{Key: internKey(key), Value: value}
}

// Float64 creates a 64-bit float field for structured logging.
func Float64(key string, value float64) Field {
	return Field{Key: internKey(key), Value: value}
}

// Bool creates a boolean field for structured logging.
func Bool(key string, value bool) Field {
	return Field{Key: internKey(key), Value: value}
}

// Error creates an error field for structured logging.
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey, Value: nil}
	}
	return Field{Key: errorKey, Value: err.Error()}
}

// Duration creates a duration field for structured logging.
func Duration(key string, value time.Duration) Field {
	return Field{Key: internKey(key), Value: value}
}

// Strings creates a string slice field, used for matched keywords.
func Strings(key string, values []string) Field {
	return Field{Key: internKey(key), Value: values}
}

// ClipID tags a log line with the audio clip it concerns.
func ClipID(id string) Field {
	return Field{Key: clipIDKey, Value: id}
}

// SessionID tags a log line with the triage session (one upload batch).
func SessionID(id string) Field {
	return Field{Key: sessionKey, Value: id}
}

// Stage tags a log line with the triage stage (transcribe, detect, extract, classify, locate).
func Stage(name string) Field {
	return Field{Key: stageKey, Value: name}
}
