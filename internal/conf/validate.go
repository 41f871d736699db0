// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Transcriber backend names
const (
	BackendGoogle = "google"
	BackendHTTP   = "http"
	BackendStatic = "static"
)

// MaxConcurrency caps parallel clip processing
const MaxConcurrency = 64

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct and reports every
// problem found rather than stopping at the first.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateTriageSettings,
		validateClassifierSettings,
		validateTranscriberSettings,
		validateAudioSettings,
		validateGeoSettings,
		validateAlertSettings,
		validateSentrySettings,
	}

	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateTriageSettings(s *Settings) error {
	if s.Triage.Concurrency < 0 || s.Triage.Concurrency > MaxConcurrency {
		return fmt.Errorf("triage.concurrency must be between 0 and %d", MaxConcurrency)
	}
	if s.Triage.ClipTimeout <= 0 {
		return fmt.Errorf("triage.cliptimeout must be positive")
	}
	return nil
}

func validateClassifierSettings(s *Settings) error {
	if s.Classifier.ModelPath == "" {
		return fmt.Errorf("classifier.modelpath is required")
	}
	switch strings.ToLower(filepath.Ext(s.Classifier.ModelPath)) {
	case ".yaml", ".yml", ".json", ".tflite":
	default:
		return fmt.Errorf("classifier.modelpath must be a .yaml, .yml, .json or .tflite file")
	}
	if s.Classifier.Threads < 0 {
		return fmt.Errorf("classifier.threads cannot be negative")
	}
	return nil
}

func validateTranscriberSettings(s *Settings) error {
	s.Transcriber.Backend = strings.ToLower(s.Transcriber.Backend)
	switch s.Transcriber.Backend {
	case BackendGoogle:
		if s.Transcriber.Language == "" {
			return fmt.Errorf("transcriber.language is required for the google backend")
		}
	case BackendHTTP:
		if err := validateEnvURL(s.Transcriber.HTTP.URL); err != nil {
			return fmt.Errorf("transcriber.http.url: %w", err)
		}
		if s.Transcriber.HTTP.Timeout <= 0 {
			return fmt.Errorf("transcriber.http.timeout must be positive")
		}
	case BackendStatic:
	default:
		return fmt.Errorf("transcriber.backend must be one of %s, %s, %s", BackendGoogle, BackendHTTP, BackendStatic)
	}
	return nil
}

func validateAudioSettings(s *Settings) error {
	if s.Audio.ScratchDir == "" {
		return fmt.Errorf("audio.scratchdir is required")
	}
	if s.Audio.MaxUploadMB <= 0 {
		return fmt.Errorf("audio.maxuploadmb must be positive")
	}
	return nil
}

func validateGeoSettings(s *Settings) error {
	var errs []string
	if s.Geo.OperatorLatitude < -90 || s.Geo.OperatorLatitude > 90 {
		errs = append(errs, "geo.operatorlatitude must be between -90 and 90")
	}
	if s.Geo.OperatorLongitude < -180 || s.Geo.OperatorLongitude > 180 {
		errs = append(errs, "geo.operatorlongitude must be between -180 and 180")
	}
	if s.Geo.RadiusKm < 0 {
		errs = append(errs, "geo.radiuskm cannot be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("geo settings errors: %v", errs)
	}
	return nil
}

func validateAlertSettings(s *Settings) error {
	if !s.Alert.Enabled {
		return nil
	}
	u, err := url.Parse(s.Alert.Broker)
	if err != nil || u.Host == "" {
		return fmt.Errorf("alert.broker must be a broker URL such as tcp://host:1883")
	}
	if s.Alert.Topic == "" {
		return fmt.Errorf("alert.topic is required when alerts are enabled")
	}
	return nil
}

func validateSentrySettings(s *Settings) error {
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		return fmt.Errorf("sentry.dsn is required when sentry is enabled")
	}
	return nil
}
