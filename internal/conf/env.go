// env.go - Environment variable configuration and validation for HarkVeil
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "HARKVEIL_DEBUG", validateEnvBool},

		{"triage.concurrency", "HARKVEIL_TRIAGE_CONCURRENCY", validateEnvConcurrency},
		{"triage.cliptimeout", "HARKVEIL_TRIAGE_CLIPTIMEOUT", nil},

		{"lexicon.path", "HARKVEIL_LEXICON_PATH", validateEnvPath},
		{"classifier.modelpath", "HARKVEIL_CLASSIFIER_MODELPATH", validateEnvPath},

		{"transcriber.backend", "HARKVEIL_TRANSCRIBER_BACKEND", validateEnvBackend},
		{"transcriber.google.credentialsfile", "GOOGLE_APPLICATION_CREDENTIALS", validateEnvPath},
		{"transcriber.http.url", "HARKVEIL_TRANSCRIBER_HTTP_URL", validateEnvURL},

		{"geo.operatorlatitude", "HARKVEIL_GEO_OPERATORLATITUDE", validateEnvLatitude},
		{"geo.operatorlongitude", "HARKVEIL_GEO_OPERATORLONGITUDE", validateEnvLongitude},
		{"geo.seed", "HARKVEIL_GEO_SEED", nil},

		{"webserver.listen", "HARKVEIL_LISTEN", nil},

		{"alert.broker", "HARKVEIL_ALERT_BROKER", validateEnvURL},
		{"alert.username", "HARKVEIL_ALERT_USERNAME", nil},
		{"alert.password", "HARKVEIL_ALERT_PASSWORD", nil},
		{"alert.passwordfile", "HARKVEIL_ALERT_PASSWORD_FILE", validateEnvPath},

		{"sentry.dsn", "HARKVEIL_SENTRY_DSN", nil},
	}
}

// bindEnvVars binds every variable and validates the ones that are set.
// Invalid values are reported together but do not stop the binding.
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("Invalid %s value: %v", binding.EnvVar, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0", value)
	}
	return nil
}

func validateEnvConcurrency(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("concurrency must be an integer, got '%s'", value)
	}
	if n < 0 || n > MaxConcurrency {
		return fmt.Errorf("concurrency must be between 0 and %d, got %d", MaxConcurrency, n)
	}
	return nil
}

func validateEnvBackend(value string) error {
	switch strings.ToLower(value) {
	case BackendGoogle, BackendHTTP, BackendStatic:
		return nil
	}
	return fmt.Errorf("backend must be one of %s, %s, %s; got '%s'", BackendGoogle, BackendHTTP, BackendStatic, value)
}

func validateEnvLatitude(value string) error {
	lat, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("latitude must be a number, got '%s'", value)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", lat)
	}
	return nil
}

func validateEnvLongitude(value string) error {
	lon, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("longitude must be a number, got '%s'", value)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", lon)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("'%s' is not an absolute URL", value)
	}
	return nil
}

// validateEnvPath rejects traversal and warns about missing files.
func validateEnvPath(value string) error {
	for _, part := range strings.Split(value, string(os.PathSeparator)) {
		if part == ".." {
			return fmt.Errorf("path traversal detected: %s", value)
		}
	}
	if _, err := os.Stat(value); os.IsNotExist(err) {
		return fmt.Errorf("warning: file does not exist: %s", value)
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return bindEnvVars(v)
}
