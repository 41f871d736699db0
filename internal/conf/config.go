// config.go: settings model and viper-backed loading for HarkVeil
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/harkveil/harkveil/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// TriageSettings controls the batch orchestrator.
type TriageSettings struct {
	Concurrency int           // maximum clips processed in parallel, 0 = auto
	ClipTimeout time.Duration // per-stage deadline for a single clip
}

// LexiconSettings selects the emergency phrase list.
type LexiconSettings struct {
	Path string // YAML file with a "phrases" list, empty for the built-in list
}

// ClassifierSettings locates the voice authenticity boundary artifact.
type ClassifierSettings struct {
	ModelPath string // .yaml/.json linear boundary or .tflite model
	Threads   int    // TFLite interpreter threads, 0 = 1
}

// GoogleSpeechSettings configures the Google Cloud Speech-to-Text backend.
type GoogleSpeechSettings struct {
	CredentialsFile string // service account JSON, empty for application default credentials
	Model           string // recognition model, e.g. "phone_call"
	UseEnhanced     bool
}

// HTTPASRSettings configures a self-hosted Whisper-style endpoint.
type HTTPASRSettings struct {
	URL     string
	Timeout time.Duration
}

// TranscriberSettings selects and configures the speech-to-text backend.
type TranscriberSettings struct {
	Backend  string // "google", "http" or "static"
	Language string // BCP-47 language code
	Google   GoogleSpeechSettings
	HTTP     HTTPASRSettings
	Static   []StaticTranscript // fixed transcripts for offline demos
}

// StaticTranscript maps an upload filename to a fixed transcript.
type StaticTranscript struct {
	Name string
	Text string
}

// AudioSettings covers decoding and clip storage.
type AudioSettings struct {
	FfmpegPath  string // explicit ffmpeg binary, empty to search PATH
	ScratchDir  string // directory for uploaded clips
	MaxUploadMB int    // per-file upload limit
}

// GeoSettings positions the operator and bounds simulated caller offsets.
type GeoSettings struct {
	OperatorLatitude  float64
	OperatorLongitude float64
	RadiusKm          float64
	Seed              uint64 // non-zero makes spoofed locations reproducible
}

// WebServerSettings controls the HTTP API.
type WebServerSettings struct {
	Listen     string
	SessionTTL time.Duration // how long detect results stay traceable
}

// AlertSettings configures MQTT publication of emergency records.
type AlertSettings struct {
	Enabled      bool
	Broker       string
	Topic        string
	ClientID     string
	Username     string
	Password     string // may reference ${ENV_VARS}
	PasswordFile string // takes precedence over Password, e.g. /run/secrets/mqtt
	Retain       bool
}

// SentrySettings configures optional error telemetry.
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// Settings contains all configuration options for HarkVeil.
type Settings struct {
	Debug bool

	Logging     logger.LoggingConfig
	Triage      TriageSettings
	Lexicon     LexiconSettings
	Classifier  ClassifierSettings
	Transcriber TranscriberSettings
	Audio       AudioSettings
	Geo         GeoSettings
	WebServer   WebServerSettings
	Alert       AlertSettings
	Sentry      SentrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(viper.GetViper()); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings, err := unmarshalSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}
	resolveFfmpeg(settings)

	settingsInstance = settings
	return settingsInstance, nil
}

// unmarshalSettings decodes and validates the settings held by v.
func unmarshalSettings(v *viper.Viper) (*Settings, error) {
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper registers defaults, environment bindings and reads the config file.
func initViper(v *viper.Viper) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	// an explicit --config flag is honored by the caller via SetConfigFile
	err = v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(v, configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	GetLogger().Debug("configuration loaded", logger.String("path", v.ConfigFileUsed()))
	return nil
}

// createDefaultConfig writes the embedded config.yaml into dir and reads it.
func createDefaultConfig(v *viper.Viper, dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil { //nolint:gosec // config is not secret by default
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	v.SetConfigFile(configPath)
	return v.ReadInConfig()
}

// DefaultConfig returns the embedded default configuration document.
func DefaultConfig() []byte {
	data, _ := fs.ReadFile(configFiles, "config.yaml")
	return data
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath via a temporary file and rename.
// Comments in an existing file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
