package conf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func loadFromBytes(t *testing.T, data []byte) (*Settings, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaultConfig(v)
	require.NoError(t, v.ReadConfig(bytes.NewReader(data)))
	return unmarshalSettings(v)
}

func TestEmbeddedDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	settings, err := loadFromBytes(t, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, BackendGoogle, settings.Transcriber.Backend)
	assert.Equal(t, "en-US", settings.Transcriber.Language)
	assert.Equal(t, 60*time.Second, settings.Triage.ClipTimeout)
	assert.InDelta(t, DefaultOperatorLatitude, settings.Geo.OperatorLatitude, 1e-9)
	assert.InDelta(t, DefaultOperatorLongitude, settings.Geo.OperatorLongitude, 1e-9)
	assert.InDelta(t, DefaultRadiusKm, settings.Geo.RadiusKm, 1e-9)
	assert.Equal(t, 30*time.Minute, settings.WebServer.SessionTTL)
	assert.True(t, settings.Logging.Console.Enabled)
	assert.False(t, settings.Logging.FileOutput.Enabled)
}

func TestDefaultsApplyWithoutConfigFile(t *testing.T) {
	t.Parallel()

	settings, err := loadFromBytes(t, []byte("debug: true\n"))
	require.NoError(t, err)

	assert.True(t, settings.Debug)
	assert.Equal(t, "assets/models/voice_classifier.yaml", settings.Classifier.ModelPath)
	assert.Equal(t, 25, settings.Audio.MaxUploadMB)
}

func TestStaticTranscriptsDecode(t *testing.T) {
	t.Parallel()

	settings, err := loadFromBytes(t, []byte(`
transcriber:
  backend: static
  static:
    - name: call_1.wav
      text: "help there is a fire"
`))
	require.NoError(t, err)
	assert.Equal(t, BackendStatic, settings.Transcriber.Backend)
	require.Len(t, settings.Transcriber.Static, 1)
	assert.Equal(t, StaticTranscript{Name: "call_1.wav", Text: "help there is a fire"}, settings.Transcriber.Static[0])
}

func TestValidateSettingsCollectsAllErrors(t *testing.T) {
	t.Parallel()

	settings, err := loadFromBytes(t, DefaultConfig())
	require.NoError(t, err)

	settings.Triage.ClipTimeout = 0
	settings.Classifier.ModelPath = "model.pkl"
	settings.Geo.OperatorLatitude = 120
	settings.Transcriber.Backend = "vosk"

	err = ValidateSettings(settings)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 4)
}

func TestValidateAlertAndSentry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"alerts disabled", func(s *Settings) { s.Alert.Enabled = false; s.Alert.Broker = "" }, false},
		{"alerts missing topic", func(s *Settings) { s.Alert.Enabled = true; s.Alert.Topic = "" }, true},
		{"alerts bad broker", func(s *Settings) { s.Alert.Enabled = true; s.Alert.Broker = "localhost" }, true},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, true},
		{"http backend without url", func(s *Settings) { s.Transcriber.Backend = BackendHTTP; s.Transcriber.HTTP.URL = "" }, true},
		{"http backend ok", func(s *Settings) { s.Transcriber.Backend = "HTTP" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			settings, err := loadFromBytes(t, DefaultConfig())
			require.NoError(t, err)
			tt.mutate(settings)
			if tt.wantErr {
				assert.Error(t, ValidateSettings(settings))
			} else {
				assert.NoError(t, ValidateSettings(settings))
			}
		})
	}
}

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvBool("true"))
	assert.Error(t, validateEnvBool("maybe"))
	assert.NoError(t, validateEnvConcurrency("4"))
	assert.Error(t, validateEnvConcurrency("-1"))
	assert.Error(t, validateEnvConcurrency("many"))
	assert.NoError(t, validateEnvBackend("Static"))
	assert.Error(t, validateEnvBackend("vosk"))
	assert.NoError(t, validateEnvLatitude("16.48"))
	assert.Error(t, validateEnvLatitude("91"))
	assert.Error(t, validateEnvLongitude("-181"))
	assert.NoError(t, validateEnvURL("tcp://broker:1883"))
	assert.Error(t, validateEnvURL("broker"))
	assert.Error(t, validateEnvPath("../secrets/model.yaml"))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HARKVEIL_TRANSCRIBER_BACKEND", "static")
	t.Setenv("HARKVEIL_GEO_SEED", "42")

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaultConfig(v)
	require.NoError(t, configureEnvironmentVariables(v))

	settings, err := unmarshalSettings(v)
	require.NoError(t, err)
	assert.Equal(t, BackendStatic, settings.Transcriber.Backend)
	assert.Equal(t, uint64(42), settings.Geo.Seed)
}

func TestSaveYAMLConfig(t *testing.T) {
	t.Parallel()

	settings, err := loadFromBytes(t, DefaultConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveYAMLConfig(path, settings))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Contains(t, doc, "transcriber")
	assert.Contains(t, doc, "geo")
}

func TestEffectiveConcurrency(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	assert.GreaterOrEqual(t, s.EffectiveConcurrency(), 1)
	assert.LessOrEqual(t, s.EffectiveConcurrency(), 8)

	s.Triage.Concurrency = 3
	assert.Equal(t, 3, s.EffectiveConcurrency())
}

func TestValidateToolPath(t *testing.T) {
	t.Parallel()

	bin := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	got, err := ValidateToolPath(bin, "harkveil-no-such-tool")
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	_, err = ValidateToolPath(filepath.Join(t.TempDir(), "missing"), "harkveil-no-such-tool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "harkveil-no-such-tool")

	_, err = ValidateToolPath("", "harkveil-no-such-tool")
	require.Error(t, err)
}
