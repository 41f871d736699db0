// conf/utils.go: path and tool discovery helpers
package conf

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
)

const osWindows = "windows"

// GetDefaultConfigPaths returns the directories searched for config.yaml.
// When one of them already holds a config file only that directory is returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{
			".",
			filepath.Join(homeDir, "AppData", "Roaming", "harkveil"),
		}
	default:
		configPaths = []string{
			".",
			filepath.Join(homeDir, ".config", "harkveil"),
			"/etc/harkveil",
		}
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}

	// first-run default config goes to the per-user directory
	return configPaths[1:], nil
}

// GetFfmpegBinaryName returns the binary name for ffmpeg based on the current OS.
func GetFfmpegBinaryName() string {
	if runtime.GOOS == osWindows {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// ValidateToolPath returns configuredPath when it names a file, else the
// tool found on PATH.
func ValidateToolPath(configuredPath, toolName string) (string, error) {
	if configuredPath != "" {
		if info, err := os.Stat(configuredPath); err == nil && !info.IsDir() {
			return configuredPath, nil
		}
		GetLogger().Warn("configured tool path invalid, checking system PATH",
			logger.String("configured_path", configuredPath),
			logger.String("tool", toolName))
	}

	if path, err := exec.LookPath(toolName); err == nil {
		return path, nil
	}

	if configuredPath != "" {
		return "", fmt.Errorf("tool '%s' not found at configured path '%s' or in system PATH", toolName, configuredPath)
	}
	return "", fmt.Errorf("tool '%s' not found in system PATH and no path configured", toolName)
}

// resolveFfmpeg replaces Audio.FfmpegPath with a usable binary, or clears
// it when none exists. WAV and FLAC still decode without ffmpeg.
func resolveFfmpeg(s *Settings) {
	path, err := ValidateToolPath(s.Audio.FfmpegPath, GetFfmpegBinaryName())
	if err != nil {
		GetLogger().Warn("ffmpeg not available, mp3/m4a/mp4 clips will fail to decode", logger.Error(err))
		s.Audio.FfmpegPath = ""
		return
	}
	s.Audio.FfmpegPath = path
}

// EffectiveConcurrency resolves triage.concurrency, where 0 means one worker
// per CPU capped at 8.
func (s *Settings) EffectiveConcurrency() int {
	if s.Triage.Concurrency > 0 {
		return s.Triage.Concurrency
	}
	return min(max(runtime.NumCPU(), 1), 8)
}
