package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
)

// Load reads a boundary artifact, choosing the format by extension:
// .yaml, .yml and .json hold a LinearModel, .tflite a TensorFlow Lite model.
// Any failure is categorized as model-loading and should abort startup.
func Load(path string, threads int) (*Classifier, error) {
	start := time.Now()
	kind := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	boundary, err := loadBoundary(path, kind, threads)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Priority(errors.PriorityCritical).
			ModelContext(path, kind).
			Timing("model-load", time.Since(start)).
			Build()
	}

	GetLogger().Info("voice classifier loaded",
		logger.String("path", path),
		logger.String("kind", kind),
		logger.Int("dim", boundary.Dim()),
		logger.Duration("elapsed", time.Since(start)))

	return New(boundary)
}

func loadBoundary(path, kind string, threads int) (Boundary, error) {
	if path == "" {
		return nil, fmt.Errorf("classifier model path is empty")
	}

	switch kind {
	case "tflite":
		return NewTFLiteBoundary(path, threads)
	case "yaml", "yml", "json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if kind == "json" {
			return ParseLinearJSON(data)
		}
		return ParseLinearYAML(data)
	default:
		return nil, fmt.Errorf("unsupported classifier artifact %q", filepath.Base(path))
	}
}
