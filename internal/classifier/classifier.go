// Package classifier labels a voice embedding as human or synthetic using a
// pre-trained decision boundary.
package classifier

import (
	"fmt"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/features"
	"github.com/harkveil/harkveil/internal/logger"
)

// Label is the voice authenticity verdict.
type Label string

const (
	LabelReal           Label = "REAL"
	LabelFake           Label = "FAKE"
	LabelUnclassifiable Label = "UNCLASSIFIABLE"
)

// DisplayName returns the operator-facing text for the label.
func (l Label) DisplayName() string {
	switch l {
	case LabelReal:
		return "REAL (Human)"
	case LabelFake:
		return "FAKE (AI-generated)"
	default:
		return "Unable to classify"
	}
}

// ParseLabel accepts the canonical label names.
func ParseLabel(s string) (Label, error) {
	switch Label(s) {
	case LabelReal, LabelFake, LabelUnclassifiable:
		return Label(s), nil
	default:
		return "", fmt.Errorf("unknown voice label %q", s)
	}
}

// UnmarshalText rejects unknown labels so decoded sessions stay valid.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ClassReal is the boundary output meaning a human voice.
const ClassReal = 1

// Boundary is a trained binary decision function over embeddings.
// Implementations must be safe for concurrent use.
type Boundary interface {
	Predict(x []float64) (int, error)
	Dim() int
}

// Classifier maps embeddings to labels. It is immutable after construction.
type Classifier struct {
	boundary Boundary
	log      logger.Logger
}

// New returns a Classifier backed by boundary.
func New(boundary Boundary) (*Classifier, error) {
	if boundary == nil {
		return nil, errors.Newf("classifier boundary is nil").
			Component("classifier").
			Category(errors.CategoryModelInit).
			Build()
	}
	return &Classifier{boundary: boundary, log: GetLogger()}, nil
}

// Dim returns the embedding length the boundary expects.
func (c *Classifier) Dim() int {
	return c.boundary.Dim()
}

// Classify returns the label for emb. It never fails: an extraction error,
// a dimension mismatch or a boundary error all yield LabelUnclassifiable.
func (c *Classifier) Classify(emb features.Embedding, extractErr error) Label {
	if extractErr != nil || emb == nil {
		return LabelUnclassifiable
	}
	if len(emb) != c.boundary.Dim() {
		c.log.Warn("embedding dimension mismatch",
			logger.Int("got", len(emb)),
			logger.Int("want", c.boundary.Dim()))
		return LabelUnclassifiable
	}

	class, err := c.boundary.Predict(emb)
	if err != nil {
		c.log.Warn("boundary prediction failed", logger.Error(errors.New(err).
			Component("classifier").
			Category(errors.CategoryClassification).
			Build()))
		return LabelUnclassifiable
	}
	if class == ClassReal {
		return LabelReal
	}
	return LabelFake
}

// Close releases boundary resources such as a TFLite interpreter.
func (c *Classifier) Close() {
	if closer, ok := c.boundary.(interface{ Close() }); ok {
		closer.Close()
	}
}

// GetLogger returns the classifier module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("classifier")
}
