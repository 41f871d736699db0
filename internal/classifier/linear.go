package classifier

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

// LinearModel is the exported form of a standardizing linear classifier:
// z = (x - Mean) / Scale, class 1 when Coef·z + Intercept > 0.
type LinearModel struct {
	Mean      []float64 `yaml:"mean" json:"mean"`
	Scale     []float64 `yaml:"scale" json:"scale"`
	Coef      []float64 `yaml:"coef" json:"coef"`
	Intercept float64   `yaml:"intercept" json:"intercept"`
}

// LinearBoundary evaluates a LinearModel. It holds no mutable state.
type LinearBoundary struct {
	model LinearModel
}

// NewLinearBoundary validates m. Mean and Scale may be omitted, in which
// case no standardization is applied.
func NewLinearBoundary(m LinearModel) (*LinearBoundary, error) {
	n := len(m.Coef)
	if n == 0 {
		return nil, fmt.Errorf("linear model has no coefficients")
	}
	if m.Mean == nil {
		m.Mean = make([]float64, n)
	}
	if m.Scale == nil {
		m.Scale = make([]float64, n)
		for i := range m.Scale {
			m.Scale[i] = 1
		}
	}
	if len(m.Mean) != n || len(m.Scale) != n {
		return nil, fmt.Errorf("linear model shape mismatch: coef %d, mean %d, scale %d",
			n, len(m.Mean), len(m.Scale))
	}
	for i, s := range m.Scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("linear model scale[%d] is invalid: %v", i, s)
		}
	}
	if floats.HasNaN(m.Coef) || floats.HasNaN(m.Mean) || math.IsNaN(m.Intercept) {
		return nil, fmt.Errorf("linear model contains NaN")
	}
	return &LinearBoundary{model: m}, nil
}

// ParseLinearYAML decodes a YAML linear model artifact.
func ParseLinearYAML(data []byte) (*LinearBoundary, error) {
	var m LinearModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse linear model: %w", err)
	}
	return NewLinearBoundary(m)
}

// ParseLinearJSON decodes a JSON linear model artifact.
func ParseLinearJSON(data []byte) (*LinearBoundary, error) {
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse linear model: %w", err)
	}
	return NewLinearBoundary(m)
}

// Dim returns the feature count.
func (b *LinearBoundary) Dim() int {
	return len(b.model.Coef)
}

// Decision returns the signed distance score for x.
func (b *LinearBoundary) Decision(x []float64) (float64, error) {
	if len(x) != len(b.model.Coef) {
		return 0, fmt.Errorf("expected %d features, got %d", len(b.model.Coef), len(x))
	}
	z := make([]float64, len(x))
	floats.SubTo(z, x, b.model.Mean)
	floats.Div(z, b.model.Scale)
	return floats.Dot(b.model.Coef, z) + b.model.Intercept, nil
}

// Predict returns 1 when the decision score is positive, 0 otherwise.
func (b *LinearBoundary) Predict(x []float64) (int, error) {
	score, err := b.Decision(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(score) {
		return 0, fmt.Errorf("decision score is NaN")
	}
	if score > 0 {
		return ClassReal, nil
	}
	return 0, nil
}
