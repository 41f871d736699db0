package classifier

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tflite "github.com/tphakala/go-tflite"

	"github.com/harkveil/harkveil/internal/errors"
)

func TestCheckTensorType(t *testing.T) {
	t.Parallel()

	require.NoError(t, checkTensorType("input", tflite.Float32))

	for _, tt := range []tflite.TensorType{tflite.UInt8, tflite.Int32} {
		err := checkTensorType("input", tt)
		require.Error(t, err, "type %v", tt)
		assert.Contains(t, err.Error(), "input tensor")
	}
}

func TestFillInputRejectsShortTensor(t *testing.T) {
	t.Parallel()

	// A quantized tensor yields no float32 view.
	require.Error(t, fillInput(nil, []float64{1, 2, 3}))
	require.Error(t, fillInput(make([]float32, 2), []float64{1, 2, 3}))

	in := make([]float32, 3)
	require.NoError(t, fillInput(in, []float64{0.5, -1, 2}))
	assert.Equal(t, []float32{0.5, -1, 2}, in)
}

func TestClassFromScores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		out     []float32
		outputs int
		want    int
		wantErr bool
	}{
		{"probability real", []float32{0.9}, 1, ClassReal, false},
		{"probability fake", []float32{0.2}, 1, 0, false},
		{"scores real", []float32{0.1, 0.8}, 2, ClassReal, false},
		{"scores fake", []float32{0.7, 0.3}, 2, 0, false},
		{"nil output", nil, 1, 0, true},
		{"short scores", []float32{0.4}, 2, 0, true},
		{"unsupported width", []float32{1, 2, 3}, 3, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := classFromScores(tt.out, tt.outputs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadTFLiteMissingFileIsModelLoadError(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.tflite"), 1)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryModelLoad))
}
