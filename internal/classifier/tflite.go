package classifier

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	tflite "github.com/tphakala/go-tflite"

	"github.com/harkveil/harkveil/internal/logger"
)

// TFLiteBoundary runs a TensorFlow Lite model with input [1, dim] and
// output [1, 1] (probability of a human voice) or [1, 2] (class scores).
type TFLiteBoundary struct {
	mu          sync.Mutex
	interpreter *tflite.Interpreter
	dim         int
	outputs     int
}

// NewTFLiteBoundary loads the model at path. threads <= 0 uses one
// interpreter thread per CPU, capped at four.
func NewTFLiteBoundary(path string, threads int) (*TFLiteBoundary, error) {
	modelData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, fmt.Errorf("cannot load TensorFlow Lite model")
	}

	if threads <= 0 {
		threads = min(runtime.NumCPU(), 4)
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threads)
	options.SetErrorReporter(func(msg string, user_data any) {
		GetLogger().Error("TFLite error", logger.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		return nil, fmt.Errorf("cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		return nil, fmt.Errorf("tensor allocation failed")
	}

	input := interpreter.GetInputTensor(0)
	output := interpreter.GetOutputTensor(0)
	if input == nil || output == nil {
		interpreter.Delete()
		return nil, fmt.Errorf("model has no input or output tensor")
	}

	if err := checkTensorType("input", input.Type()); err != nil {
		interpreter.Delete()
		return nil, err
	}
	if err := checkTensorType("output", output.Type()); err != nil {
		interpreter.Delete()
		return nil, err
	}

	b := &TFLiteBoundary{
		interpreter: interpreter,
		dim:         input.Dim(input.NumDims() - 1),
		outputs:     output.Dim(output.NumDims() - 1),
	}
	if b.outputs != 1 && b.outputs != 2 {
		interpreter.Delete()
		return nil, fmt.Errorf("unsupported output width %d", b.outputs)
	}
	return b, nil
}

// Dim returns the model input width.
func (b *TFLiteBoundary) Dim() int {
	return b.dim
}

// Predict invokes the interpreter. Calls are serialized.
func (b *TFLiteBoundary) Predict(x []float64) (int, error) {
	if len(x) != b.dim {
		return 0, fmt.Errorf("expected %d features, got %d", b.dim, len(x))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.interpreter == nil {
		return 0, fmt.Errorf("interpreter is closed")
	}

	input := b.interpreter.GetInputTensor(0)
	if input == nil {
		return 0, fmt.Errorf("cannot get input tensor")
	}
	if err := fillInput(input.Float32s(), x); err != nil {
		return 0, err
	}

	if status := b.interpreter.Invoke(); status != tflite.OK {
		return 0, fmt.Errorf("tensor invoke failed: %v", status)
	}

	output := b.interpreter.GetOutputTensor(0)
	if output == nil {
		return 0, fmt.Errorf("cannot get output tensor")
	}
	return classFromScores(output.Float32s(), b.outputs)
}

// checkTensorType accepts float32 tensors only; quantized models are rejected.
func checkTensorType(role string, tt tflite.TensorType) error {
	if tt != tflite.Float32 {
		return fmt.Errorf("unsupported %s tensor type %v, want float32", role, tt)
	}
	return nil
}

func fillInput(in []float32, x []float64) error {
	if len(in) < len(x) {
		return fmt.Errorf("input tensor holds %d values, need %d", len(in), len(x))
	}
	for i, v := range x {
		in[i] = float32(v)
	}
	return nil
}

// classFromScores reads a [1, 1] probability or [1, 2] class scores.
func classFromScores(out []float32, outputs int) (int, error) {
	if len(out) < outputs {
		return 0, fmt.Errorf("output tensor holds %d values, need %d", len(out), outputs)
	}
	switch outputs {
	case 1:
		if out[0] > 0.5 {
			return ClassReal, nil
		}
		return 0, nil
	case 2:
		if out[1] > out[0] {
			return ClassReal, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported output width %d", outputs)
	}
}

// Close releases the interpreter.
func (b *TFLiteBoundary) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.interpreter != nil {
		b.interpreter.Delete()
		b.interpreter = nil
	}
}
