// Package inference - Thin adapters between the model wrappers and an
// inference runtime. The wrappers only ever see ModelInfo at setup time and
// tensors.Outputs per call; everything runtime-specific stays behind the
// Adapter interface.
package inference

import (
	"sort"

	"github.com/GalyaZalesskaya/model-api/tensors"
)

// TensorInfo describes one named model input or output.
type TensorInfo struct {
	Name  string  `json:"name" yaml:"name"`
	Shape []int64 `json:"shape" yaml:"shape"`
}

// Elements returns the number of float elements the tensor holds.
func (t TensorInfo) Elements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// ModelInfo describes the I/O surface of a compiled model. The wrappers
// validate it once at construction; violations are configuration errors,
// never per-call failures.
type ModelInfo struct {
	Inputs  []TensorInfo `json:"inputs" yaml:"inputs"`
	Outputs []TensorInfo `json:"outputs" yaml:"outputs"`
}

// OutputNames returns the output names in lexicographic order. The detector
// wrappers rely on this ordering to assign roles (boxes, scores, landmarks)
// to outputs.
func (m ModelInfo) OutputNames() []string {
	names := make([]string, len(m.Outputs))
	for i, o := range m.Outputs {
		names[i] = o.Name
	}
	sort.Strings(names)
	return names
}

// Output looks up an output by name; ok is false when it does not exist.
func (m ModelInfo) Output(name string) (TensorInfo, bool) {
	for _, o := range m.Outputs {
		if o.Name == name {
			return o, true
		}
	}
	return TensorInfo{}, false
}

// Adapter executes a compiled model. Implementations own the returned
// output buffers; the views handed back from Infer are valid only until the
// next Infer or Close call on the same adapter.
type Adapter interface {
	// Info describes the model's inputs and outputs.
	Info() ModelInfo
	// Infer runs the model on one input buffer and exposes the named
	// outputs as read-only views.
	Infer(input []float32) (tensors.Outputs, error)
	// Close releases runtime resources. The adapter is unusable afterwards.
	Close() error
}
