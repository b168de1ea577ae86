// Package tensors - Read-only views over inference output buffers.
package tensors

import "github.com/pkg/errors"

// View is a non-owning reference to a contiguous float32 buffer plus its
// shape. The buffer belongs to the inference adapter that produced it and is
// only valid for the duration of one result-handling call; a View must never
// be retained past that call.
type View struct {
	shape []int64
	data  []float32
}

// NewView wraps a buffer and its shape. The buffer length must equal the
// product of the shape dimensions.
func NewView(shape []int64, data []float32) (View, error) {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	if n != int64(len(data)) {
		return View{}, errors.Errorf("tensor shape %v implies %d elements, buffer holds %d", shape, n, len(data))
	}
	return View{shape: shape, data: data}, nil
}

// Shape returns the dimension sizes. Callers must not modify the slice.
func (v View) Shape() []int64 { return v.shape }

// Data returns the raw float buffer. Read-only by convention.
func (v View) Data() []float32 { return v.data }

// Dim returns the size of the i-th dimension, or 0 when out of range.
func (v View) Dim(i int) int64 {
	if i < 0 || i >= len(v.shape) {
		return 0
	}
	return v.shape[i]
}

// Rank returns the number of dimensions.
func (v View) Rank() int { return len(v.shape) }

// Outputs maps output tensor names to their views for one inference result.
type Outputs map[string]View

// Get looks up a named output. Missing names are a shape-contract violation
// between the model wrapper and the adapter, reported as an error.
func (o Outputs) Get(name string) (View, error) {
	v, ok := o[name]
	if !ok {
		return View{}, errors.Errorf("inference result has no output named %q", name)
	}
	return v, nil
}
