// Package anchors - Dense anchor (prior box) grids for anchor-based detectors.
//
// Anchors are generated once at model-configuration time and treated as
// read-only afterwards, so a single grid can be shared by concurrent
// decoding calls without locking. Anchor index i always corresponds to the
// i-th row of every output tensor's anchor dimension; every downstream
// stage depends on that ordering.
package anchors

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/GalyaZalesskaya/model-api/images"
)

// Config describes the anchor pyramid of a detector.
type Config struct {
	// Steps are the downsampling strides of the feature maps, finest first.
	Steps []int `json:"steps" yaml:"steps"`
	// MinSizes holds the minimum box sizes per pyramid level, in the order
	// anchors are emitted within a cell.
	MinSizes [][]int `json:"min_sizes" yaml:"min_sizes"`
	// DenseZeroLevel enables the FaceBoxes densification rule on the first
	// (finest) level: size 32 emits 4x4 sub-anchors per cell at offsets
	// {0, .25, .5, .75}, size 64 emits 2x2 at {0, .5}, any other size emits
	// a single centered anchor. When false every level places one centered
	// anchor per cell per size (RetinaFace layout).
	DenseZeroLevel bool `json:"dense_zero_level" yaml:"dense_zero_level"`
}

// Validate reports configuration mistakes that would make the grid undefined.
func (c Config) Validate() error {
	if len(c.Steps) == 0 {
		return errors.New("anchor config needs at least one pyramid level")
	}
	if len(c.Steps) != len(c.MinSizes) {
		return errors.Errorf("anchor config has %d steps but %d min-size levels", len(c.Steps), len(c.MinSizes))
	}
	for k, step := range c.Steps {
		if step <= 0 {
			return errors.Errorf("step of pyramid level %d must be positive, got %d", k, step)
		}
		if len(c.MinSizes[k]) == 0 {
			return errors.Errorf("pyramid level %d has no min sizes", k)
		}
	}
	return nil
}

// denseOffsets returns the sub-anchor center offsets for a min size on the
// densified zero level.
func denseOffsets(minSize int) []float32 {
	switch minSize {
	case 32:
		return []float32{0, 0.25, 0.5, 0.75}
	case 64:
		return []float32{0, 0.5}
	default:
		return []float32{0.5}
	}
}

// Count returns the total number of anchors Generate would emit for the
// given network input resolution. It must match the anchor dimension of the
// detector's output tensors exactly, or decoding is undefined.
func (c Config) Count(inputWidth, inputHeight int) int {
	total := 0
	for k, step := range c.Steps {
		perCell := 0
		for _, size := range c.MinSizes[k] {
			if c.DenseZeroLevel && k == 0 {
				n := len(denseOffsets(size))
				perCell += n * n
			} else {
				perCell++
			}
		}
		total += (inputHeight / step) * (inputWidth / step) * perCell
	}
	return total
}

// Generate produces the ordered anchor sequence for a network input
// resolution. Cells are iterated row-major per level; within a cell, min
// sizes are concatenated in configured order and dense sub-offsets are
// row-major as well. The result is deterministic for a fixed configuration.
func Generate(c Config, inputWidth, inputHeight int) []images.Rect {
	priors := make([]images.Rect, 0, c.Count(inputWidth, inputHeight))

	for k, step := range c.Steps {
		fh := inputHeight / step
		fw := inputWidth / step
		for i := 0; i < fh; i++ {
			for j := 0; j < fw; j++ {
				for _, size := range c.MinSizes[k] {
					s := float32(size)
					if c.DenseZeroLevel && k == 0 {
						offsets := denseOffsets(size)
						for _, oy := range offsets {
							for _, ox := range offsets {
								cx := (float32(j) + ox) * float32(step)
								cy := (float32(i) + oy) * float32(step)
								priors = append(priors, images.FromCenter(cx, cy, s, s))
							}
						}
					} else {
						cx := (float32(j) + 0.5) * float32(step)
						cy := (float32(i) + 0.5) * float32(step)
						priors = append(priors, images.FromCenter(cx, cy, s, s))
					}
				}
			}
		}
	}

	return priors
}

// Dense exports the grid as an (N, 4) float32 tensor in (left, top, right,
// bottom) order, for consumers that operate on tensor values rather than
// Rect slices.
func Dense(priors []images.Rect) *tensor.Dense {
	backing := make([]float32, len(priors)*4)
	for i, a := range priors {
		backing[i*4+0] = a.X1
		backing[i*4+1] = a.Y1
		backing[i*4+2] = a.X2
		backing[i*4+3] = a.Y2
	}
	return tensor.New(tensor.WithShape(len(priors), 4), tensor.WithBacking(backing))
}
