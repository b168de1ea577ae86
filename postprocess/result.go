// Package postprocess - Decoding pipeline for anchor-based detector outputs:
// score filtering, variance box regression decoding, greedy NMS and mapping
// back to original image coordinates.
//
// Every stage is a pure function of its inputs. Tensor buffers passed in are
// borrowed from the caller for the duration of the call only.
package postprocess

import (
	"fmt"

	"github.com/GalyaZalesskaya/model-api/images"
)

// Candidate pairs an anchor index with its foreground confidence. Candidates
// are ephemeral: produced by FilterScores, consumed by the decode stages.
type Candidate struct {
	// Index into the anchor grid and into the anchor dimension of every
	// output tensor.
	Index int
	// Score is the foreground confidence at that index.
	Score float32
}

// Detection is one final detection in original-image pixel coordinates.
type Detection struct {
	// LabelID indexes the configured label table.
	LabelID int
	// Label is the resolved class name.
	Label string
	// Confidence is the foreground score that survived suppression.
	Confidence float32
	// Box is in original-image pixel coordinates.
	Box images.Rect
	// Landmarks holds decoded landmark points, nil when the model has none.
	Landmarks []images.Point
}

func (d Detection) String() string {
	return fmt.Sprintf("Object %s (confidence %f): (%f, %f), (%f, %f)",
		d.Label, d.Confidence, d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
}

// Labels is an ordered class-name lookup table.
type Labels []string

// Get resolves a label id, falling back to a synthetic name for ids outside
// the table so callers never have to special-case lookup misses.
func (l Labels) Get(id int) string {
	if id >= 0 && id < len(l) {
		return l[id]
	}
	return fmt.Sprintf("unknown_%d", id)
}
