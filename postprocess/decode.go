package postprocess

import (
	"github.com/chewxy/math32"

	"github.com/GalyaZalesskaya/model-api/images"
)

// Variance holds the two scale constants normalizing regression targets:
// element 0 scales center offsets, element 1 scales log-size deltas.
type Variance [2]float32

// DefaultVariance matches the training configuration of the supported
// face detectors.
var DefaultVariance = Variance{0.1, 0.2}

// DecodeBoxes converts raw regression deltas at the candidate indices into
// absolute boxes in network input-pixel space, using SSD-style anchor
// decoding: center offsets are scaled by the anchor size, width/height
// deltas live in log space so exp() restores the scale-invariant target.
//
// The loc buffer is 4 floats per anchor (dx, dy, dw, dh). Degenerate
// variance or pathological deltas produce NaN/Inf boxes; those flow through
// undetected on purpose, mirroring the silent tolerance of the reference
// wrappers, and are the caller's concern.
func DecodeBoxes(loc []float32, priors []images.Rect, candidates []Candidate, variance Variance) []images.Rect {
	boxes := make([]images.Rect, 0, len(candidates))
	for _, c := range candidates {
		off := c.Index * 4
		dx := loc[off]
		dy := loc[off+1]
		dw := loc[off+2]
		dh := loc[off+3]

		prior := priors[c.Index]
		cx := dx*variance[0]*prior.Width() + prior.CenterX()
		cy := dy*variance[0]*prior.Height() + prior.CenterY()
		w := math32.Exp(dw*variance[1]) * prior.Width()
		h := math32.Exp(dh*variance[1]) * prior.Height()

		boxes = append(boxes, images.FromCenter(cx, cy, w, h))
	}
	return boxes
}

// DecodeLandmarks converts raw landmark deltas at the candidate indices into
// absolute points in network input-pixel space. Each of the pointsPerAnchor
// landmarks is decoded with the center-offset formula only; landmarks have
// no size term. The buffer is 2*pointsPerAnchor floats per anchor.
func DecodeLandmarks(lm []float32, priors []images.Rect, candidates []Candidate, variance Variance, pointsPerAnchor int) [][]images.Point {
	all := make([][]images.Point, 0, len(candidates))
	for _, c := range candidates {
		prior := priors[c.Index]
		points := make([]images.Point, pointsPerAnchor)
		for j := 0; j < pointsPerAnchor; j++ {
			off := (c.Index*pointsPerAnchor + j) * 2
			points[j] = images.Point{
				X: lm[off]*variance[0]*prior.Width() + prior.CenterX(),
				Y: lm[off+1]*variance[0]*prior.Height() + prior.CenterY(),
			}
		}
		all = append(all, points)
	}
	return all
}
