package postprocess

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GalyaZalesskaya/model-api/images"
)

func TestDecodeBoxesZeroDelta(t *testing.T) {
	// A zero delta must reproduce the anchor exactly: the center is
	// unchanged and exp(0) = 1 keeps the size.
	priors := []images.Rect{
		images.FromCenter(100, 80, 32, 32),
		images.FromCenter(16, 16, 64, 48),
	}
	loc := make([]float32, len(priors)*4)
	candidates := []Candidate{{Index: 0, Score: 0.9}, {Index: 1, Score: 0.8}}

	boxes := DecodeBoxes(loc, priors, candidates, DefaultVariance)

	require.Len(t, boxes, 2)
	assert.Equal(t, priors[0], boxes[0])
	assert.Equal(t, priors[1], boxes[1])
}

func TestDecodeBoxesKnownDelta(t *testing.T) {
	priors := []images.Rect{images.FromCenter(64, 64, 32, 32)}
	loc := []float32{1, -1, 1, 0}
	candidates := []Candidate{{Index: 0, Score: 0.9}}

	boxes := DecodeBoxes(loc, priors, candidates, DefaultVariance)
	require.Len(t, boxes, 1)

	// cx = 1*0.1*32 + 64, cy = -1*0.1*32 + 64, w = exp(0.2)*32, h = 32.
	wantW := math32.Exp(0.2) * 32
	assert.InDelta(t, 67.2, float64(boxes[0].CenterX()), 1e-4)
	assert.InDelta(t, 60.8, float64(boxes[0].CenterY()), 1e-4)
	assert.InDelta(t, float64(wantW), float64(boxes[0].Width()), 1e-4)
	assert.InDelta(t, 32, float64(boxes[0].Height()), 1e-4)
}

func TestDecodeBoxesOnlyCandidates(t *testing.T) {
	priors := []images.Rect{
		images.FromCenter(10, 10, 8, 8),
		images.FromCenter(20, 20, 8, 8),
		images.FromCenter(30, 30, 8, 8),
	}
	loc := make([]float32, len(priors)*4)

	boxes := DecodeBoxes(loc, priors, []Candidate{{Index: 2, Score: 0.7}}, DefaultVariance)

	require.Len(t, boxes, 1)
	assert.Equal(t, priors[2], boxes[0])
}

func TestDecodeBoxesDegenerateValuesFlowThrough(t *testing.T) {
	// Pathological deltas overflow to +Inf; decoding must not panic or
	// filter them, the caller discards nonsense geometry downstream.
	priors := []images.Rect{images.FromCenter(64, 64, 32, 32)}
	loc := []float32{0, 0, 1e4, 1e4}

	boxes := DecodeBoxes(loc, priors, []Candidate{{Index: 0, Score: 0.9}}, DefaultVariance)

	require.Len(t, boxes, 1)
	assert.True(t, math32.IsInf(boxes[0].Width(), 1))
}

func TestDecodeLandmarksZeroDelta(t *testing.T) {
	priors := []images.Rect{images.FromCenter(40, 30, 16, 16)}
	lm := make([]float32, 5*2)

	points := DecodeLandmarks(lm, priors, []Candidate{{Index: 0, Score: 0.9}}, DefaultVariance, 5)

	require.Len(t, points, 1)
	require.Len(t, points[0], 5)
	for _, p := range points[0] {
		assert.Equal(t, images.Point{X: 40, Y: 30}, p, "zero delta must land on the anchor center")
	}
}

func TestDecodeLandmarksKnownDelta(t *testing.T) {
	priors := []images.Rect{
		images.FromCenter(0, 0, 8, 8),
		images.FromCenter(100, 100, 20, 10),
	}
	// Two landmarks per anchor; only anchor 1 is a candidate.
	lm := []float32{
		0, 0, 0, 0,
		1, 2, -1, -2,
	}

	points := DecodeLandmarks(lm, priors, []Candidate{{Index: 1, Score: 0.9}}, DefaultVariance, 2)

	require.Len(t, points, 1)
	require.Len(t, points[0], 2)
	// x = 1*0.1*20 + 100, y = 2*0.1*10 + 100; no size term for landmarks.
	assert.InDelta(t, 102, float64(points[0][0].X), 1e-4)
	assert.InDelta(t, 101, float64(points[0][0].Y), 1e-4)
	assert.InDelta(t, 98, float64(points[0][1].X), 1e-4)
	assert.InDelta(t, 99, float64(points[0][1].Y), 1e-4)
}
