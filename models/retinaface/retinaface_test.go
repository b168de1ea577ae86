package retinaface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GalyaZalesskaya/model-api/inference"
	"github.com/GalyaZalesskaya/model-api/tensors"
)

// testInfo describes a 32x32 RetinaFace export. The plain grid for that
// resolution has 42 anchors: 32 on stride 8, 8 on stride 16, 2 on stride 32.
func testInfo() inference.ModelInfo {
	return inference.ModelInfo{
		Inputs: []inference.TensorInfo{
			{Name: "input", Shape: []int64{1, 3, 32, 32}},
		},
		Outputs: []inference.TensorInfo{
			{Name: "boxes", Shape: []int64{1, 42, 4}},
			{Name: "scores", Shape: []int64{1, 42, 2}},
			{Name: "landmarks", Shape: []int64{1, 42, 10}},
		},
	}
}

func testOutputs(t *testing.T, boxes, scores, landmarks []float32) tensors.Outputs {
	t.Helper()
	b, err := tensors.NewView([]int64{1, 42, 4}, boxes)
	require.NoError(t, err)
	s, err := tensors.NewView([]int64{1, 42, 2}, scores)
	require.NoError(t, err)
	l, err := tensors.NewView([]int64{1, 42, 10}, landmarks)
	require.NoError(t, err)
	return tensors.Outputs{"boxes": b, "scores": s, "landmarks": l}
}

func TestNewValidatesTopology(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*inference.ModelInfo)
		errHas string
	}{
		{
			name:   "two outputs",
			mutate: func(m *inference.ModelInfo) { m.Outputs = m.Outputs[:2] },
			errHas: "3 outputs",
		},
		{
			name:   "anchor count mismatch",
			mutate: func(m *inference.ModelInfo) { m.Outputs[0].Shape = []int64{1, 40, 4} },
			errHas: "anchor grid",
		},
		{
			name:   "landmarks not 10 wide",
			mutate: func(m *inference.ModelInfo) { m.Outputs[2].Shape = []int64{1, 42, 8} },
			errHas: "10 values",
		},
		{
			name:   "grayscale input",
			mutate: func(m *inference.ModelInfo) { m.Inputs[0].Shape = []int64{1, 1, 32, 32} },
			errHas: "3-channel",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := testInfo()
			tc.mutate(&info)
			_, err := New(info, DefaultConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errHas)
		})
	}
}

func TestNewRejectsZeroLandmarks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LandmarkCount = 0
	_, err := New(testInfo(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "landmark count")
}

func TestPostprocessDecodesBoxAndLandmarks(t *testing.T) {
	m, err := New(testInfo(), DefaultConfig())
	require.NoError(t, err)

	boxes := make([]float32, 42*4)
	scores := make([]float32, 42*2)
	landmarks := make([]float32, 42*10)
	// Anchor 10 is the stride-8 cell (1,1), size 16, centered at (12, 12).
	scores[10*2+1] = 0.8

	dets, err := m.Postprocess(testOutputs(t, boxes, scores, landmarks), 64, 64)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	d := dets[0]
	assert.Equal(t, "Face", d.Label)
	// Zero deltas reproduce the anchor (4,4,20,20) in net space; the 64x64
	// original doubles every coordinate.
	assert.InDelta(t, 8, float64(d.Box.X1), 1e-4)
	assert.InDelta(t, 8, float64(d.Box.Y1), 1e-4)
	assert.InDelta(t, 40, float64(d.Box.X2), 1e-4)
	assert.InDelta(t, 40, float64(d.Box.Y2), 1e-4)

	require.Len(t, d.Landmarks, 5)
	for _, p := range d.Landmarks {
		assert.InDelta(t, 24, float64(p.X), 1e-4)
		assert.InDelta(t, 24, float64(p.Y), 1e-4)
	}
}

func TestPostprocessClampsLandmarks(t *testing.T) {
	m, err := New(testInfo(), DefaultConfig())
	require.NoError(t, err)

	boxes := make([]float32, 42*4)
	scores := make([]float32, 42*2)
	landmarks := make([]float32, 42*10)
	scores[10*2+1] = 0.8
	// First landmark of anchor 10 decodes to x = -20*0.1*16 + 12 = -20.
	landmarks[10*10] = -20

	dets, err := m.Postprocess(testOutputs(t, boxes, scores, landmarks), 32, 32)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.InDelta(t, 0, float64(dets[0].Landmarks[0].X), 1e-4)
	assert.InDelta(t, 12, float64(dets[0].Landmarks[0].Y), 1e-4)
}

func TestPostprocessRejectsShapeDrift(t *testing.T) {
	m, err := New(testInfo(), DefaultConfig())
	require.NoError(t, err)

	out := testOutputs(t, make([]float32, 42*4), make([]float32, 42*2), make([]float32, 42*10))
	short, err := tensors.NewView([]int64{1, 41, 10}, make([]float32, 41*10))
	require.NoError(t, err)
	out["landmarks"] = short

	_, err = m.Postprocess(out, 32, 32)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "landmarks output")
}

func TestPostprocessEmptyIsNotAnError(t *testing.T) {
	m, err := New(testInfo(), DefaultConfig())
	require.NoError(t, err)

	out := testOutputs(t, make([]float32, 42*4), make([]float32, 42*2), make([]float32, 42*10))
	dets, err := m.Postprocess(out, 32, 32)
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestDefaultConfigGridSize(t *testing.T) {
	cfg := DefaultConfig()
	// The reference 640x640 resolution: (80^2 + 40^2 + 20^2) * 2.
	assert.Equal(t, 16800, cfg.Anchors.Count(640, 640))
}
