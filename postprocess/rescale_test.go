package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GalyaZalesskaya/model-api/images"
)

func TestMapToImageRescale(t *testing.T) {
	// 1024x1024 network space onto an 800x600 image: scale factors are
	// 1024/800 and 1024/600, and mapping back divides by them.
	boxes := []images.Rect{{X1: 512, Y1: 512, X2: 768, Y2: 768}}
	scores := []float32{0.9}

	detections := MapToImage([]int{0}, boxes, nil, scores, MapConfig{
		NetWidth:    1024,
		NetHeight:   1024,
		ImageWidth:  800,
		ImageHeight: 600,
		Labels:      Labels{"Face"},
	})

	require.Len(t, detections, 1)
	d := detections[0]
	assert.InDelta(t, 400, float64(d.Box.X1), 1e-3)
	assert.InDelta(t, 300, float64(d.Box.Y1), 1e-3)
	assert.InDelta(t, 600, float64(d.Box.X2), 1e-3)
	assert.InDelta(t, 450, float64(d.Box.Y2), 1e-3)
	assert.Equal(t, "Face", d.Label)
	assert.Equal(t, 0, d.LabelID)
	assert.Equal(t, float32(0.9), d.Confidence)
	assert.Nil(t, d.Landmarks)
}

func TestMapToImageClampsBoxes(t *testing.T) {
	boxes := []images.Rect{{X1: -64, Y1: -32, X2: 2048, Y2: 1100}}
	scores := []float32{0.7}

	detections := MapToImage([]int{0}, boxes, nil, scores, MapConfig{
		NetWidth:    1024,
		NetHeight:   1024,
		ImageWidth:  800,
		ImageHeight: 600,
		Labels:      Labels{"Face"},
	})

	require.Len(t, detections, 1)
	box := detections[0].Box
	assert.Equal(t, float32(0), box.X1)
	assert.Equal(t, float32(0), box.Y1)
	assert.Equal(t, float32(800), box.X2)
	assert.Equal(t, float32(600), box.Y2)
}

func TestMapToImageClampsLandmarks(t *testing.T) {
	boxes := []images.Rect{{X1: 100, Y1: 100, X2: 200, Y2: 200}}
	landmarks := [][]images.Point{{
		{X: -50, Y: 120},
		{X: 150, Y: 5000},
	}}
	scores := []float32{0.8}

	detections := MapToImage([]int{0}, boxes, landmarks, scores, MapConfig{
		NetWidth:    640,
		NetHeight:   640,
		ImageWidth:  320,
		ImageHeight: 240,
		Labels:      Labels{"Face"},
	})

	require.Len(t, detections, 1)
	require.Len(t, detections[0].Landmarks, 2)
	p0 := detections[0].Landmarks[0]
	p1 := detections[0].Landmarks[1]
	assert.Equal(t, float32(0), p0.X, "landmarks are never negative")
	assert.InDelta(t, 45, float64(p0.Y), 1e-3)
	assert.InDelta(t, 75, float64(p1.X), 1e-3)
	assert.Equal(t, float32(240), p1.Y, "landmarks never exceed the image size")
}

func TestMapToImageOrderAndClasses(t *testing.T) {
	boxes := []images.Rect{
		{X1: 0, Y1: 0, X2: 10, Y2: 10},
		{X1: 20, Y1: 20, X2: 30, Y2: 30},
		{X1: 40, Y1: 40, X2: 50, Y2: 50},
	}
	scores := []float32{0.5, 0.9, 0.7}

	detections := MapToImage([]int{1, 2, 0}, boxes, nil, scores, MapConfig{
		NetWidth:    100,
		NetHeight:   100,
		ImageWidth:  100,
		ImageHeight: 100,
		Labels:      Labels{"cat", "dog"},
		ClassIDs:    []int{0, 1, 5},
	})

	require.Len(t, detections, 3)
	// Output order matches the suppressor's keep order.
	assert.Equal(t, float32(0.9), detections[0].Confidence)
	assert.Equal(t, float32(0.7), detections[1].Confidence)
	assert.Equal(t, float32(0.5), detections[2].Confidence)

	assert.Equal(t, "dog", detections[0].Label)
	assert.Equal(t, "unknown_5", detections[1].Label, "out-of-table ids resolve to a synthetic name")
	assert.Equal(t, "cat", detections[2].Label)
}

func TestLabelsGet(t *testing.T) {
	l := Labels{"a", "b"}
	assert.Equal(t, "a", l.Get(0))
	assert.Equal(t, "b", l.Get(1))
	assert.Equal(t, "unknown_2", l.Get(2))
	assert.Equal(t, "unknown_-1", l.Get(-1))
}
