// Package model - Shared contracts and setup-time validation helpers for
// the model wrappers.
package model

import (
	"image"

	"github.com/pkg/errors"

	"github.com/GalyaZalesskaya/model-api/inference"
	"github.com/GalyaZalesskaya/model-api/postprocess"
	"github.com/GalyaZalesskaya/model-api/tensors"
)

// Name is the unique identifier of a model wrapper.
type Name string

const (
	// NameFaceBoxes is the FaceBoxes face detector.
	NameFaceBoxes Name = "faceboxes"
	// NameRetinaFace is the PyTorch-converted RetinaFace face detector.
	NameRetinaFace Name = "retinaface-pytorch"
	// NameSuperResolution is the single-image super-resolution wrapper.
	NameSuperResolution Name = "super_resolution"
)

// Detector turns one inference result into detections in original-image
// coordinates. Implementations are stateless per call: the only shared state
// is a write-once anchor table, so a Detector may be used from concurrent
// goroutines as long as each call brings its own output views.
type Detector interface {
	// InputSize returns the network input resolution the wrapper was
	// configured for.
	InputSize() (width, height int)
	// Postprocess decodes one inference result. imageWidth/imageHeight is
	// the original image resolution the detections are mapped back to.
	Postprocess(outputs tensors.Outputs, imageWidth, imageHeight int) ([]postprocess.Detection, error)
}

// Detect runs the full preprocess → infer → postprocess pipeline for one
// image. Convenience for callers that own both an adapter and a wrapper.
func Detect(a inference.Adapter, d Detector, img image.Image) ([]postprocess.Detection, error) {
	w, h := d.InputSize()
	input := make([]float32, 3*w*h)
	if err := inference.PrepareInput(img, w, h, input); err != nil {
		return nil, errors.Wrap(err, "preparing network input")
	}

	outputs, err := a.Infer(input)
	if err != nil {
		return nil, errors.Wrap(err, "running inference")
	}

	bounds := img.Bounds().Canon()
	return d.Postprocess(outputs, bounds.Dx(), bounds.Dy())
}

// SpatialDims extracts (width, height, channels) from a 4D input shape,
// accepting NCHW or NHWC layouts. Layouts it cannot tell apart are a
// configuration error.
func SpatialDims(shape []int64) (width, height, channels int, err error) {
	if len(shape) != 4 {
		return 0, 0, 0, errors.Errorf("input must have 4 dimensions, got %v", shape)
	}
	switch {
	case shape[1] == 1 || shape[1] == 3:
		// NCHW
		return int(shape[3]), int(shape[2]), int(shape[1]), nil
	case shape[3] == 1 || shape[3] == 3:
		// NHWC
		return int(shape[2]), int(shape[1]), int(shape[3]), nil
	default:
		return 0, 0, 0, errors.Errorf("cannot infer layout of input shape %v", shape)
	}
}

// SingleImageInput validates that the model has exactly one image input
// with the wanted channel count and returns its spatial resolution.
func SingleImageInput(info inference.ModelInfo, wantChannels int) (width, height int, err error) {
	if len(info.Inputs) != 1 {
		return 0, 0, errors.Errorf("expected a model with 1 input, got %d", len(info.Inputs))
	}
	w, h, c, err := SpatialDims(info.Inputs[0].Shape)
	if err != nil {
		return 0, 0, err
	}
	if c != wantChannels {
		return 0, 0, errors.Errorf("expected %d-channel input, got %d", wantChannels, c)
	}
	return w, h, nil
}
