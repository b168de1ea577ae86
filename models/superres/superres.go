// Package superres - Wrapper for single-image super-resolution models.
//
// The output is a (1, C, H, W) plane tensor with values in [0, 1]. Three
// planes reassemble into an RGB image; a single plane is thresholded into a
// binary mask, which is how the text-image variants of these models are
// consumed.
package superres

import (
	"image"
	"image/color"

	"github.com/pkg/errors"

	"github.com/GalyaZalesskaya/model-api/images"
	"github.com/GalyaZalesskaya/model-api/inference"
	"github.com/GalyaZalesskaya/model-api/models/model"
	"github.com/GalyaZalesskaya/model-api/tensors"
)

// binaryThreshold splits single-plane outputs into foreground/background.
const binaryThreshold = 0.5

// Model reassembles super-resolution outputs into images.
type Model struct {
	netWidth  int
	netHeight int

	outputName string
	outWidth   int
	outHeight  int
	channels   int
}

// New validates the model topology. One- and two-input topologies are
// supported; the optional second input takes a bicubically upscaled copy of
// the source image.
func New(info inference.ModelInfo) (*Model, error) {
	if len(info.Inputs) != 1 && len(info.Inputs) != 2 {
		return nil, errors.Errorf("super resolution supports topologies with 1 or 2 inputs only, got %d", len(info.Inputs))
	}
	w, h, _, err := model.SpatialDims(info.Inputs[0].Shape)
	if err != nil {
		return nil, errors.Wrap(err, "super resolution")
	}

	if len(info.Outputs) != 1 {
		return nil, errors.Errorf("super resolution expects models with 1 output, got %d", len(info.Outputs))
	}
	out := info.Outputs[0]
	ow, oh, oc, err := model.SpatialDims(out.Shape)
	if err != nil {
		return nil, errors.Wrapf(err, "super resolution output %q", out.Name)
	}

	return &Model{
		netWidth:   w,
		netHeight:  h,
		outputName: out.Name,
		outWidth:   ow,
		outHeight:  oh,
		channels:   oc,
	}, nil
}

// InputSize returns the network input resolution.
func (m *Model) InputSize() (int, int) { return m.netWidth, m.netHeight }

// OutputSize returns the upscaled output resolution.
func (m *Model) OutputSize() (int, int) { return m.outWidth, m.outHeight }

// Postprocess reassembles one inference result into an image.
func (m *Model) Postprocess(outputs tensors.Outputs) (image.Image, error) {
	view, err := outputs.Get(m.outputName)
	if err != nil {
		return nil, err
	}
	plane := m.outWidth * m.outHeight
	if got, want := len(view.Data()), plane*m.channels; got != want {
		return nil, errors.Errorf("output holds %d floats, %dx%dx%d needs %d",
			got, m.channels, m.outHeight, m.outWidth, want)
	}

	if m.channels == 1 {
		return m.binaryImage(view.Data()), nil
	}
	return m.rgbImage(view.Data()), nil
}

// rgbImage merges three [0, 1] planes in RGB order into an RGBA image.
func (m *Model) rgbImage(data []float32) *image.RGBA {
	plane := m.outWidth * m.outHeight
	img := image.NewRGBA(image.Rect(0, 0, m.outWidth, m.outHeight))

	i := 0
	for y := 0; y < m.outHeight; y++ {
		for x := 0; x < m.outWidth; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: planeByte(data[i]),
				G: planeByte(data[plane+i]),
				B: planeByte(data[2*plane+i]),
				A: 255,
			})
			i++
		}
	}
	return img
}

// binaryImage thresholds a single plane into a black and white mask.
func (m *Model) binaryImage(data []float32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.outWidth, m.outHeight))

	i := 0
	for y := 0; y < m.outHeight; y++ {
		for x := 0; x < m.outWidth; x++ {
			v := uint8(0)
			if data[i] > binaryThreshold {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
			i++
		}
	}
	return img
}

func planeByte(v float32) uint8 {
	return uint8(images.Clamp(v, 0, 1)*255 + 0.5)
}
