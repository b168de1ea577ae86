package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// PrepareInput resizes img to the network input resolution and fills data
// with NCHW RGB planes normalized to [0, 1]. data must hold at least
// 3*width*height floats.
func PrepareInput(img image.Image, width, height int, data []float32) error {
	return fillPlanes(img, width, height, data, resize.Lanczos3)
}

// PrepareBicubic is PrepareInput with bicubic interpolation, used for the
// upscaled second input of two-input super-resolution models.
func PrepareBicubic(img image.Image, width, height int, data []float32) error {
	return fillPlanes(img, width, height, data, resize.Bicubic)
}

func fillPlanes(img image.Image, width, height int, data []float32, interp resize.InterpolationFunction) error {
	channelSize := width * height
	if len(data) < channelSize*3 {
		return errors.Errorf("destination buffer only holds %d floats, needs %d (make sure it's the right shape!)",
			len(data), channelSize*3)
	}
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	img = resize.Resize(uint(width), uint(height), img, interp)

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
