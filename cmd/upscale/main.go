// Command upscale runs a super-resolution model over one image through the
// OpenCV DNN backend and writes the upscaled result as PNG.
package main

import (
	"flag"
	"image/png"
	"log"
	"os"

	"github.com/GalyaZalesskaya/model-api/images"
	"github.com/GalyaZalesskaya/model-api/inference"
	"github.com/GalyaZalesskaya/model-api/models/superres"
)

func main() {
	var (
		modelPath  string
		imagePath  string
		outPath    string
		inputName  string
		netWidth   int
		netHeight  int
		outWidth   int
		outHeight  int
		outputName string
	)
	flag.StringVar(&modelPath, "model", "", "Path to the model file")
	flag.StringVar(&imagePath, "image", "", "Path to a JPEG or PNG image")
	flag.StringVar(&outPath, "out", "upscaled.png", "Output PNG path")
	flag.StringVar(&inputName, "input-name", "input", "Name of the model input")
	flag.IntVar(&netWidth, "width", 480, "Network input width")
	flag.IntVar(&netHeight, "height", 270, "Network input height")
	flag.IntVar(&outWidth, "out-width", 1920, "Network output width")
	flag.IntVar(&outHeight, "out-height", 1080, "Network output height")
	flag.StringVar(&outputName, "output-name", "upscaled", "Name of the model output")
	flag.Parse()

	if modelPath == "" || imagePath == "" {
		log.Fatal("-model and -image are required")
	}

	adapter, err := inference.NewDNNAdapter(inference.DNNConfig{
		ModelPath: modelPath,
		Input:     inference.TensorInfo{Name: inputName, Shape: []int64{1, 3, int64(netHeight), int64(netWidth)}},
		Outputs: []inference.TensorInfo{
			{Name: outputName, Shape: []int64{1, 3, int64(outHeight), int64(outWidth)}},
		},
	})
	if err != nil {
		log.Fatalf("loading model: %v", err)
	}
	defer adapter.Close()

	model, err := superres.New(adapter.Info())
	if err != nil {
		log.Fatalf("configuring model: %v", err)
	}

	img, err := images.LoadImage(imagePath)
	if err != nil {
		log.Fatalf("loading image: %v", err)
	}

	input := make([]float32, 3*netWidth*netHeight)
	if err := inference.PrepareInput(img, netWidth, netHeight, input); err != nil {
		log.Fatalf("preparing input: %v", err)
	}

	outputs, err := adapter.Infer(input)
	if err != nil {
		log.Fatalf("running inference: %v", err)
	}

	upscaled, err := model.Postprocess(outputs)
	if err != nil {
		log.Fatalf("reassembling output: %v", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("creating %s: %v", outPath, err)
	}
	defer f.Close()
	if err := png.Encode(f, upscaled); err != nil {
		log.Fatalf("encoding %s: %v", outPath, err)
	}
	log.Printf("wrote %s (%dx%d)", outPath, upscaled.Bounds().Dx(), upscaled.Bounds().Dy())
}
