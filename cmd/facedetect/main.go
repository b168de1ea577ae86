// Command facedetect runs a face detection model over one image or a
// directory of images and prints the detections.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/GalyaZalesskaya/model-api/images"
	"github.com/GalyaZalesskaya/model-api/inference"
	"github.com/GalyaZalesskaya/model-api/models"
	"github.com/GalyaZalesskaya/model-api/models/faceboxes"
	"github.com/GalyaZalesskaya/model-api/models/model"
	"github.com/GalyaZalesskaya/model-api/models/retinaface"
)

func main() {
	var (
		modelPath   string
		libraryPath string
		modelName   string
		imagePath   string
		imageDir    string
		confidence  float64
		inputName   string
		inputShape  string
	)
	flag.StringVar(&modelPath, "model", "", "Path to the ONNX model file")
	flag.StringVar(&libraryPath, "ort-lib", "", "Path to the onnxruntime shared library (optional)")
	flag.StringVar(&modelName, "type", string(model.NameFaceBoxes), "Model type: faceboxes or retinaface-pytorch")
	flag.StringVar(&imagePath, "image", "", "Path to a JPEG or PNG image")
	flag.StringVar(&imageDir, "dir", "", "Directory of images to process instead of a single file")
	flag.Float64Var(&confidence, "confidence", 0, "Confidence threshold override (0 keeps the model default)")
	flag.StringVar(&inputName, "input-name", "input", "Name of the model input")
	flag.StringVar(&inputShape, "input-shape", "1,3,1024,1024", "Static input shape, comma separated")
	flag.Parse()

	if modelPath == "" {
		log.Fatal("-model is required")
	}
	if imagePath == "" && imageDir == "" {
		log.Fatal("one of -image or -dir is required")
	}

	shape, err := parseShape(inputShape)
	if err != nil {
		log.Fatalf("parsing -input-shape: %v", err)
	}

	outputs, err := outputShapes(model.Name(modelName), shape)
	if err != nil {
		log.Fatalf("describing outputs: %v", err)
	}

	session, err := inference.NewSession(inference.SessionConfig{
		ModelPath:   modelPath,
		LibraryPath: libraryPath,
		Input:       inference.TensorInfo{Name: inputName, Shape: shape},
		Outputs:     outputs,
	})
	if err != nil {
		log.Fatalf("loading model: %v", err)
	}
	defer session.Close()

	detector, err := models.NewDetector(session.Info(), models.DetectorConfig{
		Name:                model.Name(modelName),
		ConfidenceThreshold: float32(confidence),
	})
	if err != nil {
		log.Fatalf("configuring detector: %v", err)
	}

	paths := []string{imagePath}
	if imageDir != "" {
		paths, err = images.ListImages(imageDir)
		if err != nil {
			log.Fatalf("listing images: %v", err)
		}
	}

	for _, path := range paths {
		img, err := images.LoadImage(path)
		if err != nil {
			log.Fatalf("loading %s: %v", path, err)
		}

		detections, err := model.Detect(session, detector, img)
		if err != nil {
			log.Fatalf("detecting in %s: %v", path, err)
		}

		fmt.Printf("%s: %d detections\n", path, len(detections))
		for _, d := range detections {
			fmt.Printf("  %s\n", d)
		}
	}
}

// parseShape turns "1,3,1024,1024" into a shape slice.
func parseShape(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	shape := make([]int64, 0, len(parts))
	for _, p := range parts {
		var d int64
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &d); err != nil {
			return nil, fmt.Errorf("bad dimension %q", p)
		}
		shape = append(shape, d)
	}
	return shape, nil
}

// outputShapes derives the static output tensor descriptions from the input
// resolution, using each model family's default anchor configuration.
func outputShapes(name model.Name, input []int64) ([]inference.TensorInfo, error) {
	w, h, _, err := model.SpatialDims(input)
	if err != nil {
		return nil, err
	}

	switch name {
	case model.NameFaceBoxes:
		n := int64(faceboxes.DefaultConfig().Anchors.Count(w, h))
		return []inference.TensorInfo{
			{Name: "boxes", Shape: []int64{1, n, 4}},
			{Name: "scores", Shape: []int64{1, n, 2}},
		}, nil
	case model.NameRetinaFace:
		cfg := retinaface.DefaultConfig()
		n := int64(cfg.Anchors.Count(w, h))
		return []inference.TensorInfo{
			{Name: "boxes", Shape: []int64{1, n, 4}},
			{Name: "scores", Shape: []int64{1, n, 2}},
			{Name: "landmarks", Shape: []int64{1, n, int64(cfg.LandmarkCount * 2)}},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", name)
	}
}
