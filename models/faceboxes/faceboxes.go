// Package faceboxes - Wrapper for the FaceBoxes face detector.
//
// FaceBoxes produces two outputs: box regression deltas of shape (1, N, 4)
// and interleaved (background, foreground) scores of shape (1, N, 2), where
// N is the size of the densified anchor grid for the network input
// resolution.
package faceboxes

import (
	"github.com/pkg/errors"

	"github.com/GalyaZalesskaya/model-api/anchors"
	"github.com/GalyaZalesskaya/model-api/images"
	"github.com/GalyaZalesskaya/model-api/inference"
	"github.com/GalyaZalesskaya/model-api/models/model"
	"github.com/GalyaZalesskaya/model-api/postprocess"
	"github.com/GalyaZalesskaya/model-api/tensors"
)

// Config holds the decoding parameters of a FaceBoxes model.
type Config struct {
	// ConfidenceThreshold drops anchors at or below this foreground score.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// IoUThreshold is the overlap above which NMS suppresses a box.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// Variance are the regression normalization constants from training.
	Variance postprocess.Variance `json:"variance" yaml:"variance"`
	// Labels are the class names; FaceBoxes is single class.
	Labels postprocess.Labels `json:"labels" yaml:"labels"`
	// Anchors describes the anchor pyramid.
	Anchors anchors.Config `json:"anchors" yaml:"anchors"`
}

// DefaultConfig returns the decoding parameters the public FaceBoxes
// checkpoints were trained with.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.5,
		IoUThreshold:        0.3,
		Variance:            postprocess.DefaultVariance,
		Labels:              postprocess.Labels{"Face"},
		Anchors: anchors.Config{
			Steps:          []int{32, 64, 128},
			MinSizes:       [][]int{{32, 64, 128}, {256}, {512}},
			DenseZeroLevel: true,
		},
	}
}

// Model decodes FaceBoxes outputs into detections.
type Model struct {
	cfg       Config
	netWidth  int
	netHeight int

	boxesName  string
	scoresName string

	priors []images.Rect
}

// New validates the model topology against the configuration and builds the
// anchor grid. The grid is computed once here and shared by all Postprocess
// calls.
func New(info inference.ModelInfo, cfg Config) (*Model, error) {
	if err := cfg.Anchors.Validate(); err != nil {
		return nil, errors.Wrap(err, "faceboxes anchor config")
	}
	if cfg.IoUThreshold <= 0 || cfg.IoUThreshold > 1 {
		return nil, errors.Errorf("iou threshold must be in (0, 1], got %f", cfg.IoUThreshold)
	}

	w, h, err := model.SingleImageInput(info, 3)
	if err != nil {
		return nil, errors.Wrap(err, "faceboxes")
	}

	if len(info.Outputs) != 2 {
		return nil, errors.Errorf("faceboxes expects models with 2 outputs, got %d", len(info.Outputs))
	}
	// Role assignment follows lexicographic output-name order: boxes sort
	// before scores for every known export of this model.
	names := info.OutputNames()
	boxesInfo, _ := info.Output(names[0])
	scoresInfo, _ := info.Output(names[1])

	if n := len(boxesInfo.Shape); n < 2 || boxesInfo.Shape[n-1] != 4 {
		return nil, errors.Errorf("boxes output %q must end in 4 coordinates, shape is %v", boxesInfo.Name, boxesInfo.Shape)
	}
	if n := len(scoresInfo.Shape); n < 2 || scoresInfo.Shape[n-1] != 2 {
		return nil, errors.Errorf("scores output %q must end in 2 confidences, shape is %v", scoresInfo.Name, scoresInfo.Shape)
	}

	priors := anchors.Generate(cfg.Anchors, w, h)
	proposals := int(boxesInfo.Shape[len(boxesInfo.Shape)-2])
	if proposals != len(priors) {
		return nil, errors.Errorf("model yields %d proposals but the anchor grid for %dx%d has %d",
			proposals, w, h, len(priors))
	}

	return &Model{
		cfg:        cfg,
		netWidth:   w,
		netHeight:  h,
		boxesName:  boxesInfo.Name,
		scoresName: scoresInfo.Name,
		priors:     priors,
	}, nil
}

// InputSize implements model.Detector.
func (m *Model) InputSize() (int, int) { return m.netWidth, m.netHeight }

// Postprocess implements model.Detector. No detections above the confidence
// threshold is a valid empty result.
func (m *Model) Postprocess(outputs tensors.Outputs, imageWidth, imageHeight int) ([]postprocess.Detection, error) {
	boxesView, err := outputs.Get(m.boxesName)
	if err != nil {
		return nil, err
	}
	scoresView, err := outputs.Get(m.scoresName)
	if err != nil {
		return nil, err
	}
	if got, want := len(boxesView.Data()), len(m.priors)*4; got != want {
		return nil, errors.Errorf("boxes output holds %d floats, anchor grid needs %d", got, want)
	}
	if got, want := len(scoresView.Data()), len(m.priors)*2; got != want {
		return nil, errors.Errorf("scores output holds %d floats, anchor grid needs %d", got, want)
	}

	candidates := postprocess.FilterScores(scoresView.Data(), postprocess.ScoresInterleaved, m.cfg.ConfidenceThreshold)
	boxes := postprocess.DecodeBoxes(boxesView.Data(), m.priors, candidates, m.cfg.Variance)

	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Score
	}

	keep := postprocess.NMS(boxes, scores, m.cfg.IoUThreshold)

	return postprocess.MapToImage(keep, boxes, nil, scores, postprocess.MapConfig{
		NetWidth:    m.netWidth,
		NetHeight:   m.netHeight,
		ImageWidth:  imageWidth,
		ImageHeight: imageHeight,
		Labels:      m.cfg.Labels,
	}), nil
}
