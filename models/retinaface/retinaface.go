// Package retinaface - Wrapper for PyTorch-converted RetinaFace face
// detectors.
//
// RetinaFace produces three outputs per anchor: box regression deltas
// (1, N, 4), interleaved (background, foreground) scores (1, N, 2) and
// facial landmark deltas (1, N, 2*points). The anchor grid is the plain
// layout: one centered anchor per cell per min size on every pyramid level.
package retinaface

import (
	"github.com/pkg/errors"

	"github.com/GalyaZalesskaya/model-api/anchors"
	"github.com/GalyaZalesskaya/model-api/images"
	"github.com/GalyaZalesskaya/model-api/inference"
	"github.com/GalyaZalesskaya/model-api/models/model"
	"github.com/GalyaZalesskaya/model-api/postprocess"
	"github.com/GalyaZalesskaya/model-api/tensors"
)

// Config holds the decoding parameters of a RetinaFace model.
type Config struct {
	// ConfidenceThreshold drops anchors at or below this foreground score.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// IoUThreshold is the overlap above which NMS suppresses a box.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// Variance are the regression normalization constants from training.
	Variance postprocess.Variance `json:"variance" yaml:"variance"`
	// Labels are the class names; RetinaFace is single class.
	Labels postprocess.Labels `json:"labels" yaml:"labels"`
	// LandmarkCount is the number of facial landmarks per detection.
	LandmarkCount int `json:"landmark_count" yaml:"landmark_count"`
	// Anchors describes the anchor pyramid.
	Anchors anchors.Config `json:"anchors" yaml:"anchors"`
}

// DefaultConfig returns the decoding parameters of the mobilenet and
// resnet50 RetinaFace checkpoints.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.5,
		IoUThreshold:        0.5,
		Variance:            postprocess.DefaultVariance,
		Labels:              postprocess.Labels{"Face"},
		LandmarkCount:       5,
		Anchors: anchors.Config{
			Steps:    []int{8, 16, 32},
			MinSizes: [][]int{{16, 32}, {64, 128}, {256, 512}},
		},
	}
}

// Model decodes RetinaFace outputs into detections with landmarks.
type Model struct {
	cfg       Config
	netWidth  int
	netHeight int

	boxesName     string
	landmarksName string
	scoresName    string

	priors []images.Rect
}

// New validates the model topology against the configuration and builds the
// anchor grid.
func New(info inference.ModelInfo, cfg Config) (*Model, error) {
	if err := cfg.Anchors.Validate(); err != nil {
		return nil, errors.Wrap(err, "retinaface anchor config")
	}
	if cfg.LandmarkCount <= 0 {
		return nil, errors.Errorf("landmark count must be positive, got %d", cfg.LandmarkCount)
	}

	w, h, err := model.SingleImageInput(info, 3)
	if err != nil {
		return nil, errors.Wrap(err, "retinaface")
	}

	if len(info.Outputs) != 3 {
		return nil, errors.Errorf("retinaface expects models with 3 outputs, got %d", len(info.Outputs))
	}
	// Role assignment follows lexicographic output-name order; for the known
	// exports the names sort as boxes, landmarks, scores.
	names := info.OutputNames()
	boxesInfo, _ := info.Output(names[0])
	landmarksInfo, _ := info.Output(names[1])
	scoresInfo, _ := info.Output(names[2])

	if n := len(boxesInfo.Shape); n < 2 || boxesInfo.Shape[n-1] != 4 {
		return nil, errors.Errorf("boxes output %q must end in 4 coordinates, shape is %v", boxesInfo.Name, boxesInfo.Shape)
	}
	if n := len(scoresInfo.Shape); n < 2 || scoresInfo.Shape[n-1] != 2 {
		return nil, errors.Errorf("scores output %q must end in 2 confidences, shape is %v", scoresInfo.Name, scoresInfo.Shape)
	}
	if n := len(landmarksInfo.Shape); n < 2 || landmarksInfo.Shape[n-1] != int64(cfg.LandmarkCount*2) {
		return nil, errors.Errorf("landmarks output %q must end in %d values, shape is %v",
			landmarksInfo.Name, cfg.LandmarkCount*2, landmarksInfo.Shape)
	}

	priors := anchors.Generate(cfg.Anchors, w, h)
	proposals := int(boxesInfo.Shape[len(boxesInfo.Shape)-2])
	if proposals != len(priors) {
		return nil, errors.Errorf("model yields %d proposals but the anchor grid for %dx%d has %d",
			proposals, w, h, len(priors))
	}

	return &Model{
		cfg:           cfg,
		netWidth:      w,
		netHeight:     h,
		boxesName:     boxesInfo.Name,
		landmarksName: landmarksInfo.Name,
		scoresName:    scoresInfo.Name,
		priors:        priors,
	}, nil
}

// InputSize implements model.Detector.
func (m *Model) InputSize() (int, int) { return m.netWidth, m.netHeight }

// Postprocess implements model.Detector.
func (m *Model) Postprocess(outputs tensors.Outputs, imageWidth, imageHeight int) ([]postprocess.Detection, error) {
	boxesView, err := outputs.Get(m.boxesName)
	if err != nil {
		return nil, err
	}
	scoresView, err := outputs.Get(m.scoresName)
	if err != nil {
		return nil, err
	}
	landmarksView, err := outputs.Get(m.landmarksName)
	if err != nil {
		return nil, err
	}
	if got, want := len(boxesView.Data()), len(m.priors)*4; got != want {
		return nil, errors.Errorf("boxes output holds %d floats, anchor grid needs %d", got, want)
	}
	if got, want := len(scoresView.Data()), len(m.priors)*2; got != want {
		return nil, errors.Errorf("scores output holds %d floats, anchor grid needs %d", got, want)
	}
	if got, want := len(landmarksView.Data()), len(m.priors)*m.cfg.LandmarkCount*2; got != want {
		return nil, errors.Errorf("landmarks output holds %d floats, anchor grid needs %d", got, want)
	}

	candidates := postprocess.FilterScores(scoresView.Data(), postprocess.ScoresInterleaved, m.cfg.ConfidenceThreshold)
	boxes := postprocess.DecodeBoxes(boxesView.Data(), m.priors, candidates, m.cfg.Variance)
	landmarks := postprocess.DecodeLandmarks(landmarksView.Data(), m.priors, candidates, m.cfg.Variance, m.cfg.LandmarkCount)

	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Score
	}

	keep := postprocess.NMS(boxes, scores, m.cfg.IoUThreshold)

	return postprocess.MapToImage(keep, boxes, landmarks, scores, postprocess.MapConfig{
		NetWidth:    m.netWidth,
		NetHeight:   m.netHeight,
		ImageWidth:  imageWidth,
		ImageHeight: imageHeight,
		Labels:      m.cfg.Labels,
	}), nil
}
