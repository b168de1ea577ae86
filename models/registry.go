// Package models - Factory over the supported model wrappers.
package models

import (
	"github.com/pkg/errors"

	"github.com/GalyaZalesskaya/model-api/inference"
	"github.com/GalyaZalesskaya/model-api/models/faceboxes"
	"github.com/GalyaZalesskaya/model-api/models/model"
	"github.com/GalyaZalesskaya/model-api/models/retinaface"
	"github.com/GalyaZalesskaya/model-api/postprocess"
)

// DetectorConfig selects a detector wrapper and optionally overrides its
// trained defaults. Zero values keep the model's own defaults.
type DetectorConfig struct {
	// Name picks the wrapper.
	Name model.Name `json:"name" yaml:"name"`
	// ConfidenceThreshold overrides the score cutoff when positive.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// IoUThreshold overrides the NMS overlap cutoff when positive.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// Labels overrides the class names when non-nil.
	Labels postprocess.Labels `json:"labels" yaml:"labels"`
}

// DetectorNames lists the names NewDetector accepts.
func DetectorNames() []model.Name {
	return []model.Name{model.NameFaceBoxes, model.NameRetinaFace}
}

// NewDetector builds a detector wrapper for a loaded model.
func NewDetector(info inference.ModelInfo, cfg DetectorConfig) (model.Detector, error) {
	switch cfg.Name {
	case model.NameFaceBoxes:
		c := faceboxes.DefaultConfig()
		if cfg.ConfidenceThreshold > 0 {
			c.ConfidenceThreshold = cfg.ConfidenceThreshold
		}
		if cfg.IoUThreshold > 0 {
			c.IoUThreshold = cfg.IoUThreshold
		}
		if cfg.Labels != nil {
			c.Labels = cfg.Labels
		}
		return faceboxes.New(info, c)

	case model.NameRetinaFace:
		c := retinaface.DefaultConfig()
		if cfg.ConfidenceThreshold > 0 {
			c.ConfidenceThreshold = cfg.ConfidenceThreshold
		}
		if cfg.IoUThreshold > 0 {
			c.IoUThreshold = cfg.IoUThreshold
		}
		if cfg.Labels != nil {
			c.Labels = cfg.Labels
		}
		return retinaface.New(info, c)

	default:
		return nil, errors.Errorf("unsupported detector %q", cfg.Name)
	}
}
