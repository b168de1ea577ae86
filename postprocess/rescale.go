package postprocess

import "github.com/GalyaZalesskaya/model-api/images"

// MapConfig parameterizes the mapping of decoded boxes from network
// input-pixel space back to original image coordinates.
type MapConfig struct {
	// NetWidth, NetHeight is the network input resolution.
	NetWidth, NetHeight int
	// ImageWidth, ImageHeight is the original image resolution.
	ImageWidth, ImageHeight int
	// Labels resolves class ids to names.
	Labels Labels
	// ClassIDs are per-candidate class ids, parallel to the boxes slice.
	// Nil means single-class (id 0), the face-detector case.
	ClassIDs []int
}

// MapToImage rescales the kept boxes and landmarks into original image
// coordinates and packages them as Detections. The independent per-axis
// scale factor is netInput/original, so mapping back is a division. Every
// coordinate is clamped into [0, originalDimension]. Output order follows
// keep, which is the suppressor's descending-confidence order.
func MapToImage(keep []int, boxes []images.Rect, landmarks [][]images.Point, scores []float32, cfg MapConfig) []Detection {
	imgW := float32(cfg.ImageWidth)
	imgH := float32(cfg.ImageHeight)
	scaleX := float32(cfg.NetWidth) / imgW
	scaleY := float32(cfg.NetHeight) / imgH

	detections := make([]Detection, 0, len(keep))
	for _, i := range keep {
		labelID := 0
		if cfg.ClassIDs != nil {
			labelID = cfg.ClassIDs[i]
		}

		d := Detection{
			LabelID:    labelID,
			Label:      cfg.Labels.Get(labelID),
			Confidence: scores[i],
			Box: images.Rect{
				X1: images.Clamp(boxes[i].X1/scaleX, 0, imgW),
				Y1: images.Clamp(boxes[i].Y1/scaleY, 0, imgH),
				X2: images.Clamp(boxes[i].X2/scaleX, 0, imgW),
				Y2: images.Clamp(boxes[i].Y2/scaleY, 0, imgH),
			},
		}

		if landmarks != nil {
			points := make([]images.Point, len(landmarks[i]))
			for j, p := range landmarks[i] {
				points[j] = images.Point{
					X: images.Clamp(p.X/scaleX, 0, imgW),
					Y: images.Clamp(p.Y/scaleY, 0, imgH),
				}
			}
			d.Landmarks = points
		}

		detections = append(detections, d)
	}

	return detections
}
