package postprocess

// ScoreLayout describes how per-anchor confidences are laid out in the score
// tensor; the detector families differ here.
type ScoreLayout int

const (
	// ScoresInterleaved is (background, foreground) pairs per anchor; the
	// foreground score is the odd element of each pair.
	ScoresInterleaved ScoreLayout = iota
	// ScoresSingle is one foreground score per anchor.
	ScoresSingle
)

// FilterScores selects the anchors whose foreground confidence exceeds the
// threshold. Candidates come back in ascending anchor-index order, not score
// order. An empty result is a valid outcome, not an error.
func FilterScores(scores []float32, layout ScoreLayout, threshold float32) []Candidate {
	stride := 1
	offset := 0
	if layout == ScoresInterleaved {
		stride = 2
		offset = 1
	}

	candidates := make([]Candidate, 0, initCandidateCapacity)
	for i := offset; i < len(scores); i += stride {
		if scores[i] > threshold {
			candidates = append(candidates, Candidate{Index: i / stride, Score: scores[i]})
		}
	}
	return candidates
}

// initCandidateCapacity hints the per-call scratch allocation; score
// filtering rarely passes more than a couple hundred anchors.
const initCandidateCapacity = 200
