package postprocess

import (
	"sort"

	"github.com/GalyaZalesskaya/model-api/images"
)

// NMS performs greedy Non-Maximum Suppression over parallel box/score
// slices and returns the surviving indices in descending-score order.
// Score ties are broken by ascending original index so the result is
// deterministic. Zero-area boxes have IoU 0 against everything and are
// never suppressed by overlap.
//
// O(n^2) worst case, acceptable because score filtering has already reduced
// n to a small candidate set.
func NMS(boxes []images.Rect, scores []float32, iouThreshold float32) []int {
	n := len(boxes)
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})

	keep := make([]int, 0, n)
	suppressed := make([]bool, n)

	for i := 0; i < n; i++ {
		idx := order[i]
		if suppressed[idx] {
			continue
		}
		keep = append(keep, idx)

		for j := i + 1; j < n; j++ {
			other := order[j]
			if suppressed[other] {
				continue
			}
			if images.CalculateIoU(boxes[idx], boxes[other]) > iouThreshold {
				suppressed[other] = true
			}
		}
	}

	return keep
}
