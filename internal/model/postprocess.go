package model

import (
	"sort"
)

// DecodeOutput turns the raw [4+C, N] output into candidate detections in
// original image coordinates. Each anchor keeps its best-scoring class when
// that score reaches the confidence threshold.
func DecodeOutput(output []float32, classes []string, anchors int, threshold float32, lb Letterbox) []Detection {
	numClasses := len(classes)
	if len(output) < (4+numClasses)*anchors {
		return nil
	}

	var detections []Detection
	for i := 0; i < anchors; i++ {
		bestClass := -1
		var bestScore float32
		for c := 0; c < numClasses; c++ {
			score := output[(4+c)*anchors+i]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestClass < 0 || bestScore < threshold {
			continue
		}

		cx := output[i]
		cy := output[anchors+i]
		w := output[2*anchors+i]
		h := output[3*anchors+i]
		box := lb.Unmap(Box{
			X1: cx - w/2,
			Y1: cy - h/2,
			X2: cx + w/2,
			Y2: cy + h/2,
		})
		if box.area() == 0 {
			continue
		}

		detections = append(detections, Detection{
			ClassID:    bestClass,
			Label:      classes[bestClass],
			Confidence: bestScore,
			Box:        box,
		})
	}
	return detections
}

// NonMaxSuppression drops boxes that overlap a higher-confidence box of the
// same class by more than iouThreshold. The result is sorted by confidence,
// highest first, and holds at most maxDetections entries (0 means no cap).
func NonMaxSuppression(detections []Detection, iouThreshold float32, maxDetections int) []Detection {
	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Detection, 0, len(sorted))
	suppressed := make([]bool, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		if maxDetections > 0 && len(kept) == maxDetections {
			break
		}
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].ClassID != sorted[i].ClassID {
				continue
			}
			if IoU(sorted[i].Box, sorted[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

// IoU is the intersection-over-union of two boxes.
func IoU(a, b Box) float32 {
	inter := Box{
		X1: max(a.X1, b.X1),
		Y1: max(a.Y1, b.Y1),
		X2: min(a.X2, b.X2),
		Y2: min(a.Y2, b.Y2),
	}.area()
	if inter == 0 {
		return 0
	}
	return inter / (a.area() + b.area() - inter)
}
