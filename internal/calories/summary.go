package calories

import (
	"math"

	"github.com/Brownie44l1/food-calorie-api/internal/model"
)

// Item is one detected food in a prediction response. CaloriesPer100g is nil
// when the label has no table entry.
type Item struct {
	Label           string     `json:"label"`
	Confidence      float64    `json:"confidence"`
	CaloriesPer100g *int       `json:"kalori_per_100g"`
	Box             *model.Box `json:"box,omitempty"`
}

type Summary struct {
	Items         []Item
	TotalCalories int
}

// Summarize builds the response items for detections and sums the calories
// of every detection with a table entry. Repeated labels count once per box.
func (t Table) Summarize(detections []model.Detection) Summary {
	summary := Summary{Items: make([]Item, 0, len(detections))}

	for _, det := range detections {
		item := Item{
			Label:      det.Label,
			Confidence: roundConfidence(det.Confidence),
		}
		box := det.Box
		item.Box = &box

		if kcal, ok := t.Lookup(det.Label); ok {
			item.CaloriesPer100g = &kcal
			summary.TotalCalories += kcal
		}
		summary.Items = append(summary.Items, item)
	}

	return summary
}

// roundConfidence rounds to two decimals.
func roundConfidence(c float32) float64 {
	return math.Round(float64(c)*100) / 100
}
