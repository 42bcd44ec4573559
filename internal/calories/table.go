// Package calories maps detected food labels to calorie estimates.
package calories

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Table maps a model class name to kilocalories per 100 g. Keys must match
// the class names in the model metadata exactly.
type Table map[string]int

var defaultTable = Table{
	"Ayam Goreng":    245,
	"Ikan Goreng":    198,
	"Mie Goreng":     150,
	"Nasi Goreng":    170,
	"Nasi Putih":     130,
	"Rendang Sapi":   195,
	"Tahu Goreng":    115,
	"TelurGoreng":    190,
	"Tempe Goreng":   192,
	"Terong Balado":  90,
	"Tumis Kangkung": 45,
}

// Default returns a copy of the built-in table.
func Default() Table {
	t := make(Table, len(defaultTable))
	for label, kcal := range defaultTable {
		t[label] = kcal
	}
	return t
}

// LoadTable returns the built-in table with entries from the JSON object at
// path merged over it. An empty path yields the built-in table.
func LoadTable(path string) (Table, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calorie table: %w", err)
	}

	var overrides map[string]int
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse calorie table: %w", err)
	}
	for label, kcal := range overrides {
		if kcal < 0 {
			return nil, fmt.Errorf("calorie table entry %q is negative: %d", label, kcal)
		}
		t[label] = kcal
	}
	return t, nil
}

// Lookup returns the kcal per 100 g for label.
func (t Table) Lookup(label string) (int, bool) {
	kcal, ok := t[label]
	return kcal, ok
}

type Food struct {
	Label           string `json:"label"`
	CaloriesPer100g int    `json:"kalori_per_100g"`
}

// Foods lists the table sorted by label.
func (t Table) Foods() []Food {
	foods := make([]Food, 0, len(t))
	for label, kcal := range t {
		foods = append(foods, Food{Label: label, CaloriesPer100g: kcal})
	}
	sort.Slice(foods, func(i, j int) bool { return foods[i].Label < foods[j].Label })
	return foods
}
