// static.go - Built-in reference table, the last lookup tier

package lookup

import (
	"sort"
	"strings"

	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

// fuzzyThreshold is the minimum similarity for a typo-tolerant table hit
const fuzzyThreshold = 0.75

var staticDrugs = map[string]models.DrugInfo{
	"paracetamol": {
		BrandName:            "Tylenol",
		GenericName:          "Paracetamol (Acetaminophen)",
		Manufacturer:         "Johnson & Johnson",
		ActiveIngredients:    "Acetaminophen 500mg",
		Purpose:              "Pain reliever and fever reducer",
		Warnings:             "Do not exceed recommended dose. Avoid alcohol. Consult doctor if symptoms persist.",
		DosageAdministration: "Adults and children 12 years and over: 2 tablets every 4-6 hours as needed",
		PregnancyRisk:        "Category B - No evidence of risk in humans",
	},
	"ibuprofen": {
		BrandName:            "Advil",
		GenericName:          "Ibuprofen",
		Manufacturer:         "Pfizer",
		ActiveIngredients:    "Ibuprofen 200mg",
		Purpose:              "Pain reliever, fever reducer, anti-inflammatory",
		Warnings:             "May cause stomach bleeding. Do not use if you have heart disease. Consult doctor before use if pregnant.",
		DosageAdministration: "Adults and children 12 years and over: 1 tablet every 4-6 hours while symptoms persist",
		PregnancyRisk:        "Category D - Positive evidence of risk",
	},
	"amoxicillin": {
		BrandName:            "Amoxil",
		GenericName:          "Amoxicillin",
		Manufacturer:         "GlaxoSmithKline",
		ActiveIngredients:    "Amoxicillin trihydrate equivalent to 500mg amoxicillin",
		Purpose:              "Antibiotic - treats bacterial infections",
		Warnings:             "May cause allergic reactions. Complete the prescribed course. May cause diarrhea.",
		DosageAdministration: "Adults: 250-500mg every 8 hours or as prescribed by doctor",
		PregnancyRisk:        "Category B - No evidence of risk in humans",
	},
}

// matchReference finds name in table: exact key first, then substring in
// either direction, then the closest key above fuzzyThreshold
func matchReference(table map[string]models.DrugInfo, name string) (models.DrugInfo, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return models.DrugInfo{}, false
	}
	if info, ok := table[key]; ok {
		return info, true
	}

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		best      string
		bestScore float64
	)
	for _, k := range keys {
		if strings.Contains(k, key) || strings.Contains(key, k) {
			return table[k], true
		}
		if s := similarity(k, key); s > bestScore {
			best, bestScore = k, s
		}
	}
	if bestScore >= fuzzyThreshold {
		return table[best], true
	}
	return models.DrugInfo{}, false
}

// StaticLookup searches the built-in table
func StaticLookup(name string) (*models.DrugInfo, bool) {
	info, ok := matchReference(staticDrugs, name)
	if !ok {
		return nil, false
	}
	info.Source = models.SourceFallback
	return &info, true
}
