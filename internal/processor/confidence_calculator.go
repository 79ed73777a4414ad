// confidence_calculator.go - Display confidence normalisation
//
// Confidence comes from the model's own rubric. It is shown to the user and
// never used to decide what the pipeline does.

package processor

import (
	"math"

	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

const (
	// DefaultConfidence is assumed when the model omits a score
	DefaultConfidence = 70.0
	// HighConfidenceThreshold requires a complete field set
	HighConfidenceThreshold = 90.0
	// MediumConfidenceThreshold is the lower edge of "legible but non-standard"
	MediumConfidenceThreshold = 70.0
)

// MedicineConfidence is the display score of one prescription line.
// Index is the line's position in the record.
type MedicineConfidence struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

// ConfidenceResult summarises a record's per-medicine scores
type ConfidenceResult struct {
	OverallScore   float64              `json:"overall_score"`
	OverallLevel   string               `json:"overall_level"`
	RequiresReview bool                 `json:"requires_review"`
	PerMedicine    []MedicineConfidence `json:"per_medicine"`
}

// NormalizeConfidence returns the display score for m: absent becomes the
// default, values are clamped to [0,100], and a claimed high score on a
// medicine missing name, dosage or duration is capped below the high band.
func NormalizeConfidence(m models.Medicine) float64 {
	score := DefaultConfidence
	if m.Confidence != nil && !math.IsNaN(*m.Confidence) {
		score = *m.Confidence
	}

	score = math.Max(0, math.Min(100, score))

	if score >= HighConfidenceThreshold && !m.HasCompleteFields() {
		score = HighConfidenceThreshold - 1
	}

	return math.Round(score*100) / 100
}

// NormalizeMedicines returns copies of medicines carrying normalised scores
func NormalizeMedicines(medicines []models.Medicine, reqCtx *common.RequestContext) []models.Medicine {
	out := make([]models.Medicine, len(medicines))
	for i, m := range medicines {
		m = m.Clone()
		score := NormalizeConfidence(m)
		if reqCtx != nil && m.Confidence != nil && *m.Confidence != score {
			reqCtx.LogWarning("confidence for %q adjusted %.1f → %.1f", m.Name, *m.Confidence, score)
		}
		m.Confidence = &score
		out[i] = m
	}
	return out
}

// CalculateRecordConfidence averages the medicine scores of a record
func CalculateRecordConfidence(record *models.PrescriptionRecord) ConfidenceResult {
	result := ConfidenceResult{PerMedicine: []MedicineConfidence{}}
	if record == nil || len(record.Medicines) == 0 {
		result.OverallLevel = ConfidenceLevel(0)
		result.RequiresReview = true
		return result
	}

	var total float64
	for i, m := range record.Medicines {
		score := NormalizeConfidence(m)
		total += score
		result.PerMedicine = append(result.PerMedicine, MedicineConfidence{
			Index: i,
			Name:  m.Name,
			Score: score,
			Level: ConfidenceLevel(score),
		})
		if score < MediumConfidenceThreshold {
			result.RequiresReview = true
		}
	}

	result.OverallScore = math.Round(total/float64(len(record.Medicines))*100) / 100
	result.OverallLevel = ConfidenceLevel(result.OverallScore)
	return result
}

// ConfidenceLevel returns "high", "medium" or "low" for a score
func ConfidenceLevel(score float64) string {
	switch {
	case score >= HighConfidenceThreshold:
		return "high"
	case score >= MediumConfidenceThreshold:
		return "medium"
	default:
		return "low"
	}
}
