package processor

import (
	"testing"

	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

func score(v float64) *float64 { return &v }

func TestNormalizeConfidence(t *testing.T) {
	complete := models.Medicine{Name: "Amoxicillin", Dosage: "500mg", Duration: "5 days"}

	tests := []struct {
		name string
		med  models.Medicine
		want float64
	}{
		{"absent defaults", complete, DefaultConfidence},
		{"clamped high", withScore(complete, 140), 100},
		{"clamped low", withScore(complete, -3), 0},
		{"complete keeps high", withScore(complete, 95), 95},
		{"missing duration capped", models.Medicine{Name: "Amoxicillin", Dosage: "500mg", Confidence: score(95)}, 89},
		{"low untouched", models.Medicine{Name: "Xyz", Confidence: score(40)}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeConfidence(tt.med); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func withScore(m models.Medicine, v float64) models.Medicine {
	m.Confidence = score(v)
	return m
}

func TestNormalizeMedicinesDoesNotMutateInput(t *testing.T) {
	in := []models.Medicine{{Name: "Paracetamol", Confidence: score(120)}}
	out := NormalizeMedicines(in, nil)

	if *in[0].Confidence != 120 {
		t.Fatalf("input mutated: %v", *in[0].Confidence)
	}
	if *out[0].Confidence != 89 {
		t.Fatalf("incomplete medicine should be capped at 89, got %v", *out[0].Confidence)
	}
}

func TestHighScoresImplyCompleteFields(t *testing.T) {
	meds := []models.Medicine{
		{Name: "Amoxicillin", Dosage: "500mg", Duration: "7 days", Confidence: score(96)},
		{Name: "Cetirizine", Dosage: "", Duration: "3 days", Confidence: score(93)},
		{Name: "", Dosage: "1 tab", Duration: "", Confidence: score(100)},
	}
	for _, m := range NormalizeMedicines(meds, nil) {
		c := *m.Confidence
		if c < 0 || c > 100 {
			t.Fatalf("%q: confidence %v outside [0,100]", m.Name, c)
		}
		if c >= HighConfidenceThreshold && !m.HasCompleteFields() {
			t.Fatalf("%q: high confidence on incomplete fields", m.Name)
		}
	}
}

func TestCalculateRecordConfidence(t *testing.T) {
	record := &models.PrescriptionRecord{Medicines: []models.Medicine{
		{Name: "A", Dosage: "1", Duration: "1", Confidence: score(100)},
		{Name: "B", Confidence: score(50)},
	}}
	res := CalculateRecordConfidence(record)
	if res.OverallScore != 75 || res.OverallLevel != "medium" {
		t.Fatalf("got %v (%s)", res.OverallScore, res.OverallLevel)
	}
	if !res.RequiresReview {
		t.Fatalf("a low-scoring medicine should require review")
	}
	if ConfidenceLevel(91) != "high" || ConfidenceLevel(69.9) != "low" {
		t.Fatalf("level boundaries wrong")
	}
}

func TestCalculateRecordConfidenceKeepsRepeatedNames(t *testing.T) {
	record := &models.PrescriptionRecord{Medicines: []models.Medicine{
		{Name: "Paracetamol", Dosage: "500mg", Duration: "3 days", Confidence: score(95)},
		{Name: "Paracetamol", Dosage: "650mg", Confidence: score(60)},
	}}
	res := CalculateRecordConfidence(record)
	if len(res.PerMedicine) != 2 {
		t.Fatalf("per medicine = %+v", res.PerMedicine)
	}
	first, second := res.PerMedicine[0], res.PerMedicine[1]
	if first.Index != 0 || first.Score != 95 || first.Level != "high" {
		t.Fatalf("first line = %+v", first)
	}
	if second.Index != 1 || second.Score != 60 || second.Level != "low" {
		t.Fatalf("second line = %+v", second)
	}
}
