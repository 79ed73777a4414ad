package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bosocmputer/prescription_analyzer/internal/common"
)

type fakeGenerator struct {
	reply string
	err   error
	calls int
	last  GenerateRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req GenerateRequest, _ *common.RequestContext) (string, *common.TokenUsage, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return "", nil, f.err
	}
	return f.reply, &common.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

func (f *fakeGenerator) GetProviderName() string { return "fake" }

const clearAmoxicillin = "```json\n" + `{
  "medicines": [
    {
      "name": "Amoxicillin",
      "confidence": 96,
      "dosage": "500mg",
      "frequency": {"morning": true, "afternoon": true, "evening": false, "night": true},
      "duration": "5 days",
      "specialInstructions": "3 times daily after food"
    }
  ],
  "patientInfo": {"name": "R. Sharma", "age": 42, "gender": "M"},
  "doctorInfo": {"name": "Dr. Mehta", "specialization": "General Physician"}
}` + "\n```"

func TestExtractStructuredClearPrescription(t *testing.T) {
	gen := &fakeGenerator{reply: clearAmoxicillin}
	ex := NewPrescriptionExtractor(gen)

	record, usage, err := ex.ExtractStructured(context.Background(), "Amoxicillin 500mg, 3 times daily after food", common.NewRequestContext("test"))
	if err != nil {
		t.Fatalf("ExtractStructured: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one backend call, got %d", gen.calls)
	}
	if gen.last.Instruction != ExtractionContract || !strings.Contains(gen.last.Input, "Amoxicillin 500mg") {
		t.Fatalf("contract not prepended to the raw text: %+v", gen.last)
	}
	if usage == nil || usage.TotalTokens != 15 {
		t.Fatalf("usage = %+v", usage)
	}

	if len(record.Medicines) != 1 {
		t.Fatalf("medicines = %d", len(record.Medicines))
	}
	m := record.Medicines[0]
	c := *m.Confidence
	if c < 0 || c > 100 {
		t.Fatalf("confidence %v outside [0,100]", c)
	}
	if c >= 90 && !m.HasCompleteFields() {
		t.Fatalf("confidence %v claimed on incomplete fields: %+v", c, m)
	}
	if !m.Frequency.Morning || !m.Frequency.Afternoon || m.Frequency.Evening || !m.Frequency.Night {
		t.Fatalf("frequency = %+v", m.Frequency)
	}
	if record.PatientInfo.Age != "42" {
		t.Fatalf("numeric age should be kept as text, got %q", record.PatientInfo.Age)
	}
	if record.DoctorInfo.Name != "Dr. Mehta" {
		t.Fatalf("doctor = %+v", record.DoctorInfo)
	}
}

func TestExtractStructuredUnparseableReply(t *testing.T) {
	tests := map[string]string{
		"prose":             "I could not read this prescription.",
		"missing medicines": `{"patientInfo": {"name": "A"}}`,
		"truncated":         `{"medicines": [{"name": "Para`,
	}
	for name, reply := range tests {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{reply: reply}
			_, _, err := NewPrescriptionExtractor(gen).ExtractStructured(context.Background(), "x", common.NewRequestContext("test"))
			if !errors.Is(err, common.ErrSchemaParseFailed) {
				t.Fatalf("expected schema_parse_failed, got %v", err)
			}
			if gen.calls != 1 {
				t.Fatalf("parse failure must not trigger another call, got %d", gen.calls)
			}
		})
	}
}

func TestExtractStructuredPropagatesProviderError(t *testing.T) {
	gen := &fakeGenerator{err: common.CredentialMissing("openai")}
	_, _, err := NewPrescriptionExtractor(gen).ExtractStructured(context.Background(), "x", common.NewRequestContext("test"))
	if !errors.Is(err, common.ErrCredentialMissing) {
		t.Fatalf("expected credential_missing, got %v", err)
	}
}

func TestParsePrescriptionLenientValues(t *testing.T) {
	reply := `Here is the result:
{
  "medicines": [
    {"name": "", "dosage": "1 tab"},
    {"name": "Paracetamol", "confidence": "85%", "dosage": 650, "frequency": "morning and night", "duration": null},
    {"name": "Cetirizine", "frequency": {"morning": "no", "night": "yes"}, "specialInstructions": "line one
line two"}
  ]
}
Hope this helps.`

	record, err := ParsePrescription("fake", reply)
	if err != nil {
		t.Fatalf("ParsePrescription: %v", err)
	}
	if len(record.Medicines) != 2 {
		t.Fatalf("empty-name medicines should be dropped, got %d", len(record.Medicines))
	}

	para := record.Medicines[0]
	if para.Confidence == nil || *para.Confidence != 85 {
		t.Fatalf("confidence = %v", para.Confidence)
	}
	if para.Dosage != "650" || para.Duration != "" {
		t.Fatalf("dosage=%q duration=%q", para.Dosage, para.Duration)
	}
	if !para.Frequency.IsEmpty() || para.SpecialInstructions != "morning and night" {
		t.Fatalf("textual frequency should move to instructions: %+v", para)
	}

	cet := record.Medicines[1]
	if cet.Frequency.Morning || !cet.Frequency.Night {
		t.Fatalf("frequency = %+v", cet.Frequency)
	}
	if cet.SpecialInstructions != "line one\nline two" {
		t.Fatalf("instructions = %q", cet.SpecialInstructions)
	}
	if cet.Confidence != nil {
		t.Fatalf("absent confidence should stay nil before normalisation")
	}
}

func TestSummarizeDrug(t *testing.T) {
	gen := &fakeGenerator{reply: `{"generic_name": "Metformin", "purpose": "Lowers blood sugar. Used in type 2 diabetes. Taken with meals. Extra.", "pregnancy_risk": null}`}

	info, _, err := SummarizeDrug(context.Background(), gen, "Glycomet", common.NewRequestContext("test"))
	if err != nil {
		t.Fatalf("SummarizeDrug: %v", err)
	}
	if info.Source != "generated" {
		t.Fatalf("source = %q", info.Source)
	}
	if info.Purpose != "Lowers blood sugar. Used in type 2 diabetes." {
		t.Fatalf("purpose not trimmed to two sentences: %q", info.Purpose)
	}
	if info.PregnancyRisk != "" {
		t.Fatalf("null field should be empty, got %q", info.PregnancyRisk)
	}

	gen = &fakeGenerator{reply: `{"unknown": true}`}
	if _, _, err := SummarizeDrug(context.Background(), gen, "Qwerty", common.NewRequestContext("test")); !errors.Is(err, common.ErrNoMatchFound) {
		t.Fatalf("expected no_match_found, got %v", err)
	}
}
