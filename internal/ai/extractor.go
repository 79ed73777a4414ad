// extractor.go - Prescription extraction over any TextGenerator

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
	"github.com/bosocmputer/prescription_analyzer/internal/processor"
)

// PrescriptionExtractor implements StructuredExtractor
type PrescriptionExtractor struct {
	gen TextGenerator
}

// NewPrescriptionExtractor wraps a backend with the extraction contract
func NewPrescriptionExtractor(gen TextGenerator) *PrescriptionExtractor {
	return &PrescriptionExtractor{gen: gen}
}

// GetProviderName returns the backend's provider name
func (e *PrescriptionExtractor) GetProviderName() string {
	return e.gen.GetProviderName()
}

// ExtractStructured prepends the extraction contract to text, sends it to the
// backend once and parses the reply. A reply that does not fit the schema is
// a terminal schema_parse_failed; no other provider is tried.
func (e *PrescriptionExtractor) ExtractStructured(ctx context.Context, text string, reqCtx *common.RequestContext) (*models.PrescriptionRecord, *common.TokenUsage, error) {
	provider := e.gen.GetProviderName()

	reqCtx.StartSubStep("build_prompt")
	req := GenerateRequest{
		Instruction: ExtractionContract,
		Input:       BuildExtractionInput(text),
		JSON:        true,
	}
	reqCtx.EndSubStep(fmt.Sprintf("%d chars of text", len(text)))

	reqCtx.StartSubStep("call_llm_api")
	reply, usage, err := e.gen.Generate(ctx, req, reqCtx)
	if err != nil {
		reqCtx.EndSubStep("❌ FAILED")
		return nil, nil, err
	}
	reqCtx.EndSubStep(fmt.Sprintf("%d chars", len(reply)))

	reqCtx.StartSubStep("parse_json_response")
	record, err := ParsePrescription(provider, reply)
	if err != nil {
		reqCtx.EndSubStep("❌ JSON PARSE FAILED")
		preview := reply
		if len(preview) > 500 {
			preview = preview[:500] + "... (truncated)"
		}
		reqCtx.LogWarning("unparseable %s reply: %s", provider, preview)
		return nil, usage, err
	}
	reqCtx.EndSubStep(fmt.Sprintf("%d medicines", len(record.Medicines)))

	reqCtx.StartSubStep("normalize_record")
	record.Medicines = processor.NormalizeMedicines(record.Medicines, reqCtx)
	reqCtx.EndSubStep("")

	return record, usage, nil
}

type wireFrequency struct {
	Morning   FlexBool `json:"morning"`
	Afternoon FlexBool `json:"afternoon"`
	Evening   FlexBool `json:"evening"`
	Night     FlexBool `json:"night"`

	// some replies describe frequency as text ("morning and night")
	text string
}

func (wf *wireFrequency) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &wf.text)
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	type alias wireFrequency
	return json.Unmarshal(data, (*alias)(wf))
}

type wireMedicine struct {
	Name                FlexString     `json:"name"`
	Confidence          *FlexNumber    `json:"confidence"`
	Dosage              FlexString     `json:"dosage"`
	Frequency           *wireFrequency `json:"frequency"`
	Duration            FlexString     `json:"duration"`
	SpecialInstructions FlexString     `json:"specialInstructions"`
}

type wireRecord struct {
	Medicines   *[]wireMedicine `json:"medicines"`
	PatientInfo *struct {
		Name   FlexString `json:"name"`
		Age    FlexString `json:"age"`
		Gender FlexString `json:"gender"`
	} `json:"patientInfo"`
	DoctorInfo *struct {
		Name           FlexString `json:"name"`
		Specialization FlexString `json:"specialization"`
	} `json:"doctorInfo"`
	Diagnosis FlexString `json:"diagnosis"`
	Date      FlexString `json:"date"`
}

// ParsePrescription converts a model reply into a PrescriptionRecord
func ParsePrescription(provider, reply string) (*models.PrescriptionRecord, error) {
	cleaned, err := cleanJSONResponse(reply)
	if err != nil {
		return nil, common.SchemaParseFailed(provider, err)
	}

	var wire wireRecord
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, common.SchemaParseFailed(provider, err)
	}
	if wire.Medicines == nil {
		return nil, common.SchemaParseFailed(provider, fmt.Errorf(`missing "medicines" array`))
	}

	record := &models.PrescriptionRecord{
		Medicines: make([]models.Medicine, 0, len(*wire.Medicines)),
		Diagnosis: string(wire.Diagnosis),
		Date:      string(wire.Date),
	}
	if wire.PatientInfo != nil {
		record.PatientInfo = models.PatientInfo{
			Name:   string(wire.PatientInfo.Name),
			Age:    string(wire.PatientInfo.Age),
			Gender: string(wire.PatientInfo.Gender),
		}
	}
	if wire.DoctorInfo != nil {
		record.DoctorInfo = models.DoctorInfo{
			Name:           string(wire.DoctorInfo.Name),
			Specialization: string(wire.DoctorInfo.Specialization),
		}
	}

	for _, wm := range *wire.Medicines {
		m := models.Medicine{
			Name:                string(wm.Name),
			Confidence:          wm.Confidence.Ptr(),
			Dosage:              string(wm.Dosage),
			Duration:            string(wm.Duration),
			SpecialInstructions: string(wm.SpecialInstructions),
		}
		if m.Name == "" {
			continue
		}
		if wm.Frequency != nil {
			m.Frequency = models.Frequency{
				Morning:   bool(wm.Frequency.Morning),
				Afternoon: bool(wm.Frequency.Afternoon),
				Evening:   bool(wm.Frequency.Evening),
				Night:     bool(wm.Frequency.Night),
			}
			if t := strings.TrimSpace(wm.Frequency.text); t != "" {
				m.SpecialInstructions = joinInstructions(t, m.SpecialInstructions)
			}
		}
		record.Medicines = append(record.Medicines, m)
	}

	return record, nil
}

func joinInstructions(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "; ")
}
