// drug_summary.go - Generative drug information fallback

package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

type wireDrugSummary struct {
	Unknown              bool       `json:"unknown"`
	BrandName            FlexString `json:"brand_name"`
	GenericName          FlexString `json:"generic_name"`
	Manufacturer         FlexString `json:"manufacturer"`
	ActiveIngredients    FlexString `json:"active_ingredients"`
	Purpose              FlexString `json:"purpose"`
	Warnings             FlexString `json:"warnings"`
	DosageAdministration FlexString `json:"dosage_administration"`
	PregnancyRisk        FlexString `json:"pregnancy_risk"`
}

// SummarizeDrug asks the backend for a short drug summary. A reply marking
// the name as unknown, or one with no usable field, is a no_match_found.
func SummarizeDrug(ctx context.Context, gen TextGenerator, name string, reqCtx *common.RequestContext) (*models.DrugInfo, *common.TokenUsage, error) {
	provider := gen.GetProviderName()

	reply, usage, err := gen.Generate(ctx, GenerateRequest{
		Instruction: DrugSummaryInstruction,
		Input:       BuildDrugSummaryInput(name),
		JSON:        true,
		MaxTokens:   1024,
	}, reqCtx)
	if err != nil {
		return nil, usage, err
	}

	cleaned, err := cleanJSONResponse(reply)
	if err != nil {
		return nil, usage, common.SchemaParseFailed(provider, err)
	}

	var wire wireDrugSummary
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, usage, common.SchemaParseFailed(provider, err)
	}
	if wire.Unknown {
		return nil, usage, common.NoMatchFound(provider, name)
	}

	info := &models.DrugInfo{
		BrandName:            firstSentences(string(wire.BrandName), 2),
		GenericName:          firstSentences(string(wire.GenericName), 2),
		Manufacturer:         firstSentences(string(wire.Manufacturer), 2),
		ActiveIngredients:    firstSentences(string(wire.ActiveIngredients), 2),
		Purpose:              firstSentences(string(wire.Purpose), 2),
		Warnings:             firstSentences(string(wire.Warnings), 2),
		DosageAdministration: firstSentences(string(wire.DosageAdministration), 2),
		PregnancyRisk:        firstSentences(string(wire.PregnancyRisk), 2),
		Source:               models.SourceGenerated,
	}

	empty := true
	for _, f := range info.TextFields() {
		if *f != "" {
			empty = false
			break
		}
	}
	if empty {
		return nil, usage, common.NoMatchFound(provider, name)
	}

	return info, usage, nil
}

// firstSentences keeps at most n sentences of s
func firstSentences(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return ""
	}
	parts := strings.SplitAfter(s, ". ")
	if len(parts) <= n {
		return s
	}
	return strings.TrimSpace(strings.Join(parts[:n], ""))
}
