// analyzer.go - Prescription analysis pipeline
//
// image → text → record → schedule → (translated view). Stages run in order
// because each needs the previous output; the translation step is optional
// and its failure never fails the analysis.

package pipeline

import (
	"context"
	"fmt"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/ai"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
	"github.com/bosocmputer/prescription_analyzer/internal/ocr"
	"github.com/bosocmputer/prescription_analyzer/internal/processor"
	"github.com/bosocmputer/prescription_analyzer/internal/ratelimit"
	"github.com/bosocmputer/prescription_analyzer/internal/schedule"
	"github.com/bosocmputer/prescription_analyzer/internal/translate"
)

// Analyzer wires the provider abstractions together. The factory fields
// select a provider per call from the given ProviderConfig.
type Analyzer struct {
	NewTextExtractor       func(p configs.ProviderConfig) (ocr.TextExtractor, error)
	NewStructuredExtractor func(p configs.ProviderConfig) (ai.StructuredExtractor, error)
	NewTranslator          func(p configs.ProviderConfig) translate.Translator
}

// NewAnalyzer builds an Analyzer on the real providers
func NewAnalyzer(cfg *configs.Config, limiter *ratelimit.Limiter) *Analyzer {
	ocrOpts := ocr.OptionsFromConfig(cfg, limiter)
	aiOpts := ai.OptionsFromConfig(cfg, limiter)

	return &Analyzer{
		NewTextExtractor: func(p configs.ProviderConfig) (ocr.TextExtractor, error) {
			return ocr.CreateTextExtractor(p, ocrOpts)
		},
		NewStructuredExtractor: func(p configs.ProviderConfig) (ai.StructuredExtractor, error) {
			return ai.CreateStructuredExtractor(p, aiOpts)
		},
		NewTranslator: func(p configs.ProviderConfig) translate.Translator {
			return translate.NewGoogleTranslator(p.Credentials.TranslationAPIKey, cfg, limiter)
		},
	}
}

// Result is one successful analysis
type Result struct {
	Record     *models.PrescriptionRecord `json:"record"`
	Schedule   models.Schedule            `json:"schedule"`
	Confidence processor.ConfidenceResult `json:"confidence"`
	RawText    string                     `json:"raw_text"`
	Language   string                     `json:"language"`
	View       *translate.View            `json:"translated_view,omitempty"`
	Notice     map[string]interface{}     `json:"translation_notice,omitempty"`
	Session    *translate.Session         `json:"-"`
}

// Analyze runs the whole pipeline for img with the providers selected in p
func (a *Analyzer) Analyze(ctx context.Context, img ocr.Image, p configs.ProviderConfig, reqCtx *common.RequestContext) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, common.UnsupportedInput("%v", err)
	}
	lang, ok := translate.NormalizeLanguage(p.Language())
	if !ok {
		return nil, common.UnsupportedInput("unsupported target language %q", p.Language())
	}
	reqCtx.LogInfo("providers: %s", p)

	text, err := a.extractText(ctx, img, p, reqCtx)
	if err != nil {
		return nil, err
	}

	reqCtx.StartStep(common.StepStructuredExtraction)
	extractor, err := a.NewStructuredExtractor(p)
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		return nil, common.UnsupportedInput("%v", err)
	}
	record, usage, err := extractor.ExtractStructured(ctx, text, reqCtx)
	if err != nil {
		reqCtx.EndStep("failed", usage, err)
		return nil, err
	}
	reqCtx.LogInfo("extracted %d medicine(s) with %s", len(record.Medicines), extractor.GetProviderName())
	reqCtx.EndStep("success", usage, nil)

	reqCtx.StartStep(common.StepScheduleDerivation)
	record = schedule.Derive(record)
	result := &Result{
		Record:     record,
		Schedule:   schedule.Build(record),
		Confidence: processor.CalculateRecordConfidence(record),
		RawText:    text,
		Language:   configs.SourceLanguage,
		Session:    translate.NewSession(record),
	}
	reqCtx.EndStep("success", nil, nil)

	if !translate.IsSource(lang) {
		reqCtx.StartStep(common.StepTranslation)
		res, err := result.Session.SwitchLanguage(ctx, a.NewTranslator(p), lang, reqCtx)
		if err != nil {
			// the English record stays on screen with a notice
			reqCtx.EndStep("skipped", nil, err)
			result.Notice = common.UserFacing(err)
		} else {
			result.View = res.View
			result.Language = lang
			reqCtx.EndStep("success", res.View.Usage, nil)
		}
	}

	return result, nil
}

func (a *Analyzer) extractText(ctx context.Context, img ocr.Image, p configs.ProviderConfig, reqCtx *common.RequestContext) (string, error) {
	reqCtx.StartStep(common.StepTextExtraction)

	if img.IsPDF() {
		reqCtx.StartSubStep("read_pdf_text")
		text, err := ocr.ExtractPDFText(img, reqCtx)
		if err != nil {
			reqCtx.EndSubStep("failed")
			reqCtx.EndStep("failed", nil, err)
			return "", err
		}
		reqCtx.EndSubStep(fmt.Sprintf("%d chars", len(text)))
		reqCtx.EndStep("success", nil, nil)
		return text, nil
	}

	extractor, err := a.NewTextExtractor(p)
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		return "", common.UnsupportedInput("%v", err)
	}

	text, err := extractor.ExtractText(ctx, img, reqCtx)
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		return "", err
	}
	if text == "" {
		reqCtx.LogWarning("%s recognized no text", extractor.GetProviderName())
	}
	reqCtx.EndStep("success", nil, nil)
	return text, nil
}
