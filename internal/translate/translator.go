// translator.go - Translation provider

package translate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/ratelimit"
)

// ProviderGoogleTranslate is the translation provider name
const ProviderGoogleTranslate = "google-translate"

// Translator translates a batch of source-language strings. The result has
// the same length and order as texts.
type Translator interface {
	Translate(ctx context.Context, texts []string, target string) ([]string, *common.TokenUsage, error)

	GetProviderName() string
}

// GoogleTranslator implements Translator with Cloud Translation v2
type GoogleTranslator struct {
	apiKey          string
	endpoint        string
	pricePerMillion float64
	limiter         *ratelimit.Limiter
}

// NewGoogleTranslator creates a translator. Only the translation key is
// ever given to it.
func NewGoogleTranslator(apiKey string, cfg *configs.Config, limiter *ratelimit.Limiter) *GoogleTranslator {
	t := &GoogleTranslator{apiKey: apiKey, limiter: limiter, pricePerMillion: 20}
	if cfg != nil {
		t.endpoint = cfg.TranslateEndpoint
		t.pricePerMillion = cfg.Pricing.TranslationPerMillionChar
	}
	return t
}

// GetProviderName returns the provider name
func (g *GoogleTranslator) GetProviderName() string {
	return ProviderGoogleTranslate
}

// Translate sends one translate request for the whole batch
func (g *GoogleTranslator) Translate(ctx context.Context, texts []string, target string) ([]string, *common.TokenUsage, error) {
	if g.apiKey == "" {
		return nil, nil, common.CredentialMissing(ProviderGoogleTranslate)
	}
	if len(texts) == 0 {
		return []string{}, nil, nil
	}

	if err := g.limiter.Wait(ctx, ProviderGoogleTranslate); err != nil {
		return nil, nil, common.RequestFailed(ProviderGoogleTranslate, err)
	}

	opts := []option.ClientOption{option.WithAPIKey(g.apiKey)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := translatev2.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, common.RequestFailed(ProviderGoogleTranslate, fmt.Errorf("failed to create translate client: %w", err))
	}

	resp, err := svc.Translations.Translate(&translatev2.TranslateTextRequest{
		Q:      texts,
		Source: configs.SourceLanguage,
		Target: target,
		Format: "text",
	}).Context(ctx).Do()
	if err != nil {
		return nil, nil, common.RequestFailed(ProviderGoogleTranslate, err)
	}

	if len(resp.Translations) != len(texts) {
		return nil, nil, common.RequestFailedStatus(ProviderGoogleTranslate, 502,
			fmt.Sprintf("got %d translations for %d texts", len(resp.Translations), len(texts)))
	}

	out := make([]string, len(texts))
	chars := 0
	for i, tr := range resp.Translations {
		out[i] = tr.TranslatedText
		chars += len([]rune(texts[i]))
	}

	usage := common.CalculateCharacterCost(chars, g.pricePerMillion)
	return out, &usage, nil
}

// EstimateCost returns the USD cost of translating texts. Blank entries are
// never sent and cost nothing.
func EstimateCost(texts []string, pricePerMillion float64) float64 {
	chars := 0
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		chars += len([]rune(t))
	}
	return common.CalculateCharacterCost(chars, pricePerMillion).CostUSD
}
