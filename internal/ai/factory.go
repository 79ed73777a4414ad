// factory.go - LLM backend factory

package ai

import (
	"fmt"
	"log"
	"time"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/ratelimit"
)

// Options carries the non-credential backend settings
type Options struct {
	GeminiModel      string
	OpenAIModel      string
	AnthropicModel   string
	GeminiBaseURL    string
	OpenAIBaseURL    string
	AnthropicBaseURL string
	Timeout          time.Duration
	Pricing          configs.Pricing
	Limiter          *ratelimit.Limiter
}

// OptionsFromConfig derives backend options from the service configuration
func OptionsFromConfig(cfg *configs.Config, limiter *ratelimit.Limiter) Options {
	return Options{
		GeminiModel:      cfg.GeminiModel,
		OpenAIModel:      cfg.OpenAIModel,
		AnthropicModel:   cfg.AnthropicModel,
		GeminiBaseURL:    cfg.GeminiBaseURL,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		AnthropicBaseURL: cfg.AnthropicBaseURL,
		Timeout:          time.Duration(cfg.LLMTimeout) * time.Second,
		Pricing:          cfg.Pricing,
		Limiter:          limiter,
	}
}

// CreateTextGenerator creates the backend selected in p, handing it only its
// own key. A missing key is reported when the backend is first called.
func CreateTextGenerator(p configs.ProviderConfig, opts Options) (TextGenerator, error) {
	key := p.Credentials.ForLLM(p.LLMProvider)

	switch p.LLMProvider {
	case configs.LLMGemini:
		log.Printf("🔵 Creating Gemini backend (%s)", opts.GeminiModel)
		return NewGeminiGenerator(key, opts), nil

	case configs.LLMOpenAI:
		log.Printf("🟢 Creating OpenAI backend (%s)", opts.OpenAIModel)
		return NewOpenAIGenerator(key, opts), nil

	case configs.LLMAnthropic:
		log.Printf("🟠 Creating Anthropic backend (%s)", opts.AnthropicModel)
		return NewAnthropicGenerator(key, opts), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: %s, %s, %s)",
			p.LLMProvider, configs.LLMGemini, configs.LLMOpenAI, configs.LLMAnthropic)
	}
}

// CreateStructuredExtractor creates the prescription extractor for p
func CreateStructuredExtractor(p configs.ProviderConfig, opts Options) (StructuredExtractor, error) {
	gen, err := CreateTextGenerator(p, opts)
	if err != nil {
		return nil, err
	}
	return NewPrescriptionExtractor(gen), nil
}
