// provider.go - User-selected provider configuration

package configs

import (
	"fmt"
	"strings"
)

// Credentials holds one key per external provider. Each key is handed only
// to the provider it configures.
type Credentials struct {
	VisionAPIKey      string `json:"vision_api_key,omitempty"`
	GeminiAPIKey      string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey      string `json:"openai_api_key,omitempty"`
	AnthropicAPIKey   string `json:"anthropic_api_key,omitempty"`
	TranslationAPIKey string `json:"translation_api_key,omitempty"`
}

// ForLLM returns the key of the given LLM provider
func (c Credentials) ForLLM(provider string) string {
	switch provider {
	case LLMGemini:
		return c.GeminiAPIKey
	case LLMOpenAI:
		return c.OpenAIAPIKey
	case LLMAnthropic:
		return c.AnthropicAPIKey
	}
	return ""
}

// ProviderConfig is the user-selected provider set for one session. It is a
// value: callers derive new configurations instead of mutating a shared one.
type ProviderConfig struct {
	OCRProvider    string      `json:"ocr_provider,omitempty"`
	LLMProvider    string      `json:"llm_provider,omitempty"`
	TargetLanguage string      `json:"target_language,omitempty"`
	Credentials    Credentials `json:"credentials"`
}

// WithOverrides returns a copy of p where every non-empty field of o wins
func (p ProviderConfig) WithOverrides(o ProviderConfig) ProviderConfig {
	out := p
	if o.OCRProvider != "" {
		out.OCRProvider = strings.ToLower(o.OCRProvider)
	}
	if o.LLMProvider != "" {
		out.LLMProvider = strings.ToLower(o.LLMProvider)
	}
	if o.TargetLanguage != "" {
		out.TargetLanguage = strings.ToLower(o.TargetLanguage)
	}
	if o.Credentials.VisionAPIKey != "" {
		out.Credentials.VisionAPIKey = o.Credentials.VisionAPIKey
	}
	if o.Credentials.GeminiAPIKey != "" {
		out.Credentials.GeminiAPIKey = o.Credentials.GeminiAPIKey
	}
	if o.Credentials.OpenAIAPIKey != "" {
		out.Credentials.OpenAIAPIKey = o.Credentials.OpenAIAPIKey
	}
	if o.Credentials.AnthropicAPIKey != "" {
		out.Credentials.AnthropicAPIKey = o.Credentials.AnthropicAPIKey
	}
	if o.Credentials.TranslationAPIKey != "" {
		out.Credentials.TranslationAPIKey = o.Credentials.TranslationAPIKey
	}
	return out
}

// Validate checks the provider names
func (p ProviderConfig) Validate() error {
	switch p.OCRProvider {
	case OCRTesseract, OCRGoogleVision:
	default:
		return fmt.Errorf("unknown OCR provider %q (expected %s or %s)", p.OCRProvider, OCRTesseract, OCRGoogleVision)
	}
	switch p.LLMProvider {
	case LLMGemini, LLMOpenAI, LLMAnthropic:
	default:
		return fmt.Errorf("unknown LLM provider %q (expected %s, %s or %s)", p.LLMProvider, LLMGemini, LLMOpenAI, LLMAnthropic)
	}
	return nil
}

// Language returns the target language, defaulting to the source language
func (p ProviderConfig) Language() string {
	if p.TargetLanguage == "" {
		return SourceLanguage
	}
	return p.TargetLanguage
}

// String never prints credentials
func (p ProviderConfig) String() string {
	return fmt.Sprintf("ocr=%s llm=%s lang=%s", p.OCRProvider, p.LLMProvider, p.Language())
}
