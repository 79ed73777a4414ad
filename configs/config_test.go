package configs

import (
	"path/filepath"
	"testing"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("OCR_PROVIDER", "Google-Vision")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OCR_LANGUAGES", "eng+hin")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")

	cfg := Load()
	if cfg.OCRProvider != OCRGoogleVision {
		t.Fatalf("OCRProvider = %q", cfg.OCRProvider)
	}
	if cfg.MaxUploadMB != 10 {
		t.Fatalf("MaxUploadMB should fall back to default, got %d", cfg.MaxUploadMB)
	}
	if len(cfg.OCRLanguages) != 2 || cfg.OCRLanguages[1] != "hin" {
		t.Fatalf("OCRLanguages = %v", cfg.OCRLanguages)
	}
	p := cfg.Providers()
	if p.Credentials.ForLLM(LLMOpenAI) != "sk-env" {
		t.Fatalf("openai key not carried into provider config")
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestWithOverridesIsCopyOnWrite(t *testing.T) {
	base := ProviderConfig{
		OCRProvider:    OCRTesseract,
		LLMProvider:    LLMGemini,
		TargetLanguage: "en",
		Credentials:    Credentials{GeminiAPIKey: "env-gemini"},
	}
	out := base.WithOverrides(ProviderConfig{
		LLMProvider: "Anthropic",
		Credentials: Credentials{AnthropicAPIKey: "user-key"},
	})

	if out.LLMProvider != LLMAnthropic || out.Credentials.AnthropicAPIKey != "user-key" {
		t.Fatalf("override not applied: %+v", out)
	}
	if out.Credentials.GeminiAPIKey != "env-gemini" || out.OCRProvider != OCRTesseract {
		t.Fatalf("unset fields should keep defaults: %+v", out)
	}
	if base.LLMProvider != LLMGemini || base.Credentials.AnthropicAPIKey != "" {
		t.Fatalf("base config was mutated: %+v", base)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	p := ProviderConfig{OCRProvider: "easyocr", LLMProvider: LLMGemini}
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for unknown OCR provider")
	}
	p = ProviderConfig{OCRProvider: OCRTesseract, LLMProvider: "mistral"}
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for unknown LLM provider")
	}
}

func TestStringHidesCredentials(t *testing.T) {
	p := ProviderConfig{OCRProvider: OCRTesseract, LLMProvider: LLMGemini, Credentials: Credentials{GeminiAPIKey: "secret"}}
	if s := p.String(); s != "ocr=tesseract llm=gemini lang=en" {
		t.Fatalf("String() = %q", s)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	missing, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if missing.LLMProvider != "" {
		t.Fatalf("expected empty settings, got %+v", missing)
	}

	want := ProviderConfig{LLMProvider: LLMOpenAI, TargetLanguage: "hi", Credentials: Credentials{OpenAIAPIKey: "sk-user"}}
	if err := SaveSettings(path, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
