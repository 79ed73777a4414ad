// config.go - Configuration loaded from environment variables

package configs

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names accepted in configuration and per-request overrides
const (
	OCRTesseract    = "tesseract"
	OCRGoogleVision = "google-vision"

	LLMGemini    = "gemini"
	LLMOpenAI    = "openai"
	LLMAnthropic = "anthropic"

	SourceLanguage = "en"
)

// Config is the process-wide configuration. It is loaded once at start and
// passed explicitly to the components that need it.
type Config struct {
	// Server Configuration
	Port           string
	AllowedOrigins string
	GinMode        string
	MaxUploadMB    int
	SessionTTLMin  int

	// Provider defaults
	OCRProvider     string
	LLMProvider     string
	DefaultLanguage string
	OCRLanguages    []string

	// Credentials (environment defaults, user overrides win)
	VisionAPIKey      string
	GeminiAPIKey      string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	TranslationAPIKey string
	JanAushadhiAPIKey string

	// Models
	GeminiModel    string
	OpenAIModel    string
	AnthropicModel string

	// Endpoints (overridable for self-hosted gateways)
	GeminiBaseURL      string
	OpenAIBaseURL      string
	AnthropicBaseURL   string
	VisionEndpoint     string
	TranslateEndpoint  string
	OpenFDABaseURL     string
	JanAushadhiBaseURL string

	// Image preprocessing settings
	EnableImagePreprocessing bool
	MaxImageDimension        int

	// Timeouts in seconds
	OCRTimeout    int
	LLMTimeout    int
	LookupTimeout int

	// Outbound pacing per provider
	ProviderRequestsPerMinute int

	// Pricing (per 1M tokens / characters in USD)
	Pricing Pricing

	// MongoDB Configuration (optional, reference data only)
	MongoURI    string
	MongoDBName string
}

// Pricing holds per-provider unit prices used for the request cost summary
type Pricing struct {
	GeminiInputPerMillion     float64
	GeminiOutputPerMillion    float64
	OpenAIInputPerMillion     float64
	OpenAIOutputPerMillion    float64
	AnthropicInputPerMillion  float64
	AnthropicOutputPerMillion float64
	TranslationPerMillionChar float64
}

// ForLLM returns the input/output price per million tokens of an LLM provider
func (p Pricing) ForLLM(provider string) (float64, float64) {
	switch provider {
	case LLMOpenAI:
		return p.OpenAIInputPerMillion, p.OpenAIOutputPerMillion
	case LLMAnthropic:
		return p.AnthropicInputPerMillion, p.AnthropicOutputPerMillion
	default:
		return p.GeminiInputPerMillion, p.GeminiOutputPerMillion
	}
}

// Load reads configuration from .env (if present) and the environment
func Load() *Config {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		GinMode:        getEnv("GIN_MODE", "release"),
		MaxUploadMB:    getEnvInt("MAX_UPLOAD_MB", 10),
		SessionTTLMin:  getEnvInt("SESSION_TTL_MINUTES", 30),

		OCRProvider:     strings.ToLower(getEnv("OCR_PROVIDER", OCRTesseract)),
		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", LLMGemini)),
		DefaultLanguage: strings.ToLower(getEnv("DEFAULT_LANGUAGE", SourceLanguage)),
		OCRLanguages:    splitLanguages(getEnv("OCR_LANGUAGES", "eng+hin")),

		VisionAPIKey:      getEnv("GOOGLE_VISION_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		TranslationAPIKey: getEnv("GOOGLE_TRANSLATION_API_KEY", ""),
		JanAushadhiAPIKey: getEnv("JAN_AUSHADHI_API_KEY", ""),

		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),

		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		AnthropicBaseURL:   getEnv("ANTHROPIC_BASE_URL", ""),
		VisionEndpoint:     getEnv("GOOGLE_VISION_ENDPOINT", ""),
		TranslateEndpoint:  getEnv("GOOGLE_TRANSLATE_ENDPOINT", ""),
		OpenFDABaseURL:     getEnv("OPENFDA_BASE_URL", "https://api.fda.gov"),
		JanAushadhiBaseURL: getEnv("JAN_AUSHADHI_BASE_URL", "https://apigw.umangapp.in/janAushadhiApi/ws1"),

		EnableImagePreprocessing: getEnvBool("ENABLE_IMAGE_PREPROCESSING", true),
		MaxImageDimension:        getEnvInt("MAX_IMAGE_DIMENSION", 2500),

		OCRTimeout:    getEnvInt("OCR_TIMEOUT", 60),
		LLMTimeout:    getEnvInt("LLM_TIMEOUT", 60),
		LookupTimeout: getEnvInt("LOOKUP_TIMEOUT", 10),

		ProviderRequestsPerMinute: getEnvInt("PROVIDER_REQUESTS_PER_MINUTE", 60),

		Pricing: Pricing{
			GeminiInputPerMillion:     getEnvFloat("GEMINI_INPUT_PRICE_PER_MILLION", 0.30),
			GeminiOutputPerMillion:    getEnvFloat("GEMINI_OUTPUT_PRICE_PER_MILLION", 2.50),
			OpenAIInputPerMillion:     getEnvFloat("OPENAI_INPUT_PRICE_PER_MILLION", 0.15),
			OpenAIOutputPerMillion:    getEnvFloat("OPENAI_OUTPUT_PRICE_PER_MILLION", 0.60),
			AnthropicInputPerMillion:  getEnvFloat("ANTHROPIC_INPUT_PRICE_PER_MILLION", 0.80),
			AnthropicOutputPerMillion: getEnvFloat("ANTHROPIC_OUTPUT_PRICE_PER_MILLION", 4.00),
			TranslationPerMillionChar: getEnvFloat("TRANSLATION_PRICE_PER_MILLION_CHARS", 20.0),
		},

		MongoURI:    getEnv("MONGO_URI", ""),
		MongoDBName: getEnv("MONGO_DB_NAME", "prescription_analyzer"),
	}

	log.Println("✓ Configuration loaded successfully")
	return cfg
}

// Providers returns the environment-default provider configuration
func (c *Config) Providers() ProviderConfig {
	return ProviderConfig{
		OCRProvider:    c.OCRProvider,
		LLMProvider:    c.LLMProvider,
		TargetLanguage: c.DefaultLanguage,
		Credentials: Credentials{
			VisionAPIKey:      c.VisionAPIKey,
			GeminiAPIKey:      c.GeminiAPIKey,
			OpenAIAPIKey:      c.OpenAIAPIKey,
			AnthropicAPIKey:   c.AnthropicAPIKey,
			TranslationAPIKey: c.TranslationAPIKey,
		},
	}
}

func splitLanguages(value string) []string {
	var langs []string
	for _, l := range strings.FieldsFunc(value, func(r rune) bool { return r == '+' || r == ',' }) {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		return []string{"eng"}
	}
	return langs
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
