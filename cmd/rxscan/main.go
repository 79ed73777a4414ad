// main.go - Command-line front end: analyze one prescription file and print
// the result as JSON.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/ocr"
	_ "github.com/bosocmputer/prescription_analyzer/internal/ocr/tesseract"
	"github.com/bosocmputer/prescription_analyzer/internal/pipeline"
	"github.com/bosocmputer/prescription_analyzer/internal/ratelimit"
	"github.com/bosocmputer/prescription_analyzer/internal/translate"
)

func main() {
	var (
		file         = flag.String("file", "", "prescription image (JPEG/PNG) or PDF")
		ocrProvider  = flag.String("ocr", "", "OCR provider: tesseract or google-vision")
		llmProvider  = flag.String("llm", "", "LLM provider: gemini, openai or anthropic")
		lang         = flag.String("lang", "", "display language code, e.g. hi or ta")
		visionKey    = flag.String("vision-key", "", "Google Vision API key")
		geminiKey    = flag.String("gemini-key", "", "Gemini API key")
		openaiKey    = flag.String("openai-key", "", "OpenAI API key")
		anthropicKey = flag.String("anthropic-key", "", "Anthropic API key")
		translateKey = flag.String("translate-key", "", "Google Translation API key")
		settingsPath = flag.String("settings", configs.DefaultSettingsPath(), "settings file")
		save         = flag.Bool("save", false, "save the provider and key flags to the settings file")
		verbose      = flag.Bool("v", false, "print the processing summary to stderr")
	)
	flag.Parse()

	cfg := configs.Load()

	saved, err := configs.LoadSettings(*settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	flags := configs.ProviderConfig{
		OCRProvider:    *ocrProvider,
		LLMProvider:    *llmProvider,
		TargetLanguage: *lang,
		Credentials: configs.Credentials{
			VisionAPIKey:      *visionKey,
			GeminiAPIKey:      *geminiKey,
			OpenAIAPIKey:      *openaiKey,
			AnthropicAPIKey:   *anthropicKey,
			TranslationAPIKey: *translateKey,
		},
	}

	if *save {
		if err := configs.SaveSettings(*settingsPath, saved.WithOverrides(flags)); err != nil {
			log.Fatalf("Failed to save settings: %v", err)
		}
		log.Printf("Settings saved to %s", *settingsPath)
		if *file == "" {
			return
		}
	}

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: rxscan -file prescription.jpg [-lang hi] [-llm openai]")
		printLanguages()
		os.Exit(2)
	}

	providers := cfg.Providers().WithOverrides(saved).WithOverrides(flags)

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	img, err := ocr.DetectImage(data, *file)
	if err != nil {
		fail(err, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	reqCtx := common.NewRequestContext("cli")
	analyzer := pipeline.NewAnalyzer(cfg, ratelimit.NewLimiter(cfg.ProviderRequestsPerMinute))

	result, err := analyzer.Analyze(ctx, img, providers, reqCtx)
	if err != nil {
		fail(err, reqCtx)
	}

	if *verbose {
		printJSON(os.Stderr, reqCtx.GetSummary())
	}
	printJSON(os.Stdout, result)
}

func fail(err error, reqCtx *common.RequestContext) {
	body := common.UserFacing(err)
	if reqCtx != nil {
		body["processing_summary"] = reqCtx.GetPartialSummary()
	}
	printJSON(os.Stderr, body)
	os.Exit(1)
}

func printJSON(f *os.File, v interface{}) {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Printf("Failed to encode output: %v", err)
	}
}

func printLanguages() {
	fmt.Fprintln(os.Stderr, "languages:")
	for _, l := range translate.Languages {
		fmt.Fprintf(os.Stderr, "  %-3s %s\n", l.Code, l.Name)
	}
}
