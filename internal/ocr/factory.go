// factory.go - Text extractor factory

package ocr

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/ratelimit"
)

// Options carries the non-credential settings shared by extractors
type Options struct {
	Languages           []string // local engine language packs, e.g. eng, hin
	VisionEndpoint      string   // override for the Vision API base URL
	EnablePreprocessing bool
	MaxImageDimension   int
	Timeout             time.Duration
	Limiter             *ratelimit.Limiter
}

// OptionsFromConfig derives extractor options from the service configuration
func OptionsFromConfig(cfg *configs.Config, limiter *ratelimit.Limiter) Options {
	return Options{
		Languages:           cfg.OCRLanguages,
		VisionEndpoint:      cfg.VisionEndpoint,
		EnablePreprocessing: cfg.EnableImagePreprocessing,
		MaxImageDimension:   cfg.MaxImageDimension,
		Timeout:             time.Duration(cfg.OCRTimeout) * time.Second,
		Limiter:             limiter,
	}
}

// LocalEngineFactory builds the local recognition engine
type LocalEngineFactory func(opts Options) TextExtractor

var (
	localMu     sync.RWMutex
	localEngine LocalEngineFactory
)

// RegisterLocalEngine installs the local engine; the tesseract package calls
// it from init so binaries without cgo can still serve the cloud path.
func RegisterLocalEngine(f LocalEngineFactory) {
	localMu.Lock()
	defer localMu.Unlock()
	localEngine = f
}

// CreateTextExtractor creates the extractor selected in p. Only the key of
// the selected provider is handed over.
func CreateTextExtractor(p configs.ProviderConfig, opts Options) (TextExtractor, error) {
	switch p.OCRProvider {
	case configs.OCRTesseract:
		localMu.RLock()
		f := localEngine
		localMu.RUnlock()
		if f == nil {
			return nil, fmt.Errorf("local OCR engine is not available in this build")
		}
		log.Printf("🔵 Creating Tesseract text extractor (%v)", opts.Languages)
		return f(opts), nil

	case configs.OCRGoogleVision:
		log.Printf("🔷 Creating Google Vision text extractor")
		return NewVisionExtractor(p.Credentials.VisionAPIKey, opts), nil

	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s (supported: %s, %s)",
			p.OCRProvider, configs.OCRTesseract, configs.OCRGoogleVision)
	}
}
