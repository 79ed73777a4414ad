// tesseract.go - Local text extraction with Tesseract

package tesseract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/ocr"
	"github.com/bosocmputer/prescription_analyzer/internal/processor"
)

func init() {
	ocr.RegisterLocalEngine(func(opts ocr.Options) ocr.TextExtractor {
		return NewEngine(opts)
	})
}

// recognizer is the subset of *gosseract.Client the engine drives
type recognizer interface {
	SetImageFromBytes(data []byte) error
	SetLanguage(langs ...string) error
	SetPageSegMode(mode gosseract.PageSegMode) error
	SetVariable(key gosseract.SettableVariable, value string) error
	SetConfigFile(fpath string) error
	Text() (string, error)
	Close() error
}

// initConfig holds init-only parameters. Tesseract reads the engine mode only
// while initialising, so it goes through a config file handed to Init rather
// than SetVariable. Mode 1 is LSTM only.
const initConfig = "tessedit_ocr_engine_mode 1\n"

func writeInitConfig() (string, error) {
	f, err := os.CreateTemp("", "tesseract-init-*.cfg")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(initConfig); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Engine implements ocr.TextExtractor using the gosseract client
type Engine struct {
	opts          ocr.Options
	clientFactory func() recognizer
}

// NewEngine constructs a Tesseract-backed extractor
func NewEngine(opts ocr.Options) *Engine {
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"eng"}
	}
	return &Engine{
		opts:          opts,
		clientFactory: func() recognizer { return gosseract.NewClient() },
	}
}

// GetProviderName returns the provider name
func (e *Engine) GetProviderName() string { return configs.OCRTesseract }

// ExtractText recognizes the image with the configured language packs. When
// the secondary packs are not installed the same session retries with
// English only. The client is closed on every path.
func (e *Engine) ExtractText(ctx context.Context, img ocr.Image, reqCtx *common.RequestContext) (string, error) {
	if img.IsPDF() {
		return "", common.UnsupportedInput("local OCR expects an image, got PDF")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data := img.Data
	if e.opts.EnablePreprocessing {
		reqCtx.StartSubStep("image_preprocessing")
		if processed, _, err := processor.Preprocess(img.Data, img.MIMEType, processor.LocalOCRMode, e.opts.MaxImageDimension); err != nil {
			reqCtx.LogWarning("preprocessing failed, using original image: %v", err)
		} else {
			data = processed
		}
		reqCtx.EndSubStep("")
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("set page segmentation: %w", err)
	}
	if cfgPath, err := writeInitConfig(); err != nil {
		reqCtx.LogWarning("cannot write tesseract init config, using default engine mode: %v", err)
	} else {
		defer os.Remove(cfgPath)
		if err := c.SetConfigFile(cfgPath); err != nil {
			return "", fmt.Errorf("set engine mode: %w", err)
		}
	}
	if err := c.SetVariable(gosseract.SettableVariable("preserve_interword_spaces"), "1"); err != nil {
		return "", fmt.Errorf("set variable preserve_interword_spaces: %w", err)
	}

	reqCtx.StartSubStep("recognize_text")
	text, err := e.recognize(c, e.opts.Languages)
	if err != nil && len(e.opts.Languages) > 1 {
		reqCtx.LogWarning("tesseract with %s failed (%v), falling back to eng", strings.Join(e.opts.Languages, "+"), err)
		text, err = e.recognize(c, []string{"eng"})
	}
	if err != nil {
		reqCtx.EndSubStep("failed")
		return "", fmt.Errorf("recognize text: %w", err)
	}

	text = strings.TrimSpace(text)
	reqCtx.EndSubStep(fmt.Sprintf("%d chars", len(text)))
	return text, nil
}

func (e *Engine) recognize(c recognizer, langs []string) (string, error) {
	if err := c.SetLanguage(langs...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	return c.Text()
}
