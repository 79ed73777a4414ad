// interface.go - Text extraction provider interface

package ocr

import (
	"context"

	"github.com/bosocmputer/prescription_analyzer/internal/common"
)

// Image is one uploaded prescription file
type Image struct {
	Data     []byte
	MIMEType string // image/jpeg, image/png or application/pdf
	Filename string
}

// IsPDF reports whether the upload is a PDF document
func (img Image) IsPDF() bool { return img.MIMEType == MIMEPDF }

// TextExtractor turns an image into raw text. An empty string is a valid
// result. Implementations make a single request per call and never retry.
type TextExtractor interface {
	ExtractText(ctx context.Context, img Image, reqCtx *common.RequestContext) (string, error)

	// GetProviderName returns the provider name ("tesseract", "google-vision")
	GetProviderName() string
}
