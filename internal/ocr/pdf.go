// pdf.go - Embedded text layer of PDF uploads

package ocr

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bosocmputer/prescription_analyzer/internal/common"
)

// ExtractPDFText reads the text layer of a PDF. Scanned PDFs without a text
// layer are reported as unsupported input.
func ExtractPDFText(img Image, reqCtx *common.RequestContext) (text string, err error) {
	defer func() {
		// the reader panics on some malformed xref tables
		if r := recover(); r != nil {
			text, err = "", common.UnsupportedInput("unreadable PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(img.Data), int64(len(img.Data)))
	if err != nil {
		return "", common.UnsupportedInput("unreadable PDF: %v", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	text = strings.TrimSpace(buf.String())
	if text == "" {
		return "", common.UnsupportedInput("PDF has no text layer (scanned PDF); upload a photo of the prescription instead")
	}

	if reqCtx != nil {
		reqCtx.LogInfo("PDF text layer: %d pages, %d chars", reader.NumPage(), len(text))
	}
	return text, nil
}
