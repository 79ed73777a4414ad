// detect.go - Upload type detection

package ocr

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bosocmputer/prescription_analyzer/internal/common"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEPDF  = "application/pdf"
)

var extensionTypes = map[string]string{
	".jpg":  MIMEJPEG,
	".jpeg": MIMEJPEG,
	".png":  MIMEPNG,
	".pdf":  MIMEPDF,
}

// DetectImage sniffs the content type of an upload. The file extension is
// only consulted when sniffing is inconclusive.
func DetectImage(data []byte, filename string) (Image, error) {
	if len(data) == 0 {
		return Image{}, common.UnsupportedInput("empty upload")
	}

	sniffed := http.DetectContentType(data)
	if i := strings.Index(sniffed, ";"); i >= 0 {
		sniffed = sniffed[:i]
	}

	mime := ""
	switch sniffed {
	case MIMEJPEG, MIMEPNG, MIMEPDF:
		mime = sniffed
	case "application/octet-stream", "text/plain":
		mime = extensionTypes[strings.ToLower(filepath.Ext(filename))]
	}

	if mime == "" {
		return Image{}, common.UnsupportedInput("unsupported file type %s (accepted: JPEG, PNG, PDF)", sniffed)
	}

	return Image{Data: data, MIMEType: mime, Filename: filename}, nil
}
