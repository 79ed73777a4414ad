package processor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			if (x/10)%2 == 0 {
				c = color.RGBA{A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestPreprocessDownscalesLongestSide(t *testing.T) {
	data := encodePNG(t, 400, 200)

	out, mime, err := Preprocess(data, "image/png", UploadMode, 100)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("mime = %q", mime)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Fatalf("size = %v, want 100x50", img.Bounds().Size())
	}
}

func TestPreprocessLocalModeKeepsSmallImages(t *testing.T) {
	data := encodePNG(t, 60, 40)

	out, mime, err := Preprocess(data, "image/jpeg", LocalOCRMode, 2500)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if mime != "image/jpeg" {
		t.Fatalf("mime = %q", mime)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 60 {
		t.Fatalf("width = %d, want unchanged 60", img.Bounds().Dx())
	}
}

func TestPreprocessRejectsGarbage(t *testing.T) {
	if _, _, err := Preprocess([]byte("not an image"), "image/png", UploadMode, 100); err == nil {
		t.Fatalf("expected decode error")
	}
}
