package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func TestNormalizeThumbnailFillsTarget(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 360, 640))
	for x := 0; x < 360; x++ {
		for y := 0; y < 640; y++ {
			src.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var in bytes.Buffer
	if err := png.Encode(&in, src); err != nil {
		t.Fatalf("encode source: %v", err)
	}

	out, err := NormalizeThumbnail(in.Bytes())
	if err != nil {
		t.Fatalf("NormalizeThumbnail returned error: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not jpeg: %v", err)
	}
	if cfg.Width != ThumbnailWidth || cfg.Height != ThumbnailHeight {
		t.Fatalf("thumbnail size = %dx%d, want %dx%d", cfg.Width, cfg.Height, ThumbnailWidth, ThumbnailHeight)
	}
}

func TestNormalizeThumbnailRejectsGarbage(t *testing.T) {
	_, err := NormalizeThumbnail([]byte("not an image"))
	if err == nil {
		t.Fatal("expected error for undecodable input")
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Fatalf("unexpected error message: %v", err)
	}
}
