package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func dimensions(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestNormalizeFitsOversizedImage(t *testing.T) {
	data := encodeJPEG(t, 1600, 1200)
	out, mediaType, err := Normalize(data, "image/jpeg", 800, 600)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if mediaType != "image/jpeg" {
		t.Fatalf("media type %q, want image/jpeg", mediaType)
	}
	w, h := dimensions(t, out)
	if w > 800 || h > 600 {
		t.Fatalf("normalized to %dx%d, want within 800x600", w, h)
	}
	// aspect ratio preserved
	if w != 800 || h != 600 {
		t.Fatalf("4:3 input should fill the box, got %dx%d", w, h)
	}
}

func TestNormalizeLeavesSmallImageUntouched(t *testing.T) {
	data := encodeJPEG(t, 400, 300)
	out, mediaType, err := Normalize(data, "", 800, 600)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("small image was re-encoded")
	}
	if mediaType != "image/jpeg" {
		t.Fatalf("media type %q, want image/jpeg", mediaType)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	data := encodeJPEG(t, 1600, 1200)
	once, _, err := Normalize(data, "image/jpeg", 800, 600)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, _, err := Normalize(once, "image/jpeg", 800, 600)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Fatalf("second pass changed bytes")
	}
}

func TestNormalizeKeepsSourceFormat(t *testing.T) {
	data := encodePNG(t, 1000, 1000)
	out, mediaType, err := Normalize(data, "image/png", 800, 600)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if mediaType != "image/png" {
		t.Fatalf("media type %q, want image/png", mediaType)
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(out)); err != nil || format != "png" {
		t.Fatalf("output format %q (err %v), want png", format, err)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, _, err := Normalize([]byte("not an image"), "", 800, 600); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestCompressProducesBoundedJPEG(t *testing.T) {
	data := encodeJPEG(t, 1600, 1200)
	out, err := Compress(data, 800, 600, 60)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode compressed: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("compressed format %q, want jpeg", format)
	}
	if cfg.Width > 800 || cfg.Height > 600 {
		t.Fatalf("compressed to %dx%d, want within 800x600", cfg.Width, cfg.Height)
	}
}
