// Package images bounds proof images to a configured box and re-encodes
// oversized ones. Both entry points are pure: they never write into the
// caller's buffer and produce the same output for the same input.
package images

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Normalize fits an image within maxW x maxH, preserving aspect ratio and
// never upscaling. Images already inside the box pass through unchanged,
// which also makes a second pass a no-op. The returned media type reflects
// the encoded format.
func Normalize(data []byte, mediaType string, maxW, maxH int) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= maxW && cfg.Height <= maxH {
		if mediaType == "" {
			mediaType = "image/" + format
		}
		return data, mediaType, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	fitted := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	f, err := formatFor(format)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, f); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), "image/" + format, nil
}

// Compress fits the image within maxW x maxH and re-encodes it as JPEG at
// the given quality. Used by approval for proofs above the size threshold.
func Compress(data []byte, maxW, maxH, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	fitted := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFor(name string) (imaging.Format, error) {
	switch name {
	case "jpeg":
		return imaging.JPEG, nil
	case "png":
		return imaging.PNG, nil
	case "gif":
		return imaging.GIF, nil
	case "bmp":
		return imaging.BMP, nil
	case "tiff":
		return imaging.TIFF, nil
	}
	return 0, fmt.Errorf("unsupported image format %q", name)
}
