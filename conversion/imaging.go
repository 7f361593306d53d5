package conversion

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Renderer turns primary file bytes into encoded derivative bytes.
type Renderer interface {
	Render(ctx context.Context, src []byte, originalExt string, t Transform) ([]byte, error)
}

// ImagingRenderer renders transforms with disintegration/imaging.
type ImagingRenderer struct{}

func NewImagingRenderer() *ImagingRenderer {
	return &ImagingRenderer{}
}

// Render decodes src, applies the transform's resize policy and encodes
// the result. Both dimensions set means fit-and-crop to the exact target
// size; a single dimension resizes preserving aspect ratio; neither
// leaves the pixels alone (re-encode only).
func (r *ImagingRenderer) Render(ctx context.Context, src []byte, originalExt string, t Transform) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var result image.Image
	switch {
	case t.Width > 0 && t.Height > 0:
		result = imaging.Fill(img, t.Width, t.Height, imaging.Center, imaging.Lanczos)
	case t.Width > 0:
		result = imaging.Resize(img, t.Width, 0, imaging.Lanczos)
	case t.Height > 0:
		result = imaging.Resize(img, 0, t.Height, imaging.Lanczos)
	default:
		result = img
	}

	format := t.Format
	if format == "" {
		format = originalExt
	}

	return encode(result, format, t.EffectiveQuality())
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, fmt.Errorf("failed to encode gif: %w", err)
		}
	case "webp":
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("failed to encode webp: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	return buf.Bytes(), nil
}

// MimeType maps a conversion format to its MIME type.
func MimeType(format string) string {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
