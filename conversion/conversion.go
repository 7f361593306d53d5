package conversion

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultQuality is the lossy encode quality used when a transform does
// not specify one.
const DefaultQuality = 75

// Transform describes one requested rendering of a primary image file.
// It is an immutable value: build it fully, then pass it to the engine.
// The zero Transform means "the primary file, untouched".
type Transform struct {
	Width   int
	Height  int
	Format  string
	Quality int
}

// Crop returns a transform that fits the image to exact dimensions,
// cropping the excess.
func Crop(width, height int) Transform {
	return Transform{Width: width, Height: height}
}

// WithFormat returns a copy of the transform re-encoding to format.
func (t Transform) WithFormat(format string) Transform {
	t.Format = format
	return t
}

// WithQuality returns a copy of the transform with a lossy encode
// quality. Ignored for lossless formats.
func (t Transform) WithQuality(quality int) Transform {
	t.Quality = quality
	return t
}

// IsZero reports whether the transform requests no change at all.
// Quality alone never triggers a conversion.
func (t Transform) IsZero() bool {
	return t.Width == 0 && t.Height == 0 && t.Format == ""
}

// EffectiveQuality is the quality to encode with.
func (t Transform) EffectiveQuality() int {
	if t.Quality == 0 {
		return DefaultQuality
	}
	return t.Quality
}

// Suffix is the deterministic filename fragment identifying this
// transform: "-conv", "-w{width}" and "-h{height}" when set, then the
// target extension. The same transform always yields the same suffix,
// which is what makes cache-hit detection and later cleanup possible.
// originalExt is the primary file's extension without the dot.
func (t Transform) Suffix(originalExt string) string {
	var b strings.Builder
	b.WriteString("-conv")

	if t.Width > 0 {
		fmt.Fprintf(&b, "-w%d", t.Width)
	}
	if t.Height > 0 {
		fmt.Fprintf(&b, "-h%d", t.Height)
	}

	ext := t.Format
	if ext == "" {
		ext = originalExt
	}
	b.WriteString("." + ext)

	return b.String()
}

// DerivedPath resolves the transform against a primary file path: the
// derived file lives in the same directory, named stem plus suffix.
func (t Transform) DerivedPath(primary string) string {
	dir := filepath.Dir(primary)
	base := filepath.Base(primary)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	suffix := t.Suffix(strings.TrimPrefix(ext, "."))

	return filepath.ToSlash(filepath.Join(dir, stem+suffix))
}
