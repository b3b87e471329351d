// Package gallery turns uploaded photos into square PNG textures for the
// unboxing gallery and renders the default placeholder cards.
package gallery

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"io"

	_ "golang.org/x/image/bmp" // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// TextureSize is the edge length of every gallery texture.
const TextureSize = 256

// ContentType of every encoded texture.
const ContentType = "image/png"

// MaxUploadBytes caps a single photo upload.
const MaxUploadBytes = 20 << 20

// MaxDimension caps the width and height a photo may declare.
const MaxDimension = 8192

var (
	// ErrUnsupported is returned for data no registered decoder understands.
	ErrUnsupported = errors.New("unsupported image format")
	// ErrTooLarge is returned for images wider or taller than MaxDimension.
	ErrTooLarge = errors.New("image dimensions too large")
)

// Texture is an encoded, ready-to-serve gallery image.
type Texture struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
	// Format is the decoder that read the source, e.g. "jpeg".
	Format string
}

// Decode reads a JPEG, PNG, GIF, BMP or WebP image. The header is checked
// against MaxDimension before any pixels are allocated.
func Decode(r io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupported
		}
		return nil, "", fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupported
		}
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Fit crops the largest centered square out of src and scales it to
// TextureSize×TextureSize.
func Fit(src image.Image) *image.RGBA {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	crop := image.Rect(0, 0, side, side).Add(image.Pt(
		b.Min.X+(b.Dx()-side)/2,
		b.Min.Y+(b.Dy()-side)/2,
	))

	dst := image.NewRGBA(image.Rect(0, 0, TextureSize, TextureSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

// Encode PNG-encodes img.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Prepare decodes an uploaded photo and returns its gallery texture.
func Prepare(r io.Reader) (*Texture, error) {
	src, format, err := Decode(r)
	if err != nil {
		return nil, err
	}
	data, err := Encode(Fit(src))
	if err != nil {
		return nil, err
	}
	return &Texture{
		Data:        data,
		Width:       TextureSize,
		Height:      TextureSize,
		ContentType: ContentType,
		Format:      format,
	}, nil
}
