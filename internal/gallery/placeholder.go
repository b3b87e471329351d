package gallery

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ayusman/yuletide/internal/scene"
)

// placeholderColors maps each placeholder handle to its card color.
var placeholderColors = map[scene.Texture]color.RGBA{
	"placeholder:red":     {0xff, 0x00, 0x00, 0xff},
	"placeholder:green":   {0x00, 0xff, 0x00, 0xff},
	"placeholder:blue":    {0x00, 0x00, 0xff, 0xff},
	"placeholder:yellow":  {0xff, 0xff, 0x00, 0xff},
	"placeholder:magenta": {0xff, 0x00, 0xff, 0xff},
	"placeholder:cyan":    {0x00, 0xff, 0xff, 0xff},
}

const (
	cardInset    = 10
	captionSize  = 30
	captionLine1 = "MERRY MAGIC"
	captionLine2 = "WONDERS"
)

var (
	placeholderOnce sync.Once
	placeholderPNG  map[scene.Texture][]byte
	placeholderErr  error
)

// ErrUnknownPlaceholder is returned for a placeholder handle with no card.
var ErrUnknownPlaceholder = errors.New("unknown placeholder")

// IsPlaceholder reports whether tex names a built-in placeholder card.
func IsPlaceholder(tex scene.Texture) bool {
	return strings.HasPrefix(string(tex), "placeholder:")
}

// RenderPlaceholder draws the card for one placeholder handle.
func RenderPlaceholder(tex scene.Texture) (*image.RGBA, error) {
	c, ok := placeholderColors[tex]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPlaceholder, tex)
	}
	face, err := captionFace()
	if err != nil {
		return nil, err
	}
	defer face.Close()

	card := image.NewRGBA(image.Rect(0, 0, TextureSize, TextureSize))
	draw.Draw(card, card.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)

	inset := image.Rect(cardInset, cardInset, TextureSize-cardInset, TextureSize-cardInset)
	draw.Draw(card, inset, image.NewUniform(color.NRGBA{0xff, 0xff, 0xff, 0x33}), image.Point{}, draw.Over)

	d := &font.Drawer{Dst: card, Src: image.White, Face: face}
	for _, line := range []struct {
		text     string
		baseline int
	}{
		{captionLine1, 110},
		{captionLine2, 160},
	} {
		width := d.MeasureString(line.text)
		d.Dot = fixed.Point26_6{
			X: fixed.I(TextureSize/2) - width/2,
			Y: fixed.I(line.baseline),
		}
		d.DrawString(line.text)
	}
	return card, nil
}

// PlaceholderPNG returns the encoded card for a placeholder handle. Cards
// are rendered once and shared.
func PlaceholderPNG(tex scene.Texture) ([]byte, error) {
	placeholderOnce.Do(func() {
		placeholderPNG = make(map[scene.Texture][]byte, len(placeholderColors))
		for _, t := range scene.PlaceholderTextures {
			img, err := RenderPlaceholder(t)
			if err != nil {
				placeholderErr = err
				return
			}
			data, err := Encode(img)
			if err != nil {
				placeholderErr = err
				return
			}
			placeholderPNG[t] = data
		}
	})
	if placeholderErr != nil {
		return nil, placeholderErr
	}
	data, ok := placeholderPNG[tex]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPlaceholder, tex)
	}
	return data, nil
}

func captionFace() (font.Face, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    captionSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	return face, nil
}
