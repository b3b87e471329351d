package gallery

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/yuletide/internal/scene"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFit_SquareCenterCrop(t *testing.T) {
	// Wide image: red margins left and right of a blue centre square.
	src := solid(300, 100, color.RGBA{0xff, 0, 0, 0xff})
	for y := 0; y < 100; y++ {
		for x := 100; x < 200; x++ {
			src.Set(x, y, color.RGBA{0, 0, 0xff, 0xff})
		}
	}

	out := Fit(src)
	require.Equal(t, image.Rect(0, 0, TextureSize, TextureSize), out.Bounds())

	r, g, b, _ := out.At(TextureSize/2, TextureSize/2).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Equal(t, uint32(0xffff), b)

	_, _, b, _ = out.At(2, 2).RGBA()
	assert.Greater(t, b, uint32(0xf000), "edges should come from the centre crop")
}

func TestPrepare(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(64, 48, color.White), nil))

	tex, err := Prepare(&buf)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", tex.Format)
	assert.Equal(t, ContentType, tex.ContentType)
	assert.Equal(t, TextureSize, tex.Width)

	img, err := png.Decode(bytes.NewReader(tex.Data))
	require.NoError(t, err)
	assert.Equal(t, TextureSize, img.Bounds().Dx())
	assert.Equal(t, TextureSize, img.Bounds().Dy())
}

func TestPrepare_Unsupported(t *testing.T) {
	_, err := Prepare(strings.NewReader("definitely not an image"))
	assert.True(t, errors.Is(err, ErrUnsupported), "got %v", err)
}

// pngHeader returns a PNG signature and IHDR chunk declaring w×h RGBA
// pixels, with no image data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecode_RejectsOversizedHeader(t *testing.T) {
	tests := []struct {
		name string
		w, h uint32
	}{
		{"huge square", 60000, 60000},
		{"too wide", MaxDimension + 1, 10},
		{"too tall", 10, MaxDimension + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(bytes.NewReader(pngHeader(tt.w, tt.h)))
			assert.ErrorIs(t, err, ErrTooLarge)

			_, err = Prepare(bytes.NewReader(pngHeader(tt.w, tt.h)))
			assert.ErrorIs(t, err, ErrTooLarge)
		})
	}

	t.Run("at the limit passes the header check", func(t *testing.T) {
		_, _, err := Decode(bytes.NewReader(pngHeader(MaxDimension, 1)))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrTooLarge)
	})
}

func TestRenderPlaceholder(t *testing.T) {
	card, err := RenderPlaceholder("placeholder:red")
	require.NoError(t, err)
	require.Equal(t, TextureSize, card.Bounds().Dx())

	// Border keeps the pure card color, the inset is lightened.
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, card.RGBAAt(2, 2))
	inset := card.RGBAAt(20, 240)
	assert.Equal(t, uint8(0xff), inset.R)
	assert.Greater(t, inset.G, uint8(0x20))

	// Some caption pixels are white.
	white := 0
	for x := 0; x < TextureSize; x++ {
		if card.RGBAAt(x, 100) == (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
			white++
		}
	}
	assert.Positive(t, white)

	_, err = RenderPlaceholder("placeholder:plaid")
	assert.Error(t, err)
}

func TestPlaceholderPNG_AllHandles(t *testing.T) {
	for _, tex := range scene.PlaceholderTextures {
		t.Run(string(tex), func(t *testing.T) {
			assert.True(t, IsPlaceholder(tex))
			data, err := PlaceholderPNG(tex)
			require.NoError(t, err)
			_, err = png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
		})
	}
	assert.False(t, IsPlaceholder("3f8a"))
}
