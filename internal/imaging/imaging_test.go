package imaging_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/amonks/assetpipe/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quality = imaging.Quality{AVIF: 50, WebP: 75, JPEG: 80}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, (&png.Encoder{CompressionLevel: png.NoCompression}).Encode(&buf, img))
	return buf.Bytes()
}

func TestExt(t *testing.T) {
	assert.Equal(t, ".avif", imaging.Ext("hero.jpg", imaging.AVIF))
	assert.Equal(t, ".webp", imaging.Ext("hero.jpg", imaging.WebP))
	assert.Equal(t, ".jpg", imaging.Ext("hero.JPG", imaging.Original))
}

func TestWebP(t *testing.T) {
	out, err := imaging.Encode("logo.png", testPNG(t), imaging.WebP, quality)
	require.NoError(t, err)
	require.Greater(t, len(out), 12)
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, "WEBP", string(out[8:12]))
}

func TestAVIF(t *testing.T) {
	out, err := imaging.Encode("logo.png", testPNG(t), imaging.AVIF, quality)
	require.NoError(t, err)
	require.Greater(t, len(out), 12)
	assert.Equal(t, "ftyp", string(out[4:8]))
	assert.Equal(t, "avif", string(out[8:12]))
}

func TestOriginal(t *testing.T) {
	t.Run("png gets smaller and still decodes", func(t *testing.T) {
		src := testPNG(t)
		out, err := imaging.Encode("logo.png", src, imaging.Original, quality)
		require.NoError(t, err)
		assert.Less(t, len(out), len(src))
		_, err = png.Decode(bytes.NewReader(out))
		assert.NoError(t, err)
	})

	t.Run("jpeg never grows", func(t *testing.T) {
		img, err := png.Decode(bytes.NewReader(testPNG(t)))
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 10}))
		src := buf.Bytes()

		out, err := imaging.Encode("photo.jpg", src, imaging.Original, quality)
		require.NoError(t, err)
		assert.Equal(t, src, out)
	})

	t.Run("svg is minified", func(t *testing.T) {
		src := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<!-- an icon -->
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
    <path d="M 0.000 0.000 L 10.000 10.000" />
</svg>
`)
		out, err := imaging.Encode("icon.svg", src, imaging.Original, quality)
		require.NoError(t, err)
		assert.Less(t, len(out), len(src))
		assert.NotContains(t, string(out), "an icon")
		assert.Contains(t, string(out), "<path")
	})
}

func TestErrors(t *testing.T) {
	_, err := imaging.Encode("icon.svg", []byte("<svg/>"), imaging.AVIF, quality)
	assert.EqualError(t, err, "cannot encode svg 'icon.svg' as avif")

	_, err = imaging.Encode("broken.png", []byte("not a png"), imaging.WebP, quality)
	assert.ErrorContains(t, err, "decoding 'broken.png'")
}
