// Package imaging re-encodes raster and vector images for the web.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
)

// Format is a kind of output.
type Format string

const (
	AVIF Format = "avif"
	WebP Format = "webp"

	// Original re-encodes an image in its own format, optimized for size.
	Original Format = "original"
)

// Quality settings, each from 1 to 100.
type Quality struct {
	AVIF int
	WebP int
	JPEG int
}

// Ext returns the extension, including the leading dot, of the file that
// encoding a source named name into f produces.
func Ext(name string, f Format) string {
	if f == Original {
		return strings.ToLower(filepath.Ext(name))
	}
	return "." + string(f)
}

// Encode converts src, the contents of a file called name, into f. The
// Original format never grows a file: if the re-encode is not smaller, src
// is returned as is.
func Encode(name string, src []byte, f Format, q Quality) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".svg" {
		if f != Original {
			return nil, fmt.Errorf("cannot encode svg '%s' as %s", filepath.Base(name), f)
		}
		return smaller(minifySVG(src))
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decoding '%s': %w", filepath.Base(name), err)
	}

	var buf bytes.Buffer
	switch f {
	case AVIF:
		err = avif.Encode(&buf, img, avif.Options{Quality: q.AVIF, QualityAlpha: q.AVIF, Speed: 8})
	case WebP:
		err = webp.Encode(&buf, img, webp.Options{Quality: q.WebP, Method: 4})
	case Original:
		switch ext {
		case ".jpg", ".jpeg":
			err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: q.JPEG})
		case ".png":
			err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&buf, img)
		default:
			return nil, fmt.Errorf("unsupported image '%s'", filepath.Base(name))
		}
		if err != nil {
			return nil, err
		}
		if buf.Len() >= len(src) {
			return src, nil
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format '%s'", f)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding '%s' as %s: %w", filepath.Base(name), f, err)
	}
	return buf.Bytes(), nil
}

func minifySVG(src []byte) ([]byte, []byte, error) {
	m := minify.New()
	m.AddFunc("image/svg+xml", svg.Minify)
	out, err := m.Bytes("image/svg+xml", src)
	return src, out, err
}

func smaller(src, out []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	if len(out) >= len(src) {
		return src, nil
	}
	return out, nil
}
