// Package imaging decodes uploaded images and writes the resized JPEG
// renditions served by the frontend.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// LargeArt is the longest side of an art piece's large rendition.
	LargeArt = 1000
	// LargeDemo is the longest side of a psalm demo's large rendition.
	LargeDemo = 800
	// Thumbnail is the longest side of every thumbnail.
	Thumbnail = 64
	// Quality is the JPEG quality used for every rendition.
	Quality = 90
	// MaxPixels caps the declared width x height of an upload.
	MaxPixels = 64 << 20
)

// ErrNotImage is returned when an upload cannot be decoded as an image.
var ErrNotImage = errors.New("not a valid image")

// Decode reads an image in any registered format, refusing images larger
// than MaxPixels.
func Decode(r io.Reader) (image.Image, error) {
	return decodeLimited(r, MaxPixels)
}

// decodeLimited checks the declared dimensions from the header before
// decoding any pixel data.
func decodeLimited(r io.Reader, maxPixels int) (image.Image, error) {
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxPixels/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrNotImage, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return img, nil
}

// ScaledSize returns the dimensions of a w x h image scaled so its longest
// side is m, keeping the aspect ratio. Square images become m x m.
func ScaledSize(w, h, m int) (int, int) {
	switch {
	case w > h:
		return m, atLeastOne(m * h / w)
	case h > w:
		return atLeastOne(m * w / h), m
	default:
		return m, m
	}
}

// Resize scales img so its longest side is m using Catmull-Rom resampling.
func Resize(img image.Image, m int) image.Image {
	b := img.Bounds()
	w, h := ScaledSize(b.Dx(), b.Dy(), m)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func encode(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: Quality})
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
