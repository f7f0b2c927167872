package ingest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoders
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth = 1200
	DefaultQuality  = 80
)

// Image is a normalized menu photo: JPEG encoded, at most MaxWidth wide.
type Image struct {
	JPEG   []byte
	Width  int
	Height int
}

// Base64 returns the JPEG bytes in standard base64.
func (img *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.JPEG)
}

// DataURL returns a URL that renders the image inline.
func (img *Image) DataURL() string {
	return "data:image/jpeg;base64," + img.Base64()
}

// Normalize decodes a JPEG, PNG, GIF or WebP image, scales it down to at
// most maxWidth pixels wide (keeping the aspect ratio, never upscaling) and
// re-encodes it as JPEG at the given quality (1-100). Transparent areas are
// flattened onto white.
func Normalize(raw []byte, maxWidth, quality int) (*Image, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("image %s has no pixels", format)
	}
	if width > maxWidth {
		height = max(1, height*maxWidth/width)
		width = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return &Image{JPEG: buf.Bytes(), Width: width, Height: height}, nil
}
