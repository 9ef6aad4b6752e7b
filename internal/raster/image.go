// Package raster implements the image primitive and geometry engine: a thin
// façade over image.RGBA exposing area extraction, affine transforms,
// embedding and PNG encoding, plus the stretch/shrink/tms_align operations
// that drive pyramid level transitions.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Image is a 4-channel, 8-bit-per-sample raster.
type Image struct {
	rgba *image.RGBA
}

// New wraps an existing *image.RGBA.
func New(img *image.RGBA) *Image {
	return &Image{rgba: img}
}

// NewBlank allocates a w×h image filled with bg.
func NewBlank(w, h int, bg color.RGBA) *Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if bg != (color.RGBA{}) {
		pix := img.Pix
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = bg.R, bg.G, bg.B, bg.A
		}
	}
	return &Image{rgba: img}
}

// Decode reads an image file, converting it to RGBA if necessary. Callers
// are responsible for importing the codec package for the source format
// (e.g. golang.org/x/image/tiff) so it registers with image.Decode.
func Decode(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("raster: decode %s: %w", path, err)
	}
	return New(toRGBA(src)), nil
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, src.At(x, y))
		}
	}
	return dst
}

// Width returns the image width in pixels.
func (im *Image) Width() int { return im.rgba.Bounds().Dx() }

// Height returns the image height in pixels.
func (im *Image) Height() int { return im.rgba.Bounds().Dy() }

// RGBA exposes the underlying *image.RGBA for callers that need direct
// pixel access (tests).
func (im *Image) RGBA() *image.RGBA { return im.rgba }

// ExtractArea returns a copy of the w×h window at (left, top). Pixels of
// the window that fall outside the source bounds are left transparent.
func (im *Image) ExtractArea(left, top, w, h int) *Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	src := im.rgba
	srcB := src.Bounds()
	for y := 0; y < h; y++ {
		sy := top + y
		if sy < srcB.Min.Y || sy >= srcB.Max.Y {
			continue
		}
		for x := 0; x < w; x++ {
			sx := left + x
			if sx < srcB.Min.X || sx >= srcB.Max.X {
				continue
			}
			out.SetRGBA(x, y, src.RGBAAt(sx, sy))
		}
	}
	return &Image{rgba: out}
}

// Embed places im at (x, y) inside a new w×h canvas filled with bg,
// matching the "background" semantic of spec.md's embed: transparent
// (0,0,0,0) for the padding case used by tms_align.
func (im *Image) Embed(bg color.RGBA, x, y, w, h int) *Image {
	canvas := NewBlank(w, h, bg)
	src := im.rgba
	srcB := src.Bounds()
	for sy := srcB.Min.Y; sy < srcB.Max.Y; sy++ {
		dy := y + (sy - srcB.Min.Y)
		if dy < 0 || dy >= h {
			continue
		}
		for sx := srcB.Min.X; sx < srcB.Max.X; sx++ {
			dx := x + (sx - srcB.Min.X)
			if dx < 0 || dx >= w {
				continue
			}
			canvas.rgba.SetRGBA(dx, dy, src.RGBAAt(sx, sy))
		}
	}
	return canvas
}

// RawBytes returns the raw RGBA pixel buffer backing the image. Two tiles
// dedupe iff these buffers are bytewise equal.
func (im *Image) RawBytes() []byte {
	return im.rgba.Pix
}

// EncodePNG writes the image as a PNG file at path.
func (im *Image) EncodePNG(path string) error {
	data, err := im.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode renders the image as PNG bytes, matching the teacher's
// best-speed compression setting.
func (im *Image) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, im.rgba); err != nil {
		return nil, fmt.Errorf("raster: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
