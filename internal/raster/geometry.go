package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// Errors surfaced by the geometry engine (spec.md §7).
var (
	ErrInvalidScale      = errors.New("raster: invalid scale")
	ErrMisalignedImage   = errors.New("raster: image dimensions are not whole-tile multiples")
	ErrInvalidResolution = errors.New("raster: invalid resolution transition")
)

// XY is a pair of numeric coordinates, used both as integer pixel offsets
// and as fractional tile offsets during level transitions.
type XY struct {
	X, Y float64
}

// Scale returns offset scaled by f.
func (o XY) Scale(f float64) XY { return XY{o.X * f, o.Y * f} }

// Floor returns the component-wise floor as integer tile coordinates.
func (o XY) Floor() (int, int) {
	return int(math.Floor(o.X)), int(math.Floor(o.Y))
}

// Affine applies the matrix [a b; c d] plus offset (ox, oy) to produce an
// outW×outH image whose pixel (X, Y) samples the input at the inverse
// mapping of the virtual coordinate (outX+X, outY+Y). Matches spec.md §3's
// Image.affine signature; stretch and shrink only ever use the diagonal
// case (b=c=0), but the general 2x2 solve is implemented for fidelity to
// the declared interface.
func (im *Image) Affine(a, b, c, d, ox, oy, outX, outY float64, outW, outH int) (*Image, error) {
	det := a*d - b*c
	if det == 0 {
		return nil, fmt.Errorf("raster: affine: singular matrix")
	}

	out := NewBlank(outW, outH, color.RGBA{})
	srcB := im.rgba.Bounds()
	w, h := srcB.Dx(), srcB.Dy()

	for y := 0; y < outH; y++ {
		vy := outY + float64(y)
		for x := 0; x < outW; x++ {
			vx := outX + float64(x)
			// Solve [a b; c d] * [sx sy]^T = [vx-ox, vy-oy]^T.
			rx, ry := vx-ox, vy-oy
			sx := (d*rx - b*ry) / det
			sy := (a*ry - c*rx) / det

			if sx < -0.5 || sy < -0.5 || sx > float64(w)-0.5 || sy > float64(h)-0.5 {
				continue
			}
			out.rgba.SetRGBA(x, y, bilinearSample(im.rgba, sx, sy, w, h))
		}
	}
	return out, nil
}

// bilinearSample samples img at fractional (x, y), clamping to bounds.
func bilinearSample(img *image.RGBA, x, y float64, w, h int) color.RGBA {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1, y1 := x0+1, y0+1
	fx, fy := x-float64(x0), y-float64(y0)

	c00 := pixelAt(img, x0, y0, w, h)
	c10 := pixelAt(img, x1, y0, w, h)
	c01 := pixelAt(img, x0, y1, w, h)
	c11 := pixelAt(img, x1, y1, w, h)

	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }
	lerp8 := func(a, b uint8, t float64) float64 { return lerp(float64(a), float64(b), t) }

	r := lerp(lerp8(c00.R, c10.R, fx), lerp8(c01.R, c11.R, fx), fy)
	g := lerp(lerp8(c00.G, c10.G, fx), lerp8(c01.G, c11.G, fx), fy)
	bch := lerp(lerp8(c00.B, c10.B, fx), lerp8(c01.B, c11.B, fx), fy)
	a := lerp(lerp8(c00.A, c10.A, fx), lerp8(c01.A, c11.A, fx), fy)

	return color.RGBA{R: clampByte(r), G: clampByte(g), B: clampByte(bch), A: clampByte(a)}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func pixelAt(img *image.RGBA, x, y, w, h int) color.RGBA {
	if x < 0 {
		x = 0
	}
	if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= h {
		y = h - 1
	}
	return img.RGBAAt(x, y)
}

// Stretch upsamples by (xscale, yscale), both >= 1.0, using pixel-center
// alignment (spec.md §4.1). W < 2 || H < 2 is rejected rather than
// dividing by zero, per the spec's Open Question resolution.
func (im *Image) Stretch(xscale, yscale float64) (*Image, error) {
	if xscale < 1.0 || yscale < 1.0 {
		return nil, fmt.Errorf("%w: stretch requires xscale >= 1.0 and yscale >= 1.0, got (%v, %v)", ErrInvalidScale, xscale, yscale)
	}
	w, h := im.Width(), im.Height()
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("%w: stretch requires W >= 2 and H >= 2, got (%d, %d)", ErrInvalidScale, w, h)
	}

	n := int(math.Floor(float64(w) * xscale))
	m := int(math.Floor(float64(h) * yscale))

	a := float64(n-1) / float64(w-1)
	d := float64(m-1) / float64(h-1)

	return im.Affine(a, 0, 0, d, 0, 0, 0, 0, n, m)
}

// Shrink downsamples by (xscale, yscale), both in (0, 1], using
// pixel-corner alignment (spec.md §4.1).
func (im *Image) Shrink(xscale, yscale float64) (*Image, error) {
	if xscale <= 0 || xscale > 1.0 || yscale <= 0 || yscale > 1.0 {
		return nil, fmt.Errorf("%w: shrink requires 0 < xscale <= 1.0 and 0 < yscale <= 1.0, got (%v, %v)", ErrInvalidScale, xscale, yscale)
	}
	w, h := im.Width(), im.Height()
	n := int(math.Floor(float64(w) * xscale))
	m := int(math.Floor(float64(h) * yscale))

	offsetX := (xscale - 1) / 2
	offsetY := (yscale - 1) / 2

	return im.Affine(xscale, 0, 0, yscale, offsetX, offsetY, 0, 0, n, m)
}

// TMSAlign pads the image on the right and bottom to whole-tile multiples,
// positioning the original content per the level's fractional offset. The
// ceil((W+x/2)/tile_width) formula is reproduced verbatim from the
// original implementation; see DESIGN.md's Open Question resolution.
func (im *Image) TMSAlign(tileWidth, tileHeight int, offset XY) (*Image, error) {
	w, h := im.Width(), im.Height()

	x := mod(roundInt(offset.X*float64(tileWidth)), tileWidth)
	y := mod(h-roundInt(offset.Y*float64(tileHeight)), tileHeight)

	tilesX := int(math.Ceil((float64(w) + float64(x)/2) / float64(tileWidth)))
	tilesY := int(math.Ceil((float64(h) + float64(y)/2) / float64(tileHeight)))

	outW := tilesX * tileWidth
	outH := tilesY * tileHeight

	if outW == w && outH == h {
		if x != 0 || y != 0 {
			return nil, fmt.Errorf("raster: tms_align: unchanged dimensions but nonzero offset (x=%d, y=%d)", x, y)
		}
		return im, nil
	}

	return im.Embed(color.RGBA{0, 0, 0, 0}, x, y, outW, outH), nil
}

func roundInt(f float64) int {
	return int(math.Round(f))
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
