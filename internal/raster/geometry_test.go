package raster

import (
	"errors"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.RGBA) *Image {
	img := NewBlank(w, h, c)
	return img
}

func TestStretch_RejectsScaleBelowOne(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{255, 0, 0, 255})
	if _, err := img.Stretch(0.5, 1.0); !errors.Is(err, ErrInvalidScale) {
		t.Fatalf("expected ErrInvalidScale, got %v", err)
	}
}

func TestStretch_RejectsTooSmallImage(t *testing.T) {
	img := solidImage(1, 4, color.RGBA{255, 0, 0, 255})
	if _, err := img.Stretch(2, 2); !errors.Is(err, ErrInvalidScale) {
		t.Fatalf("expected ErrInvalidScale for W<2, got %v", err)
	}
}

func TestStretch_DoublingSize(t *testing.T) {
	// N = floor(W*xscale) (spec.md §4.1, matched by the original
	// implementation's "N = int(Xsize*xscale)"): stretch(2,2) on a 4x4
	// image yields (8,8). See DESIGN.md for why this, not the (2W-1,2H-1)
	// figure in spec.md §8, is the formula actually implemented.
	img := solidImage(4, 4, color.RGBA{10, 20, 30, 255})
	out, err := img.Stretch(2, 2)
	if err != nil {
		t.Fatalf("stretch: %v", err)
	}
	if out.Width() != 8 || out.Height() != 8 {
		t.Fatalf("stretch(2,2) on 4x4 = (%d,%d), want (8,8)", out.Width(), out.Height())
	}
}

func TestStretch_SolidColorPreserved(t *testing.T) {
	c := color.RGBA{10, 20, 30, 255}
	img := solidImage(4, 4, c)
	out, err := img.Stretch(3, 3)
	if err != nil {
		t.Fatalf("stretch: %v", err)
	}
	got := out.RGBA().RGBAAt(out.Width()/2, out.Height()/2)
	if got != c {
		t.Errorf("stretched solid color = %v, want %v", got, c)
	}
}

func TestShrink_RejectsScaleOutOfRange(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{})
	if _, err := img.Shrink(0, 1); !errors.Is(err, ErrInvalidScale) {
		t.Fatalf("expected ErrInvalidScale for xscale=0, got %v", err)
	}
	if _, err := img.Shrink(1.5, 1); !errors.Is(err, ErrInvalidScale) {
		t.Fatalf("expected ErrInvalidScale for xscale>1, got %v", err)
	}
}

func TestShrink_ExactSize(t *testing.T) {
	// spec.md §8: shrink(s,s) yields exactly (floor(W*s), floor(H*s)).
	img := solidImage(10, 10, color.RGBA{1, 2, 3, 255})
	out, err := img.Shrink(0.5, 0.5)
	if err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if out.Width() != 5 || out.Height() != 5 {
		t.Fatalf("shrink(0.5,0.5) on 10x10 = (%d,%d), want (5,5)", out.Width(), out.Height())
	}
}

func TestShrink_SolidColorPreserved(t *testing.T) {
	c := color.RGBA{100, 150, 200, 255}
	img := solidImage(8, 8, c)
	out, err := img.Shrink(0.5, 0.5)
	if err != nil {
		t.Fatalf("shrink: %v", err)
	}
	got := out.RGBA().RGBAAt(2, 2)
	if abs(int(got.R)-int(c.R)) > 1 || abs(int(got.G)-int(c.G)) > 1 || abs(int(got.B)-int(c.B)) > 1 {
		t.Errorf("shrunk solid color = %v, want ~%v", got, c)
	}
}

func TestTMSAlign_IdempotentAtZeroOffset(t *testing.T) {
	// A 256x256 image at a whole-tile offset needs no padding, so
	// tms_align must return the same image (spec.md §8 alignment idempotence).
	img := solidImage(256, 256, color.RGBA{1, 1, 1, 255})
	out, err := img.TMSAlign(256, 256, XY{0, 0})
	if err != nil {
		t.Fatalf("tms_align: %v", err)
	}
	if out != img {
		t.Errorf("tms_align at zero offset should return the input unchanged")
	}
}

func TestTMSAlign_PadsToTileMultiple(t *testing.T) {
	img := solidImage(300, 300, color.RGBA{5, 5, 5, 255})
	out, err := img.TMSAlign(256, 256, XY{0, 0})
	if err != nil {
		t.Fatalf("tms_align: %v", err)
	}
	if out.Width() != 512 || out.Height() != 512 {
		t.Fatalf("tms_align padded size = (%d,%d), want (512,512)", out.Width(), out.Height())
	}
}

func TestExtractArea(t *testing.T) {
	img := NewBlank(4, 4, color.RGBA{})
	img.RGBA().SetRGBA(2, 2, color.RGBA{9, 9, 9, 255})
	sub := img.ExtractArea(2, 2, 2, 2)
	if sub.RGBA().RGBAAt(0, 0) != (color.RGBA{9, 9, 9, 255}) {
		t.Errorf("extract_area did not preserve pixel at origin of window")
	}
}

func TestEmbed_PlacesAtOffsetOnTransparentCanvas(t *testing.T) {
	c := color.RGBA{7, 8, 9, 255}
	img := solidImage(2, 2, c)
	out := img.Embed(color.RGBA{0, 0, 0, 0}, 1, 1, 4, 4)
	if out.RGBA().RGBAAt(1, 1) != c {
		t.Errorf("embed did not place source at (1,1)")
	}
	if out.RGBA().RGBAAt(0, 0).A != 0 {
		t.Errorf("embed background should be transparent")
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
