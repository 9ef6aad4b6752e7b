package dataset

import (
	"encoding/binary"
	"math"
	"testing"
)

// buildMinimalTIFF assembles a classic little-endian TIFF with a single
// IFD carrying ImageWidth, ImageLength, ModelPixelScale and ModelTiepoint
// — enough for parse() to compute extents and native resolution, without
// any pixel data (this package never reads pixels).
func buildMinimalTIFF(t *testing.T, width, height uint32, pixelSizeX, pixelSizeY float64) []byte {
	t.Helper()
	order := binary.LittleEndian

	header := make([]byte, 8)
	copy(header, "II")
	order.PutUint16(header[2:4], 42)
	order.PutUint32(header[4:8], 8) // IFD starts right after the header

	// Value area starts right after the IFD; we'll compute its offset once
	// we know the entry count.
	const numEntries = 4
	ifdSize := 2 + numEntries*12 + 4 // count + entries + next-IFD offset
	valuesOffset := uint32(8 + ifdSize)

	pixelScaleBytes := make([]byte, 24) // 3 doubles
	order.PutUint64(pixelScaleBytes[0:8], math.Float64bits(pixelSizeX))
	order.PutUint64(pixelScaleBytes[8:16], math.Float64bits(pixelSizeY))
	order.PutUint64(pixelScaleBytes[16:24], math.Float64bits(0))

	tiepointBytes := make([]byte, 48) // 6 doubles: I,J,K,X,Y,Z all zero
	for i := 0; i < 6; i++ {
		order.PutUint64(tiepointBytes[i*8:i*8+8], math.Float64bits(0))
	}

	buf := make([]byte, 0, 256)
	buf = append(buf, header...)

	entryCountBytes := make([]byte, 2)
	order.PutUint16(entryCountBytes, numEntries)
	buf = append(buf, entryCountBytes...)

	writeEntry := func(tag, fieldType uint16, count uint32, valueOrOffset uint32) {
		e := make([]byte, 12)
		order.PutUint16(e[0:2], tag)
		order.PutUint16(e[2:4], fieldType)
		order.PutUint32(e[4:8], count)
		order.PutUint32(e[8:12], valueOrOffset)
		buf = append(buf, e...)
	}

	writeEntry(tagImageWidth, typeLong, 1, width)
	writeEntry(tagImageLength, typeLong, 1, height)
	writeEntry(tagModelPixelScale, typeDouble, 3, valuesOffset)
	writeEntry(tagModelTiepoint, typeDouble, 6, valuesOffset+24)

	nextIFD := make([]byte, 4) // 0 = no more IFDs
	buf = append(buf, nextIFD...)

	buf = append(buf, pixelScaleBytes...)
	buf = append(buf, tiepointBytes...)

	return buf
}

func TestParse_ReadsWidthHeightAndPixelScale(t *testing.T) {
	data := buildMinimalTIFF(t, 1024, 1024, 38.21, 38.21)

	g, err := parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if g.Width() != 1024 || g.Height() != 1024 {
		t.Errorf("dimensions = (%d,%d), want (1024,1024)", g.Width(), g.Height())
	}
	if g.pixelSizeX != 38.21 || g.pixelSizeY != 38.21 {
		t.Errorf("pixel size = (%v,%v), want (38.21,38.21)", g.pixelSizeX, g.pixelSizeY)
	}
}

func TestParse_RejectsNonTIFF(t *testing.T) {
	if _, err := parse([]byte("not a tiff at all")); err == nil {
		t.Fatal("expected an error for non-TIFF input")
	}
}

func TestNativeResolution_MatchesPixelSize(t *testing.T) {
	// A pixel size that makes one tile (256px) span roughly
	// earthCircumference/2^z meters should resolve to zoom z.
	metersPerTileAtZ4 := earthCircumferenceMeters / 16
	pixelSize := metersPerTileAtZ4 / 256

	data := buildMinimalTIFF(t, 4096, 4096, pixelSize, pixelSize)
	g, err := parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := g.NativeResolution(); got != 4 {
		t.Errorf("NativeResolution = %d, want 4", got)
	}
}
