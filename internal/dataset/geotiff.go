// Package dataset implements the external dataset-reader collaborator
// declared by spec.md §6: given an input file, report its TMS extents and
// native zoom resolution. Pixel decoding is not this package's job — that
// is the separate "image library" role, filled by golang.org/x/image/tiff
// via internal/raster.Decode.
package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/tilepyramid/gdal2tiles/internal/raster"
)

// GeoTIFF-registered tags this reader cares about, per DESIGN.md's
// grounding in the teacher's internal/cog/geotags.go.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGeoKeyDirectory = 34735

	typeShort  = 3
	typeLong   = 4
	typeRATnl  = 10 // SRATIONAL, unused but reserved
	typeDouble = 12
)

const earthCircumferenceMeters = 40075016.686

// GeoTIFF is a minimal GeoTIFF metadata reader: it parses just enough of
// the IFD to compute TMS extents and a native-resolution estimate. It does
// not decode pixels.
type GeoTIFF struct {
	widthPx, heightPx int
	pixelSizeX        float64 // CRS units per pixel
	pixelSizeY        float64
	originX, originY  float64 // upper-left corner, in CRS units
}

// Open parses path's IFD0 and returns a GeoTIFF metadata reader.
func Open(path string) (*GeoTIFF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*GeoTIFF, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("dataset: file too small to be a TIFF")
	}

	var order binary.ByteOrder
	switch string(data[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("dataset: not a TIFF (bad byte-order marker)")
	}

	ifdOffset := order.Uint32(data[4:8])
	entries, err := readIFD(data, order, ifdOffset)
	if err != nil {
		return nil, err
	}

	g := &GeoTIFF{}
	var tiepoint, pixelScale []float64

	for _, e := range entries {
		switch e.tag {
		case tagImageWidth:
			g.widthPx = int(e.asUint(data, order))
		case tagImageLength:
			g.heightPx = int(e.asUint(data, order))
		case tagModelPixelScale:
			pixelScale = e.asDoubles(data, order)
		case tagModelTiepoint:
			tiepoint = e.asDoubles(data, order)
		}
	}

	if len(pixelScale) >= 2 {
		g.pixelSizeX = pixelScale[0]
		g.pixelSizeY = pixelScale[1]
	}
	if len(tiepoint) >= 6 {
		g.originX = tiepoint[3] - tiepoint[0]*g.pixelSizeX
		g.originY = tiepoint[4] + tiepoint[1]*g.pixelSizeY
	}

	if g.widthPx == 0 || g.heightPx == 0 {
		return nil, fmt.Errorf("dataset: missing ImageWidth/ImageLength tags")
	}
	if g.pixelSizeX == 0 || g.pixelSizeY == 0 {
		return nil, fmt.Errorf("dataset: missing ModelPixelScale tag")
	}

	return g, nil
}

// Width returns the raster width in pixels.
func (g *GeoTIFF) Width() int { return g.widthPx }

// Height returns the raster height in pixels.
func (g *GeoTIFF) Height() int { return g.heightPx }

// TMSExtents reports the lower-left and upper-right TMS tile coordinates
// of this dataset at its native resolution, assuming a 256px tile and a
// global web-mercator-style grid (spec.md §6).
func (g *GeoTIFF) TMSExtents() (lowerLeft, upperRight raster.XY) {
	res := g.NativeResolution()
	tilesPerSide := math.Exp2(float64(res))
	metersPerTile := earthCircumferenceMeters / tilesPerSide

	minX := g.originX
	maxY := g.originY
	maxX := g.originX + float64(g.widthPx)*g.pixelSizeX
	minY := g.originY - float64(g.heightPx)*g.pixelSizeY

	halfCirc := earthCircumferenceMeters / 2
	lowerLeft = raster.XY{
		X: math.Floor((minX + halfCirc) / metersPerTile),
		Y: math.Floor((minY + halfCirc) / metersPerTile),
	}
	upperRight = raster.XY{
		X: math.Ceil((maxX + halfCirc) / metersPerTile),
		Y: math.Ceil((maxY + halfCirc) / metersPerTile),
	}
	return lowerLeft, upperRight
}

// NativeResolution estimates the zoom level whose tile pixel size most
// closely matches this dataset's pixel size.
func (g *GeoTIFF) NativeResolution() int {
	tileSizeMeters := g.pixelSizeX * 256
	if tileSizeMeters <= 0 {
		return 0
	}
	res := math.Round(math.Log2(earthCircumferenceMeters / tileSizeMeters))
	if res < 0 {
		res = 0
	}
	return int(res)
}

type ifdEntry struct {
	tag        uint16
	fieldType  uint16
	count      uint32
	valueBytes []byte // 4 (classic TIFF) bytes of value-or-offset
}

func readIFD(data []byte, order binary.ByteOrder, offset uint32) ([]ifdEntry, error) {
	if int(offset)+2 > len(data) {
		return nil, fmt.Errorf("dataset: IFD offset out of range")
	}
	numEntries := int(order.Uint16(data[offset : offset+2]))
	pos := int(offset) + 2

	entries := make([]ifdEntry, 0, numEntries)
	for i := 0; i < numEntries; i++ {
		if pos+12 > len(data) {
			return nil, fmt.Errorf("dataset: truncated IFD entry")
		}
		e := ifdEntry{
			tag:        order.Uint16(data[pos : pos+2]),
			fieldType:  order.Uint16(data[pos+2 : pos+4]),
			count:      order.Uint32(data[pos+4 : pos+8]),
			valueBytes: data[pos+8 : pos+12],
		}
		entries = append(entries, e)
		pos += 12
	}
	return entries, nil
}

func typeSize(fieldType uint16) int {
	switch fieldType {
	case typeShort:
		return 2
	case typeLong:
		return 4
	case typeDouble:
		return 8
	default:
		return 1
	}
}

func (e ifdEntry) asUint(data []byte, order binary.ByteOrder) uint32 {
	switch e.fieldType {
	case typeShort:
		return uint32(order.Uint16(e.valueBytes[0:2]))
	case typeLong:
		return order.Uint32(e.valueBytes[0:4])
	default:
		return 0
	}
}

// asDoubles resolves a DOUBLE-typed tag, following the offset when the
// value does not fit inline (it never does for doubles in classic TIFF).
func (e ifdEntry) asDoubles(data []byte, order binary.ByteOrder) []float64 {
	if e.fieldType != typeDouble {
		return nil
	}
	size := typeSize(e.fieldType) * int(e.count)
	offset := order.Uint32(e.valueBytes[0:4])
	if int(offset)+size > len(data) {
		return nil
	}
	out := make([]float64, e.count)
	for i := 0; i < int(e.count); i++ {
		bits := order.Uint64(data[int(offset)+i*8 : int(offset)+i*8+8])
		out[i] = math.Float64frombits(bits)
	}
	return out
}
