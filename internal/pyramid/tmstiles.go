package pyramid

import (
	"fmt"
	"path/filepath"

	"github.com/tilepyramid/gdal2tiles/internal/raster"
)

// Tile is a single tile_width × tile_height sub-image plus its integer TMS
// offset within the level's grid (spec.md §3).
type Tile struct {
	Image  *raster.Image
	TX, TY int
}

// TmsTiles owns an image already padded to whole-tile multiples for one
// zoom level (spec.md §3).
type TmsTiles struct {
	Image      *raster.Image
	TileWidth  int
	TileHeight int
	Offset     raster.XY
	Resolution *int // nil means a flat, single-level output
	Hasher     Hasher
	Verbose    bool
}

// NewTmsTiles constructs a level. A nil hasher defaults to DefaultHasher.
func NewTmsTiles(img *raster.Image, tileWidth, tileHeight int, offset raster.XY, resolution *int, hasher Hasher) *TmsTiles {
	if hasher == nil {
		hasher = DefaultHasher
	}
	return &TmsTiles{
		Image:      img,
		TileWidth:  tileWidth,
		TileHeight: tileHeight,
		Offset:     offset,
		Resolution: resolution,
		Hasher:     hasher,
	}
}

// Slice enumerates tile origins over the aligned image, dispatching each
// one through the render/dedup pipeline into outputDir (spec.md §4.2).
func (t *TmsTiles) Slice(outputDir string, pool *Pool) error {
	w, h := t.Image.Width(), t.Image.Height()

	if w%t.TileWidth != 0 || h%t.TileHeight != 0 {
		return fmt.Errorf("%w: %dx%d is not a multiple of tile size %dx%d", raster.ErrMisalignedImage, w, h, t.TileWidth, t.TileHeight)
	}

	levelDir := outputDir
	if t.Resolution != nil {
		levelDir = filepath.Join(outputDir, fmt.Sprintf("%d", *t.Resolution))
	}
	if err := EnsureDir(levelDir); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	seen := make(SeenMap)

	var bar *progressBar
	label := "slice"
	if t.Resolution != nil {
		label = fmt.Sprintf("level %d", *t.Resolution)
	}
	if t.Verbose {
		bar = newProgressBar(label, int64((w/t.TileWidth)*(h/t.TileHeight)))
		defer bar.Finish()
	}

	// Row-major top-to-bottom, left-to-right: determines which duplicate
	// wins the first-seen slot (spec.md §4.2, §5).
	for y := 0; y < h; y += t.TileHeight {
		for x := 0; x < w; x += t.TileWidth {
			sub := t.Image.ExtractArea(x, y, t.TileWidth, t.TileHeight)

			tx := x/t.TileWidth + int(t.Offset.X)
			ty := (h-y)/t.TileHeight + int(t.Offset.Y) - 1

			tile := Tile{Image: sub, TX: tx, TY: ty}
			if err := t.render(tile, outputDir, seen, pool); err != nil {
				return err
			}
			if bar != nil {
				bar.Increment()
			}
		}
	}

	return nil
}

// render hashes a tile, then either symlinks it to its seen-map original
// or submits an encode task to the pool (spec.md §4.3).
func (t *TmsTiles) render(tile Tile, outputDir string, seen SeenMap, pool *Pool) error {
	h := t.Hasher(tile.Image.RawBytes())
	relPath := TileRelPath(t.Resolution, tile.TX, tile.TY, h)

	if original, ok := seen[h]; ok {
		return LinkDuplicate(outputDir, relPath, original)
	}

	seen[h] = relPath
	pool.Submit(EncodeTask{
		Path:  filepath.Join(outputDir, relPath),
		Image: tile.Image,
	})
	return nil
}

// Downsample produces the next (coarser) level by shrinking by 0.5 and
// re-aligning, asserting the new resolution is exactly one less than the
// current one (spec.md §4.4).
func (t *TmsTiles) Downsample(targetRes int) (*TmsTiles, error) {
	if t.Resolution == nil || targetRes != *t.Resolution-1 {
		return nil, fmt.Errorf("%w: downsample target %d must be current resolution - 1", ErrInvalidResolution, targetRes)
	}

	newOffset := t.Offset.Scale(0.5)

	shrunk, err := t.Image.Shrink(0.5, 0.5)
	if err != nil {
		return nil, err
	}
	aligned, err := shrunk.TMSAlign(t.TileWidth, t.TileHeight, newOffset)
	if err != nil {
		return nil, err
	}

	ox, oy := newOffset.Floor()
	res := targetRes
	next := NewTmsTiles(aligned, t.TileWidth, t.TileHeight, raster.XY{X: float64(ox), Y: float64(oy)}, &res, t.Hasher)
	next.Verbose = t.Verbose
	return next, nil
}

// Upsample produces a finer level by stretching by 2^(targetRes-current)
// and re-aligning, operating on the whole image to avoid seams at tile
// boundaries (spec.md §4.4).
func (t *TmsTiles) Upsample(targetRes int) (*TmsTiles, error) {
	if t.Resolution == nil || targetRes <= *t.Resolution {
		return nil, fmt.Errorf("%w: upsample target %d must be greater than current resolution", ErrInvalidResolution, targetRes)
	}

	scale := float64(int(1) << uint(targetRes-*t.Resolution))
	newOffset := t.Offset.Scale(scale)

	stretched, err := t.Image.Stretch(scale, scale)
	if err != nil {
		return nil, err
	}
	aligned, err := stretched.TMSAlign(t.TileWidth, t.TileHeight, newOffset)
	if err != nil {
		return nil, err
	}

	res := targetRes
	next := NewTmsTiles(aligned, t.TileWidth, t.TileHeight, newOffset, &res, t.Hasher)
	next.Verbose = t.Verbose
	return next, nil
}
