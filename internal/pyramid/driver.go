package pyramid

import (
	"fmt"

	"github.com/tilepyramid/gdal2tiles/internal/raster"
)

// Dataset is the external collaborator providing a raster's TMS extents
// and native resolution (spec.md §6). Concrete implementations live in
// internal/dataset.
type Dataset interface {
	TMSExtents() (lowerLeft, upperRight raster.XY)
	NativeResolution() int
}

// Config configures a pyramid run (spec.md §4.4).
type Config struct {
	TileWidth     int
	TileHeight    int
	MinResolution *int
	MaxResolution *int
	Workers       int
	Hasher        Hasher
	Verbose       bool
	OnLevelDone   func(resolution *int, tileCount int)
}

// Driver orchestrates a full pyramid run: native-level slice, then
// descending downsamples, then ascending upsamples.
type Driver struct {
	Config Config
}

// NewDriver constructs a driver with the given configuration, applying
// defaults for zero-valued fields.
func NewDriver(cfg Config) *Driver {
	if cfg.TileWidth == 0 {
		cfg.TileWidth = 256
	}
	if cfg.TileHeight == 0 {
		cfg.TileHeight = 256
	}
	if cfg.Hasher == nil {
		cfg.Hasher = DefaultHasher
	}
	return &Driver{Config: cfg}
}

// Run executes spec.md §4.4 end to end on an already decoded image and an
// already opened dataset: it slices the native level, then walks down to
// MinResolution and up to MaxResolution, validating the resolution range up
// front so a bad range fails before any tiles are written.
func (d *Driver) Run(img *raster.Image, ds Dataset, outputDir string) error {
	lowerLeft, _ := ds.TMSExtents()
	native := ds.NativeResolution()

	if d.Config.MinResolution != nil && *d.Config.MinResolution > native {
		return fmt.Errorf("%w: min_resolution %d > native_resolution %d", ErrInvalidResolution, *d.Config.MinResolution, native)
	}
	if d.Config.MaxResolution != nil && *d.Config.MaxResolution < native {
		return fmt.Errorf("%w: max_resolution %d < native_resolution %d", ErrInvalidResolution, *d.Config.MaxResolution, native)
	}
	if d.Config.MinResolution != nil && d.Config.MaxResolution != nil && *d.Config.MinResolution > *d.Config.MaxResolution {
		return fmt.Errorf("%w: min_resolution %d > max_resolution %d", ErrInvalidResolution, *d.Config.MinResolution, *d.Config.MaxResolution)
	}

	var sliceErr error
	raster.WithWarningsSuppressed(func() {
		sliceErr = d.run(img, lowerLeft, native, outputDir)
	})
	return sliceErr
}

func (d *Driver) run(img *raster.Image, lowerLeft raster.XY, native int, outputDir string) error {
	nativeRes := native
	current := NewTmsTiles(img, d.Config.TileWidth, d.Config.TileHeight, lowerLeft, &nativeRes, d.Config.Hasher)
	current.Verbose = d.Config.Verbose

	if err := d.sliceLevel(current, outputDir); err != nil {
		return err
	}

	if d.Config.MinResolution != nil {
		level := current
		for r := native - 1; r >= *d.Config.MinResolution; r-- {
			next, err := level.Downsample(r)
			if err != nil {
				return err
			}
			if err := d.sliceLevel(next, outputDir); err != nil {
				return err
			}
			level = next
		}
	}

	if d.Config.MaxResolution != nil {
		level := current
		for r := native + 1; r <= *d.Config.MaxResolution; r++ {
			next, err := level.Upsample(r)
			if err != nil {
				return err
			}
			if err := d.sliceLevel(next, outputDir); err != nil {
				return err
			}
			level = next
		}
	}

	return nil
}

func (d *Driver) sliceLevel(level *TmsTiles, outputDir string) error {
	pool := NewPool(d.Config.Workers, 0)
	if err := level.Slice(outputDir, pool); err != nil {
		pool.Join() //nolint:errcheck // slice error already takes priority
		return err
	}
	if err := pool.Join(); err != nil {
		return err
	}
	if d.Config.OnLevelDone != nil {
		w, h := level.Image.Width(), level.Image.Height()
		tiles := (w / level.TileWidth) * (h / level.TileHeight)
		d.Config.OnLevelDone(level.Resolution, tiles)
	}
	return nil
}
