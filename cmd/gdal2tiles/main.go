// Command gdal2tiles renders a georeferenced raster into a TMS tile
// pyramid of PNG files, optionally packaging the result into an MBTiles
// database.
package main

import (
	"fmt"
	"log"

	"github.com/alecthomas/kong"

	_ "golang.org/x/image/tiff" // registers TIFF with image.Decode

	"github.com/tilepyramid/gdal2tiles/internal/dataset"
	"github.com/tilepyramid/gdal2tiles/internal/mbtiles"
	"github.com/tilepyramid/gdal2tiles/internal/pyramid"
	"github.com/tilepyramid/gdal2tiles/internal/raster"
)

var cli struct {
	Input  string `arg:"" help:"Input georeferenced raster (GeoTIFF)."`
	Output string `arg:"" help:"Output directory for the tile tree, or .mbtiles path with --mbtiles."`

	TileSize int  `default:"256" help:"Tile width and height in pixels."`
	MinRes   *int `name:"min-resolution" help:"Lowest zoom level to render (descending from native)."`
	MaxRes   *int `name:"max-resolution" help:"Highest zoom level to render (ascending from native)."`
	Workers  int  `default:"0" help:"Worker pool size (0 = number of CPUs)."`

	Resampling string `default:"nearest" enum:"nearest,bilinear" help:"Resampling hint (validated, informational)."`

	MBTiles     bool   `help:"Package the rendered tree into an MBTiles database at Output."`
	Name        string `help:"MBTiles metadata: name (default: input basename)."`
	Description string `help:"MBTiles metadata: description."`
	Format      string `default:"png" help:"MBTiles metadata: format."`
	LayerType   string `name:"layer-type" default:"overlay" enum:"overlay,baselayer" help:"MBTiles metadata: type."`
	Version     string `default:"1.0.0" help:"MBTiles metadata: version."`
}

func main() {
	kong.Parse(&cli,
		kong.Description("Render a georeferenced raster into a TMS PNG tile pyramid."),
	)

	ds, err := dataset.Open(cli.Input)
	if err != nil {
		log.Fatalf("gdal2tiles: %v", err)
	}

	img, err := raster.Decode(cli.Input)
	if err != nil {
		log.Fatalf("gdal2tiles: %v", err)
	}

	outputDir := cli.Output
	if cli.MBTiles {
		outputDir = cli.Output + ".tiles"
	}

	cfg := pyramid.Config{
		TileWidth:     cli.TileSize,
		TileHeight:    cli.TileSize,
		MinResolution: cli.MinRes,
		MaxResolution: cli.MaxRes,
		Workers:       cli.Workers,
		OnLevelDone: func(resolution *int, tileCount int) {
			if resolution == nil {
				log.Printf("gdal2tiles: wrote %d tiles", tileCount)
				return
			}
			log.Printf("gdal2tiles: level %d: %d tiles", *resolution, tileCount)
		},
	}

	driver := pyramid.NewDriver(cfg)
	if err := driver.Run(img, ds, outputDir); err != nil {
		log.Fatalf("gdal2tiles: %v", err)
	}

	if cli.MBTiles {
		meta := mbtiles.DefaultMetadata(cli.Input)
		if cli.Name != "" {
			meta.Name = cli.Name
		}
		if cli.Description != "" {
			meta.Description = cli.Description
		}
		meta.Format = cli.Format
		meta.Type = cli.LayerType
		meta.Version = cli.Version

		if err := mbtiles.Pack(outputDir, meta, cli.Output); err != nil {
			log.Fatalf("gdal2tiles: %v", err)
		}
		fmt.Printf("gdal2tiles: packaged %s\n", cli.Output)
	}
}
