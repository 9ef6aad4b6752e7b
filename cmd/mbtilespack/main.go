// Command mbtilespack packages an existing tile directory tree (as
// produced by gdal2tiles) into an MBTiles SQLite database, standalone from
// a render run.
package main

import (
	"log"

	"github.com/alecthomas/kong"

	"github.com/tilepyramid/gdal2tiles/internal/mbtiles"
)

var cli struct {
	TilesDir string `arg:"" help:"Directory of rendered {resolution}/{tx}-{ty}-{hash}.png tiles."`
	Output   string `arg:"" help:"Output .mbtiles path."`

	Name        string `help:"MBTiles metadata: name (default: tiles directory basename)."`
	Description string `help:"MBTiles metadata: description."`
	Format      string `default:"png" help:"MBTiles metadata: format."`
	LayerType   string `name:"layer-type" default:"overlay" enum:"overlay,baselayer" help:"MBTiles metadata: type."`
	Version     string `default:"1.0.0" help:"MBTiles metadata: version."`
}

func main() {
	kong.Parse(&cli, kong.Description("Package a rendered tile tree into an MBTiles database."))

	meta := mbtiles.DefaultMetadata(cli.TilesDir)
	if cli.Name != "" {
		meta.Name = cli.Name
	}
	meta.Description = cli.Description
	meta.Format = cli.Format
	meta.Type = cli.LayerType
	meta.Version = cli.Version

	if err := mbtiles.Pack(cli.TilesDir, meta, cli.Output); err != nil {
		log.Fatalf("mbtilespack: %v", err)
	}
}
