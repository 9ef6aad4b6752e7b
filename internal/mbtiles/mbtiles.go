// Package mbtiles implements the MBTiles SQLite packager declared as an
// external collaborator by spec.md §1: it consumes a rendered tile
// directory tree (as written by internal/pyramid) and packages it into a
// single MBTiles database.
package mbtiles

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Metadata holds the MBTiles metadata table fields, named and defaulted
// exactly as original_source/tests/test_scripts.py's test_metadata
// expects.
type Metadata struct {
	Name        string
	Description string
	Format      string
	Type        string // "overlay" or "baselayer"
	Version     string
	Bounds      string // "minlon,minlat,maxlon,maxlat"
}

// DefaultMetadata returns the defaults the original tool used, keyed off
// the input filename.
func DefaultMetadata(inputFile string) Metadata {
	return Metadata{
		Name:        filepath.Base(inputFile),
		Description: "",
		Format:      "png",
		Type:        "overlay",
		Version:     "1.0.0",
		Bounds:      "-180.0,-90.0,180.0,90.0",
	}
}

var tileFileRE = regexp.MustCompile(`^(\d+)-(\d+)-[0-9a-f]+\.png$`)

// Pack walks dir (a pyramid output tree laid out as {resolution}/{tx}-{ty}-
// {hash}.png, with duplicates as symlinks) and writes an MBTiles database
// at outPath.
func Pack(dir string, meta Metadata, outPath string) error {
	if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("mbtiles: remove existing %s: %w", outPath, err)
	}

	db, err := sqlx.Open("sqlite3", outPath)
	if err != nil {
		return fmt.Errorf("mbtiles: open %s: %w", outPath, err)
	}
	defer db.Close()

	if err := createSchema(db); err != nil {
		return err
	}
	if err := writeMetadata(db, meta); err != nil {
		return err
	}

	levels, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("mbtiles: read %s: %w", dir, err)
	}

	for _, lvl := range levels {
		if !lvl.IsDir() {
			continue
		}
		zoom, err := strconv.Atoi(lvl.Name())
		if err != nil {
			continue // not a zoom-level directory
		}
		if err := packLevel(db, filepath.Join(dir, lvl.Name()), zoom); err != nil {
			return err
		}
	}

	return nil
}

func createSchema(db *sqlx.DB) error {
	db.MustExec(`CREATE TABLE metadata (name TEXT, value TEXT)`)
	db.MustExec(`CREATE TABLE tiles (
		zoom_level INTEGER,
		tile_column INTEGER,
		tile_row INTEGER,
		tile_data BLOB
	)`)
	db.MustExec(`CREATE UNIQUE INDEX tile_index ON tiles (zoom_level, tile_column, tile_row)`)
	return nil
}

func writeMetadata(db *sqlx.DB, meta Metadata) error {
	rows := []struct{ Name, Value string }{
		{"name", meta.Name},
		{"description", meta.Description},
		{"format", meta.Format},
		{"type", meta.Type},
		{"version", meta.Version},
		{"bounds", meta.Bounds},
	}
	for _, r := range rows {
		if _, err := db.NamedExec(`INSERT INTO metadata (name, value) VALUES (:name, :value)`, r); err != nil {
			return fmt.Errorf("mbtiles: write metadata %s: %w", r.Name, err)
		}
	}
	return nil
}

func packLevel(db *sqlx.DB, levelDir string, zoom int) error {
	entries, err := os.ReadDir(levelDir)
	if err != nil {
		return fmt.Errorf("mbtiles: read level dir %s: %w", levelDir, err)
	}

	for _, ent := range entries {
		m := tileFileRE.FindStringSubmatch(ent.Name())
		if m == nil {
			continue
		}
		tx, _ := strconv.Atoi(m[1])
		ty, _ := strconv.Atoi(m[2])

		data, err := os.ReadFile(filepath.Join(levelDir, ent.Name()))
		if err != nil {
			return fmt.Errorf("mbtiles: read tile %s: %w", ent.Name(), err)
		}

		if _, err := db.NamedExec(
			`INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (:zoom, :t_x, :t_y, :data)`,
			map[string]interface{}{"zoom": zoom, "t_x": tx, "t_y": ty, "data": data},
		); err != nil {
			return fmt.Errorf("mbtiles: insert tile z=%d x=%d y=%d: %w", zoom, tx, ty, err)
		}
	}
	return nil
}
