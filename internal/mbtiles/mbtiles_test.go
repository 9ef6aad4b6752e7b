package mbtiles

import "testing"

func TestDefaultMetadata(t *testing.T) {
	meta := DefaultMetadata("/data/bluemarble.tif")

	if meta.Name != "bluemarble.tif" {
		t.Errorf("Name = %q, want %q", meta.Name, "bluemarble.tif")
	}
	if meta.Format != "png" {
		t.Errorf("Format = %q, want png", meta.Format)
	}
	if meta.Type != "overlay" {
		t.Errorf("Type = %q, want overlay", meta.Type)
	}
	if meta.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", meta.Version)
	}
	if meta.Bounds != "-180.0,-90.0,180.0,90.0" {
		t.Errorf("Bounds = %q, want global bounds", meta.Bounds)
	}
}

func TestTileFileRE(t *testing.T) {
	cases := map[string]bool{
		"3-5-deadbeef.png": true,
		"0-0-1.png":        true,
		"not-a-tile.txt":   false,
		"3-5-deadbeef.jpg": false,
	}
	for name, want := range cases {
		if got := tileFileRE.MatchString(name); got != want {
			t.Errorf("tileFileRE.MatchString(%q) = %v, want %v", name, got, want)
		}
	}
}
