package pyramid

import (
	"fmt"
	"os"
	"path/filepath"
)

// TileName formats the unique filename for a tile (spec.md §4.5): the hash
// in the name lets deduplication survive across runs and makes duplicate
// detection verifiable by filename inspection alone.
func TileName(tx, ty int, hash uint64) string {
	return fmt.Sprintf("%d-%d-%x.png", tx, ty, hash)
}

// TileRelPath returns the path of a tile relative to the pyramid's output
// directory, prefixed by the zoom level when resolution is set.
func TileRelPath(resolution *int, tx, ty int, hash uint64) string {
	name := TileName(tx, ty, hash)
	if resolution == nil {
		return name
	}
	return filepath.Join(fmt.Sprintf("%d", *resolution), name)
}

// EnsureDir idempotently creates dir (and any parents).
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("pyramid: create directory %s: %w", dir, err)
	}
	return nil
}

// LinkDuplicate creates a relative symlink at outputDir/relPath pointing to
// outputDir/targetRelPath. The link target is computed relative to the
// link's own directory so the output tree stays relocatable (spec.md §4.3,
// §4.5, testable property "∀ symlink s: s is relative and resolves inside
// outputdir").
func LinkDuplicate(outputDir, relPath, targetRelPath string) error {
	linkPath := filepath.Join(outputDir, relPath)
	targetPath := filepath.Join(outputDir, targetRelPath)

	if err := EnsureDir(filepath.Dir(linkPath)); err != nil {
		return err
	}

	rel, err := filepath.Rel(filepath.Dir(linkPath), targetPath)
	if err != nil {
		return fmt.Errorf("pyramid: relative symlink target: %w", err)
	}

	if err := os.Remove(linkPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("pyramid: remove existing %s: %w", linkPath, err)
	}

	if err := os.Symlink(rel, linkPath); err != nil {
		return fmt.Errorf("pyramid: symlink %s -> %s: %w", linkPath, rel, err)
	}
	return nil
}
