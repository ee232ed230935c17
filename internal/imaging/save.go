package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
)

// Save writes img to path as PNG, creating parent directories as needed.
//
// Only the .png extension is accepted: the grid rasters carry exact cell
// intensities and must survive a write/read round trip unchanged.
func Save(path string, img image.Image) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return fmt.Errorf("output %s must have .png extension, got %q", path, ext)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	encode := imgio.PNGEncoder()
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image %s: %w", path, err)
	}
	return f.Close()
}

// SaveGray writes an 8-bit raster to path as PNG.
func SaveGray(path string, img *image.Gray) error {
	return Save(path, img)
}
