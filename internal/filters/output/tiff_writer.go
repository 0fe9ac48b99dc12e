package output

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"
)

// ImageWriter persists generated images.
type ImageWriter interface {
	WriteImage(path string, img image.Image) (FileParams, error)
}

// TIFFWriter writes deflate compressed TIFF files. The file is written next
// to its destination and renamed into place.
type TIFFWriter struct{}

func (TIFFWriter) WriteImage(path string, img image.Image) (FileParams, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return FileParams{}, fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return FileParams{}, fmt.Errorf("create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tiff.Encode(tmp, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		tmp.Close()
		return FileParams{}, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return FileParams{}, fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return FileParams{}, fmt.Errorf("rename into %s: %w", path, err)
	}
	return StatFile(path)
}

// readableTIFF reports whether the file at path has a decodable TIFF header
// of the expected size.
func readableTIFF(path string, size image.Point) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	cfg, err := tiff.DecodeConfig(f)
	if err != nil {
		return false
	}
	return cfg.Width == size.X && cfg.Height == size.Y
}
