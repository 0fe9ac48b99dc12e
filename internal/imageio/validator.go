package imageio

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

const largeInputSize = 200 * 1024 * 1024

var supportedExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp", ".pdf",
}

// IsSupported reports whether path has an input extension this package decodes.
func IsSupported(path string) bool {
	return slices.Contains(supportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// ValidateInputPath checks that path names a readable file of a supported format.
func ValidateInputPath(path string, logger *observability.Logger) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("input path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("input file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access input file: %s", path), err)
	}
	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("input path is a directory: %s", path), nil)
	}
	if !IsSupported(path) {
		return domain.ValidationError(fmt.Sprintf("unsupported input format %q: %s", filepath.Ext(path), path), nil)
	}
	if info.Size() > largeInputSize {
		logger.Warn().
			Str("file", path).
			Int("size_mb", int(info.Size()/(1024*1024))).
			Msg("input file is very large, processing may take a while")
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("cannot open input file: %s", path), err)
	}
	f.Close()
	return nil
}
