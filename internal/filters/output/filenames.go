package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/scantailor/scantailor-cli/internal/domain"
)

// Cache sub directories of the output directory.
const (
	ForegroundDir         = "foreground"
	BackgroundDir         = "background"
	OriginalBackgroundDir = "original_background"
	AutomaskDir           = "automask"
	SpecklesDir           = "speckles"
)

// FileNameGenerator maps pages to output file paths.
type FileNameGenerator struct {
	outDir string
}

func NewFileNameGenerator(outDir string) FileNameGenerator {
	return FileNameGenerator{outDir: outDir}
}

func (g FileNameGenerator) OutDir() string { return g.outDir }

// FileNameFor returns the base name of the output file of a page:
// <stem>[_<page>][_1L|_2R].tif, page being one based and zero padded.
func (g FileNameGenerator) FileNameFor(id domain.PageID) string {
	base := filepath.Base(id.Image.FilePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	b.WriteString(stem)
	if isMultiPageFile(id.Image) {
		fmt.Fprintf(&b, "_%04d", id.Image.Page+1)
	}
	switch id.SubPage {
	case domain.LeftPage:
		b.WriteString("_1L")
	case domain.RightPage:
		b.WriteString("_2R")
	}
	b.WriteString(".tif")
	return b.String()
}

// FilePathFor returns the path of the main output file of a page.
func (g FileNameGenerator) FilePathFor(id domain.PageID) string {
	return filepath.Join(g.outDir, g.FileNameFor(id))
}

// CachePathFor returns the path of an auxiliary file kept under out/cache.
func (g FileNameGenerator) CachePathFor(dir string, id domain.PageID) string {
	return filepath.Join(g.outDir, "cache", dir, g.FileNameFor(id))
}

// PathFor returns the path of any file kind written for a page.
func (g FileNameGenerator) PathFor(kind FileKind, id domain.PageID) string {
	switch kind {
	case ForegroundFile:
		return g.CachePathFor(ForegroundDir, id)
	case BackgroundFile:
		return g.CachePathFor(BackgroundDir, id)
	case OriginalBackgroundFile:
		return g.CachePathFor(OriginalBackgroundDir, id)
	case AutomaskFile:
		return g.CachePathFor(AutomaskDir, id)
	case SpecklesFile:
		return g.CachePathFor(SpecklesDir, id)
	default:
		return g.FilePathFor(id)
	}
}

// isMultiPageFile reports whether pages of the source file are numbered in
// output names. Only PDF inputs hold more than one image.
func isMultiPageFile(id domain.ImageID) bool {
	return strings.EqualFold(filepath.Ext(id.FilePath), ".pdf")
}
