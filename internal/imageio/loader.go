// Package imageio decodes input images and their resolution metadata.
package imageio

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/scantailor/scantailor-cli/internal/domain"
)

// DefaultPDFDpi is the resolution PDF pages are rasterised at.
const DefaultPDFDpi = 300

// Loader reads input files. PDF files contribute one image per page.
type Loader struct {
	pdfDpi int
}

func NewLoader(pdfDpi int) *Loader {
	if pdfDpi <= 0 {
		pdfDpi = DefaultPDFDpi
	}
	return &Loader{pdfDpi: pdfDpi}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Metadata returns one entry per image stored in the file at path.
func (l *Loader) Metadata(ctx context.Context, path string) ([]domain.ImageMetadata, error) {
	if err := domain.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	if isPDF(path) {
		doc, err := openPDF(path, l.pdfDpi)
		if err != nil {
			return nil, err
		}
		defer doc.Close()
		out := make([]domain.ImageMetadata, 0, doc.NumPages())
		for n := 0; n < doc.NumPages(); n++ {
			m, err := doc.Metadata(n)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.LoadError(fmt.Sprintf("failed to read %s", path), err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.LoadError(fmt.Sprintf("unrecognised image %s", path), err)
	}
	return []domain.ImageMetadata{{Width: cfg.Width, Height: cfg.Height, Dpi: SniffDpi(data)}}, nil
}

// Load decodes the image id refers to. The returned metadata carries the
// decoded size and the resolution found in the file, which may be null.
func (l *Loader) Load(ctx context.Context, id domain.ImageID) (image.Image, domain.ImageMetadata, error) {
	if err := domain.CheckCancelled(ctx); err != nil {
		return nil, domain.ImageMetadata{}, err
	}
	if isPDF(id.FilePath) {
		doc, err := openPDF(id.FilePath, l.pdfDpi)
		if err != nil {
			return nil, domain.ImageMetadata{}, err
		}
		defer doc.Close()
		if id.Page < 0 || id.Page >= doc.NumPages() {
			return nil, domain.ImageMetadata{}, domain.LoadError(fmt.Sprintf("%s has no page %d", id.FilePath, id.Page+1), nil)
		}
		img, err := doc.Image(id.Page)
		if err != nil {
			return nil, domain.ImageMetadata{}, err
		}
		b := img.Bounds()
		return img, domain.ImageMetadata{Width: b.Dx(), Height: b.Dy(), Dpi: domain.NewDpi(l.pdfDpi)}, nil
	}

	if id.Page != 0 {
		return nil, domain.ImageMetadata{}, domain.LoadError(fmt.Sprintf("%s holds a single image", id.FilePath), nil)
	}
	data, err := os.ReadFile(id.FilePath)
	if err != nil {
		return nil, domain.ImageMetadata{}, domain.LoadError(fmt.Sprintf("failed to read %s", id.FilePath), err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ImageMetadata{}, domain.LoadError(fmt.Sprintf("failed to decode %s", id.FilePath), err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, domain.ImageMetadata{}, domain.LoadError(fmt.Sprintf("empty image %s", id.FilePath), nil)
	}
	b := img.Bounds()
	return img, domain.ImageMetadata{Width: b.Dx(), Height: b.Dy(), Dpi: SniffDpi(data)}, nil
}
