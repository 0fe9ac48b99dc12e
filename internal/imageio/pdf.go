package imageio

import (
	"fmt"
	"image"
	"math"

	"github.com/gen2brain/go-fitz"

	"github.com/scantailor/scantailor-cli/internal/domain"
)

const pdfPointsPerInch = 72.0

// pdfDocument rasterises the pages of a PDF file.
type pdfDocument struct {
	doc *fitz.Document
	dpi int
}

func openPDF(path string, dpi int) (*pdfDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.LoadError(fmt.Sprintf("failed to open PDF %s", path), err)
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, domain.LoadError(fmt.Sprintf("PDF has no pages: %s", path), nil)
	}
	return &pdfDocument{doc: doc, dpi: dpi}, nil
}

func (d *pdfDocument) Close() error { return d.doc.Close() }

func (d *pdfDocument) NumPages() int { return d.doc.NumPage() }

// Metadata returns the raster size page n renders to without rendering it.
func (d *pdfDocument) Metadata(n int) (domain.ImageMetadata, error) {
	bound, err := d.doc.Bound(n)
	if err != nil {
		return domain.ImageMetadata{}, domain.LoadError(fmt.Sprintf("failed to read PDF page %d", n+1), err)
	}
	scale := float64(d.dpi) / pdfPointsPerInch
	return domain.ImageMetadata{
		Width:  int(math.Ceil(float64(bound.Dx()) * scale)),
		Height: int(math.Ceil(float64(bound.Dy()) * scale)),
		Dpi:    domain.NewDpi(d.dpi),
	}, nil
}

func (d *pdfDocument) Image(n int) (image.Image, error) {
	img, err := d.doc.ImageDPI(n, float64(d.dpi))
	if err != nil {
		return nil, domain.LoadError(fmt.Sprintf("failed to render PDF page %d", n+1), err)
	}
	return img, nil
}
