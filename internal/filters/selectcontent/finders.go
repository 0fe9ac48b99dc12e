package selectcontent

import (
	"context"
	"image"
	"math"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
	"github.com/scantailor/scantailor-cli/internal/xform"
)

// PageFinder locates the sheet of paper in the working image. It returns an
// invalid rect when nothing is found.
type PageFinder interface {
	FindPageBox(ctx context.Context, data filters.FilterData, opts Options) (geom.Rect, error)
}

// ContentFinder locates the content inside pageRect. It returns an invalid
// rect for a blank page.
type ContentFinder interface {
	FindContentBox(ctx context.Context, data filters.FilterData, pageRect geom.Rect) (geom.Rect, error)
}

const (
	pageFinderMaxSide    = 1000
	contentFinderMaxSide = 1600
)

// BorderPageFinder strips the dark scanner background around the sheet.
type BorderPageFinder struct {
	// DarkFraction is the share of dark pixels making a line part of the border.
	DarkFraction float64
}

func NewBorderPageFinder() *BorderPageFinder {
	return &BorderPageFinder{DarkFraction: 0.9}
}

func (f *BorderPageFinder) FindPageBox(ctx context.Context, data filters.FilterData, opts Options) (geom.Rect, error) {
	scale := data.ScaleToFit(pageFinderMaxSide)
	gray, toRaster := data.RenderWorking(scale)
	if err := domain.CheckCancelled(ctx); err != nil {
		return geom.Rect{}, err
	}
	bin := imageproc.Binarize(gray, gray.Rect, data.BwThresholdBlackOnWhite())

	box := bin.Bounds()
	box = shrinkWhileDark(bin, box, f.DarkFraction)
	if opts.FineTuneCorners {
		box = shrinkWhileDark(bin, box, 0.5)
	}
	if box.Empty() {
		return geom.Rect{}, nil
	}

	fromRaster, _ := toRaster.Inverse()
	rect := fromRaster.MapRect(geom.RectFromImage(box))
	return fitDetectionBox(rect, data.Xform().WorkingDpi(), opts), nil
}

// shrinkWhileDark moves each side of box inward while the edge line is
// darker than fraction.
func shrinkWhileDark(bin *imageproc.BinaryImage, box image.Rectangle, fraction float64) image.Rectangle {
	dark := func(x0, y0, x1, y1 int) bool {
		n, black := 0, 0
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				n++
				if bin.Black(x, y) {
					black++
				}
			}
		}
		return n > 0 && float64(black) >= fraction*float64(n)
	}
	for box.Dx() > 0 && dark(box.Min.X, box.Min.Y, box.Min.X+1, box.Max.Y) {
		box.Min.X++
	}
	for box.Dx() > 0 && dark(box.Max.X-1, box.Min.Y, box.Max.X, box.Max.Y) {
		box.Max.X--
	}
	for box.Dy() > 0 && dark(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+1) {
		box.Min.Y++
	}
	for box.Dy() > 0 && dark(box.Min.X, box.Max.Y-1, box.Max.X, box.Max.Y) {
		box.Max.Y--
	}
	return box
}

// fitDetectionBox replaces a detected rect whose size is too far from the
// configured page size with a rect of that size centered on it.
func fitDetectionBox(rect geom.Rect, dpi domain.Dpi, opts Options) geom.Rect {
	if !opts.PageDetectionBox.IsValid() {
		return rect
	}
	w := xform.MMToPixels(opts.PageDetectionBox.W, dpi.Horizontal)
	h := xform.MMToPixels(opts.PageDetectionBox.H, dpi.Vertical)
	tol := opts.PageDetectionTolerance
	if math.Abs(rect.W-w) <= tol*w && math.Abs(rect.H-h) <= tol*h {
		return rect
	}
	c := rect.Center()
	return geom.R(c.X-w/2, c.Y-h/2, w, h)
}

// ComponentContentFinder takes the bounding box of every connected component
// that is neither tiny nor touching the page edges.
type ComponentContentFinder struct {
	// MinComponentMM2 is the smallest component area, in square millimetres,
	// considered content.
	MinComponentMM2 float64
}

func NewComponentContentFinder() *ComponentContentFinder {
	return &ComponentContentFinder{MinComponentMM2: 0.1}
}

func (f *ComponentContentFinder) FindContentBox(ctx context.Context, data filters.FilterData, pageRect geom.Rect) (geom.Rect, error) {
	scale := data.ScaleToFit(contentFinderMaxSide)
	gray, toRaster := data.RenderWorking(scale)
	if err := domain.CheckCancelled(ctx); err != nil {
		return geom.Rect{}, err
	}

	pageBox := toRaster.MapRect(pageRect).ToImageRect().Intersect(gray.Rect)
	if pageBox.Empty() {
		return geom.Rect{}, nil
	}
	bin := imageproc.Binarize(gray, pageBox, data.BwThresholdBlackOnWhite())
	labels := imageproc.LabelComponents(bin)
	if err := domain.CheckCancelled(ctx); err != nil {
		return geom.Rect{}, err
	}

	dpi := float64(data.Xform().WorkingDpi().Horizontal) * scale
	pxPerMM := dpi / 25.4
	minPixels := max(2, int(f.MinComponentMM2*pxPerMM*pxPerMM))
	inner := image.Rect(1, 1, bin.Width()-1, bin.Height()-1)

	var content image.Rectangle
	for _, c := range labels.Components {
		if c.Pixels < minPixels || !c.Bounds.In(inner) {
			continue
		}
		content = content.Union(c.Bounds)
	}
	if content.Empty() {
		return geom.Rect{}, nil
	}

	fromRaster, _ := toRaster.Inverse()
	return fromRaster.MapRect(geom.RectFromImage(content.Add(pageBox.Min))), nil
}
