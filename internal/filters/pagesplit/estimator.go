package pagesplit

import (
	"context"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
)

// LayoutEstimator detects the page layout of an image. For a concrete
// layoutType the returned layout must be of that type.
type LayoutEstimator interface {
	EstimatePageLayout(ctx context.Context, layoutType LayoutType, data filters.FilterData) (PageLayout, error)
}

// GutterEstimator finds the gutter of two facing pages as the emptiest
// column band around the middle of a landscape scan.
type GutterEstimator struct {
	// MaxSide bounds the raster the analysis runs on.
	MaxSide float64
	// SearchBand is the central fraction of the width searched for a gutter.
	SearchBand float64
	// MaxGutterInk is the ink of the gutter relative to the average column.
	MaxGutterInk float64
}

func NewGutterEstimator() *GutterEstimator {
	return &GutterEstimator{MaxSide: 800, SearchBand: 0.4, MaxGutterInk: 0.05}
}

func (e *GutterEstimator) EstimatePageLayout(ctx context.Context, layoutType LayoutType, data filters.FilterData) (PageLayout, error) {
	outline := data.Xform().ResultingRect()
	if layoutType == SinglePageUncut || !outline.IsValid() {
		return UncutLayout(outline), nil
	}

	scale := data.ScaleToFit(e.MaxSide)
	gray, _ := data.RenderWorking(scale)
	bin := imageproc.Binarize(gray, gray.Rect, data.BwThresholdBlackOnWhite())
	if err := domain.CheckCancelled(ctx); err != nil {
		return PageLayout{}, err
	}
	ink := columnInk(bin)

	switch layoutType {
	case PagePlusOffcut:
		left, right := inkExtent(ink)
		minX := outline.Left() + 2*edgeTolerance
		maxX := outline.Right() - 2*edgeTolerance
		lx := min(max(outline.X+float64(left)/scale, minX), maxX)
		rx := min(max(outline.X+float64(right+1)/scale, lx), maxX)
		return SingleCutLayout(outline, geom.VerticalLine(lx), geom.VerticalLine(rx)), nil
	case TwoPages:
		x, ok := e.findGutter(ink)
		if !ok {
			x = len(ink) / 2
		}
		return TwoPagesLayout(outline, geom.VerticalLine(outline.X+float64(x)/scale)), nil
	}

	if outline.W <= outline.H {
		return UncutLayout(outline), nil
	}
	if x, ok := e.findGutter(ink); ok {
		return TwoPagesLayout(outline, geom.VerticalLine(outline.X+float64(x)/scale)), nil
	}
	return UncutLayout(outline), nil
}

// findGutter returns the center of the emptiest smoothed column inside the
// search band, provided both halves carry ink.
func (e *GutterEstimator) findGutter(ink []int) (int, bool) {
	n := len(ink)
	if n < 8 {
		return 0, false
	}
	total := 0
	for _, v := range ink {
		total += v
	}
	if total == 0 {
		return 0, false
	}
	mean := float64(total) / float64(n)

	radius := max(1, n/100)
	lo := int(float64(n) * (0.5 - e.SearchBand/2))
	hi := int(float64(n) * (0.5 + e.SearchBand/2))
	best, bestInk := -1, 0.0
	for x := lo; x < hi; x++ {
		sum, cnt := 0, 0
		for i := max(0, x-radius); i <= min(n-1, x+radius); i++ {
			sum += ink[i]
			cnt++
		}
		avg := float64(sum) / float64(cnt)
		if best < 0 || avg < bestInk {
			best, bestInk = x, avg
		}
	}
	if best < 0 || bestInk > e.MaxGutterInk*mean {
		return 0, false
	}

	left, right := 0, 0
	for i, v := range ink {
		if i < best {
			left += v
		} else {
			right += v
		}
	}
	if float64(left) < 0.1*float64(total) || float64(right) < 0.1*float64(total) {
		return 0, false
	}
	return best, true
}

func columnInk(bin *imageproc.BinaryImage) []int {
	ink := make([]int, bin.Width())
	for y := 0; y < bin.Height(); y++ {
		for x := range ink {
			if bin.Black(x, y) {
				ink[x]++
			}
		}
	}
	return ink
}

// inkExtent returns the first and last columns carrying ink, or the full
// range for a blank image.
func inkExtent(ink []int) (int, int) {
	left, right := 0, len(ink)-1
	for left < right && ink[left] == 0 {
		left++
	}
	for right > left && ink[right] == 0 {
		right--
	}
	if left >= right {
		return 0, len(ink) - 1
	}
	return left, right
}
