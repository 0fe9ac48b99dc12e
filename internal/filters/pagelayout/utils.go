package pagelayout

import (
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/xform"
)

// calcMarginsMM measures the distance between page and content boxes.
func calcMarginsMM(xf xform.ImageTransformation, pageRect, contentRect geom.Rect) Margins {
	dpi := xf.WorkingDpi()
	toMM := func(px float64, d int) float64 { return xform.PixelsToMM(max(0, px), d) }
	return Margins{
		Left:   toMM(contentRect.Left()-pageRect.Left(), dpi.Horizontal),
		Top:    toMM(contentRect.Top()-pageRect.Top(), dpi.Vertical),
		Right:  toMM(pageRect.Right()-contentRect.Right(), dpi.Horizontal),
		Bottom: toMM(pageRect.Bottom()-contentRect.Bottom(), dpi.Vertical),
	}
}

// adaptContentRect turns an empty content box into a point at the center of
// the working area so a page can still be laid out around it.
func adaptContentRect(xf xform.ImageTransformation, contentRect geom.Rect) geom.Rect {
	if contentRect.IsValid() {
		return contentRect
	}
	c := xf.ResultingRect().Center()
	return geom.Rect{X: c.X, Y: c.Y}
}

// calcSoftMarginsMM distributes the difference between the page hard size
// and the aggregate size according to the alignment.
func calcSoftMarginsMM(hardSize, aggHardSize geom.Size, alignment Alignment, pageRect, contentRect geom.Rect) Margins {
	if alignment.Null {
		return Margins{}
	}
	dw := max(0, aggHardSize.W-hardSize.W)
	dh := max(0, aggHardSize.H-hardSize.H)

	var m Margins
	switch alignment.Horizontal {
	case Left:
		m.Right = dw
	case Right:
		m.Left = dw
	case HCenter:
		m.Left, m.Right = dw/2, dw/2
	default:
		m.Left, m.Right = split(dw, contentRect.Left()-pageRect.Left(), pageRect.Right()-contentRect.Right())
	}
	switch alignment.Vertical {
	case Top:
		m.Bottom = dh
	case Bottom:
		m.Top = dh
	case VCenter:
		m.Top, m.Bottom = dh/2, dh/2
	default:
		m.Top, m.Bottom = split(dh, contentRect.Top()-pageRect.Top(), pageRect.Bottom()-contentRect.Bottom())
	}
	return m
}

// split divides total in the proportion of a to b, evenly when both are zero.
func split(total, a, b float64) (float64, float64) {
	a, b = max(0, a), max(0, b)
	if a+b <= 0 {
		return total / 2, total / 2
	}
	first := total * a / (a + b)
	return first, total - first
}

// calcPageRect grows the content box by hard and soft margins, in working
// coordinates.
func calcPageRect(xf xform.ImageTransformation, contentRect geom.Rect, p Params, aggHardSize geom.Size) geom.Rect {
	soft := calcSoftMarginsMM(p.HardSizeMM(), aggHardSize, p.Alignment, p.PageRect, p.ContentRect)
	m := p.HardMarginsMM.Add(soft)
	dpi := xf.WorkingDpi()
	toPx := func(mm float64, d int) float64 { return xform.MMToPixels(mm, d) }
	return contentRect.Adjusted(
		-toPx(m.Left, dpi.Horizontal),
		-toPx(m.Top, dpi.Vertical),
		toPx(m.Right, dpi.Horizontal),
		toPx(m.Bottom, dpi.Vertical),
	)
}
