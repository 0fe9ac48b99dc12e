package pagesplit

import (
	"github.com/scantailor/scantailor-cli/internal/geom"
)

// edgeTolerance is how close, in pixels, a cutter may come to the outline
// edge before it is considered not to cut anything.
const edgeTolerance = 1.0

// AdaptPageLayout moves a layout onto a new outline, scaling the cutters
// proportionally.
func AdaptPageLayout(l PageLayout, outline geom.Rect) PageLayout {
	old := l.Outline
	if !old.IsValid() || !outline.IsValid() {
		l.Outline = outline
		return l
	}
	sx, sy := outline.W/old.W, outline.H/old.H
	mapPoint := func(p geom.Point) geom.Point {
		return geom.Pt(outline.X+(p.X-old.X)*sx, outline.Y+(p.Y-old.Y)*sy)
	}
	mapLine := func(line geom.Line) geom.Line {
		if line.IsNull() {
			return line
		}
		return geom.Line{P1: mapPoint(line.P1), P2: mapPoint(line.P2)}
	}
	return PageLayout{
		Kind:    l.Kind,
		Outline: outline,
		Cutter1: mapLine(l.Cutter1),
		Cutter2: mapLine(l.Cutter2),
	}
}

// CorrectPageLayoutType downgrades layouts whose cutters no longer cut the
// outline: a gutter outside the page and a single cut touching both edges
// both become an uncut page.
func CorrectPageLayoutType(l PageLayout) PageLayout {
	o := l.Outline
	inside := func(line geom.Line) bool {
		if line.IsNull() {
			return false
		}
		for _, y := range []float64{o.Top(), o.Bottom()} {
			x := line.XAt(y)
			if x <= o.Left()+edgeTolerance || x >= o.Right()-edgeTolerance {
				return false
			}
		}
		return true
	}

	switch l.Kind {
	case KindTwoPages:
		if !inside(l.Cutter1) {
			return UncutLayout(o)
		}
	case KindSingleCut:
		if !inside(l.Cutter1) && !inside(l.Cutter2) {
			return UncutLayout(o)
		}
	}
	return l
}
