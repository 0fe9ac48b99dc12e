// Package pagesplit implements the second stage: classifying a scan as one
// page, one page plus offcut, or two facing pages.
package pagesplit

import (
	"fmt"
	"strings"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
)

// LayoutType is the layout requested for an image.
type LayoutType int

const (
	AutoLayoutType LayoutType = iota
	SinglePageUncut
	PagePlusOffcut
	TwoPages
)

func (t LayoutType) String() string {
	switch t {
	case SinglePageUncut:
		return "single-uncut"
	case PagePlusOffcut:
		return "single-cut"
	case TwoPages:
		return "two-pages"
	default:
		return "auto-detect"
	}
}

// ParseLayoutType accepts the String forms plus the short CLI spellings
// "auto", "1" and "2".
func ParseLayoutType(s string) (LayoutType, error) {
	switch strings.ToLower(s) {
	case "auto", "auto-detect", "":
		return AutoLayoutType, nil
	case "single-uncut", "1":
		return SinglePageUncut, nil
	case "single-cut", "1.5":
		return PagePlusOffcut, nil
	case "two-pages", "2":
		return TwoPages, nil
	}
	return AutoLayoutType, fmt.Errorf("unknown layout type %q", s)
}

func (t LayoutType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *LayoutType) UnmarshalText(text []byte) error {
	v, err := ParseLayoutType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// LayoutKind is the concrete shape of a detected layout.
type LayoutKind int

const (
	KindUncut LayoutKind = iota
	KindSingleCut
	KindTwoPages
)

func (k LayoutKind) String() string {
	switch k {
	case KindSingleCut:
		return "single-cut"
	case KindTwoPages:
		return "two-pages"
	default:
		return "single-uncut"
	}
}

func (k LayoutKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *LayoutKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "single-uncut":
		*k = KindUncut
	case "single-cut":
		*k = KindSingleCut
	case "two-pages":
		*k = KindTwoPages
	default:
		return fmt.Errorf("unknown layout kind %q", text)
	}
	return nil
}

// PageLayout is the split geometry in pre-rotated image coordinates.
// Cutter1 is the left cut (or the gutter for two pages), Cutter2 the right
// cut of a single cut page.
type PageLayout struct {
	Kind    LayoutKind `json:"kind"`
	Outline geom.Rect  `json:"outline"`
	Cutter1 geom.Line  `json:"cutter1"`
	Cutter2 geom.Line  `json:"cutter2"`
}

// UncutLayout covers the whole outline.
func UncutLayout(outline geom.Rect) PageLayout {
	return PageLayout{Kind: KindUncut, Outline: outline}
}

// SingleCutLayout keeps what lies between two cutters.
func SingleCutLayout(outline geom.Rect, left, right geom.Line) PageLayout {
	return PageLayout{Kind: KindSingleCut, Outline: outline, Cutter1: left, Cutter2: right}
}

// TwoPagesLayout splits the outline along the gutter.
func TwoPagesLayout(outline geom.Rect, gutter geom.Line) PageLayout {
	return PageLayout{Kind: KindTwoPages, Outline: outline, Cutter1: gutter}
}

// ToLayoutType returns the concrete layout type of the layout.
func (l PageLayout) ToLayoutType() LayoutType {
	switch l.Kind {
	case KindSingleCut:
		return PagePlusOffcut
	case KindTwoPages:
		return TwoPages
	default:
		return SinglePageUncut
	}
}

// ImageLayout returns how many logical pages the layout yields.
func (l PageLayout) ImageLayout() domain.ImageLayout {
	if l.Kind == KindTwoPages {
		return domain.TwoPageLayout
	}
	return domain.OnePageLayout
}

// PageOutline returns the area of sub page sub.
func (l PageLayout) PageOutline(sub domain.SubPage) geom.Polygon {
	o := l.Outline
	top, bottom := o.Top(), o.Bottom()
	clampX := func(x float64) float64 { return min(max(x, o.Left()), o.Right()) }
	between := func(left, right geom.Line) geom.Polygon {
		return geom.Polygon{
			geom.Pt(clampX(left.XAt(top)), top),
			geom.Pt(clampX(right.XAt(top)), top),
			geom.Pt(clampX(right.XAt(bottom)), bottom),
			geom.Pt(clampX(left.XAt(bottom)), bottom),
		}
	}
	leftEdge := geom.VerticalLine(o.Left())
	rightEdge := geom.VerticalLine(o.Right())

	switch l.Kind {
	case KindSingleCut:
		return between(l.Cutter1, l.Cutter2)
	case KindTwoPages:
		switch sub {
		case domain.LeftPage:
			return between(leftEdge, l.Cutter1)
		case domain.RightPage:
			return between(l.Cutter1, rightEdge)
		}
	}
	return o.ToPolygon()
}
