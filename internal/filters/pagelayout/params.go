// Package pagelayout implements the fifth stage: margins, alignment and the
// final page rectangle.
package pagelayout

import (
	"fmt"
	"strings"

	"github.com/scantailor/scantailor-cli/internal/geom"
)

// Margins in millimetres or pixels, depending on context.
type Margins struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func UniformMargins(v float64) Margins {
	return Margins{Left: v, Top: v, Right: v, Bottom: v}
}

func (m Margins) Add(o Margins) Margins {
	return Margins{Left: m.Left + o.Left, Top: m.Top + o.Top, Right: m.Right + o.Right, Bottom: m.Bottom + o.Bottom}
}

// Horizontal is the alignment along the x axis.
type Horizontal int

const (
	HAuto Horizontal = iota
	Left
	HCenter
	Right
)

// Vertical is the alignment along the y axis.
type Vertical int

const (
	VAuto Vertical = iota
	Top
	VCenter
	Bottom
)

// Alignment places the content on a page enlarged to the batch-wide size.
// A null alignment keeps the page at its own size.
type Alignment struct {
	Vertical   Vertical   `json:"vertical"`
	Horizontal Horizontal `json:"horizontal"`
	Null       bool       `json:"null"`
}

func (h Horizontal) String() string {
	switch h {
	case Left:
		return "left"
	case HCenter:
		return "hcenter"
	case Right:
		return "right"
	default:
		return "hauto"
	}
}

func (v Vertical) String() string {
	switch v {
	case Top:
		return "top"
	case VCenter:
		return "vcenter"
	case Bottom:
		return "bottom"
	default:
		return "vauto"
	}
}

// ParseAlignment accepts "auto", "original" (null alignment) or a
// "<vertical>-<horizontal>" pair such as "top-hcenter" or "center-left".
func ParseAlignment(s string) (Alignment, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "auto":
		return Alignment{}, nil
	case "original", "null":
		return Alignment{Null: true}, nil
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Alignment{}, fmt.Errorf("unknown alignment %q", s)
	}
	var a Alignment
	switch parts[0] {
	case "top":
		a.Vertical = Top
	case "center", "vcenter":
		a.Vertical = VCenter
	case "bottom":
		a.Vertical = Bottom
	case "auto", "vauto":
		a.Vertical = VAuto
	default:
		return Alignment{}, fmt.Errorf("unknown vertical alignment %q", parts[0])
	}
	switch parts[1] {
	case "left":
		a.Horizontal = Left
	case "center", "hcenter":
		a.Horizontal = HCenter
	case "right":
		a.Horizontal = Right
	case "auto", "hauto":
		a.Horizontal = HAuto
	default:
		return Alignment{}, fmt.Errorf("unknown horizontal alignment %q", parts[1])
	}
	return a, nil
}

// Params is the stored layout of a page. Rectangles are in working
// coordinates after deskew; sizes and margins in millimetres.
type Params struct {
	HardMarginsMM Margins   `json:"hard_margins_mm"`
	PageRect      geom.Rect `json:"page_rect"`
	ContentRect   geom.Rect `json:"content_rect"`
	ContentSizeMM geom.Size `json:"content_size_mm"`
	Alignment     Alignment `json:"alignment"`
	AutoMargins   bool      `json:"auto_margins"`
}

// HardSizeMM is the content size plus the hard margins.
func (p Params) HardSizeMM() geom.Size {
	return geom.Size{
		W: p.ContentSizeMM.W + p.HardMarginsMM.Left + p.HardMarginsMM.Right,
		H: p.ContentSizeMM.H + p.HardMarginsMM.Top + p.HardMarginsMM.Bottom,
	}
}
