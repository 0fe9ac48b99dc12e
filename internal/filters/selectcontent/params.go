// Package selectcontent implements the fourth stage: locating the page box
// and the content box inside it.
package selectcontent

import (
	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
)

const outlineTolerance = 1e-2

// Dependencies are the inputs the boxes were computed from.
type Dependencies struct {
	RotatedPageOutline geom.Polygon          `json:"rotated_page_outline"`
	ContentMode        domain.AutoManualMode `json:"content_mode"`
	PageMode           domain.AutoManualMode `json:"page_mode"`
	FineTuneCorners    bool                  `json:"fine_tune_corners"`
}

func NewDependencies(outline geom.Polygon, contentMode, pageMode domain.AutoManualMode, fineTune bool) Dependencies {
	return Dependencies{
		RotatedPageOutline: outline.Clone(),
		ContentMode:        contentMode,
		PageMode:           pageMode,
		FineTuneCorners:    fineTune,
	}
}

// Invalidation tells which boxes have to be recomputed.
type Invalidation struct {
	ContentBox bool
	PageBox    bool
}

// Any reports whether anything has to be recomputed.
func (i Invalidation) Any() bool { return i.ContentBox || i.PageBox }

// CompatibleWith compares with the dependencies of stored params. A changed
// outline invalidates both boxes, a changed content mode only the content box,
// and a changed page mode or fine tuning only the page box.
func (d Dependencies) CompatibleWith(old Dependencies) Invalidation {
	if !d.RotatedPageOutline.ApproxEqual(old.RotatedPageOutline, outlineTolerance) {
		return Invalidation{ContentBox: true, PageBox: true}
	}
	var inv Invalidation
	if d.ContentMode != old.ContentMode {
		inv.ContentBox = true
	}
	if d.PageMode != old.PageMode || d.FineTuneCorners != old.FineTuneCorners {
		inv.PageBox = true
	}
	return inv
}

// Params is the stored result of the stage for one page. Rectangles are in
// the working coordinates after deskew.
type Params struct {
	PageRect      geom.Rect    `json:"page_rect"`
	ContentRect   geom.Rect    `json:"content_rect"`
	ContentSizeMM geom.Size    `json:"content_size_mm"`
	Deps          Dependencies `json:"dependencies"`
}
