package selectcontent

import (
	"context"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/xform"
)

const rectTolerance = 1e-3

// NextStage receives the page and content boxes in working coordinates.
type NextStage interface {
	Process(ctx context.Context, data filters.FilterData, pageRect, contentRect geom.Rect) error
}

// Task is the SelectContent stage for one page.
type Task struct {
	pageID        domain.PageID
	settings      *Settings
	pageFinder    PageFinder
	contentFinder ContentFinder
	next          NextStage
	logger        *observability.Logger
}

func NewTask(
	pageID domain.PageID,
	settings *Settings,
	pageFinder PageFinder,
	contentFinder ContentFinder,
	next NextStage,
	logger *observability.Logger,
) *Task {
	if pageFinder == nil {
		pageFinder = NewBorderPageFinder()
	}
	if contentFinder == nil {
		contentFinder = NewComponentContentFinder()
	}
	return &Task{
		pageID:        pageID,
		settings:      settings,
		pageFinder:    pageFinder,
		contentFinder: contentFinder,
		next:          next,
		logger:        logger.WithStage("select_content"),
	}
}

func (t *Task) Process(ctx context.Context, data filters.FilterData) error {
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}
	t.logger.Debug().Str("page", t.pageID.String()).Msg("selecting content")

	xf := data.Xform()
	opts := t.settings.Options()
	deps := NewDependencies(xf.ResultingPreCropArea(), opts.ContentMode, opts.PageMode, opts.FineTuneCorners)

	old, hasOld := t.settings.Get(t.pageID)
	params := Params{Deps: deps}
	inv := Invalidation{ContentBox: true, PageBox: true}
	if hasOld {
		params = old
		params.Deps = deps
		inv = deps.CompatibleWith(old.Deps)
	}

	if inv.PageBox {
		pageRect, err := t.pageBox(ctx, data, opts, params.PageRect, hasOld)
		if err != nil {
			return err
		}
		if !hasOld || !pageRect.ApproxEqual(old.PageRect, rectTolerance) {
			inv.ContentBox = true
		}
		params.PageRect = pageRect
	}

	if inv.ContentBox {
		contentRect, err := t.contentBox(ctx, data, opts, params.PageRect, params.ContentRect, hasOld)
		if err != nil {
			return err
		}
		params.ContentRect = contentRect
		params.ContentSizeMM = xform.NewPhysSizeCalc(xf).SizeMM(contentRect)
	}

	if inv.Any() {
		t.logger.Debug().
			Str("page", t.pageID.String()).
			Bool("page_box", inv.PageBox).
			Bool("content_box", inv.ContentBox).
			Msg("boxes updated")
	}
	t.settings.Set(t.pageID, params)

	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}
	if t.next == nil {
		return nil
	}
	return t.next.Process(ctx, data, params.PageRect, params.ContentRect)
}

func (t *Task) pageBox(ctx context.Context, data filters.FilterData, opts Options, previous geom.Rect, hasPrevious bool) (geom.Rect, error) {
	resulting := data.Xform().ResultingRect()
	pageRect := previous
	switch {
	case opts.PageMode == domain.ModeDisabled:
		pageRect = resulting
	case opts.PageMode == domain.ModeAuto || !hasPrevious:
		found, err := t.pageFinder.FindPageBox(ctx, data, opts)
		if err != nil {
			return geom.Rect{}, err
		}
		pageRect = found
	}
	if !resulting.Intersected(pageRect).IsValid() {
		pageRect = resulting
	}
	return pageRect, nil
}

func (t *Task) contentBox(ctx context.Context, data filters.FilterData, opts Options, pageRect, previous geom.Rect, hasPrevious bool) (geom.Rect, error) {
	contentRect := previous
	switch {
	case opts.ContentMode == domain.ModeDisabled:
		contentRect = pageRect
	case opts.ContentMode == domain.ModeAuto || !hasPrevious || !previous.IsValid():
		found, err := t.contentFinder.FindContentBox(ctx, data, pageRect)
		if err != nil {
			return geom.Rect{}, err
		}
		contentRect = found
	}
	if contentRect.IsValid() {
		contentRect = contentRect.Intersected(pageRect)
	}
	if !contentRect.IsValid() {
		contentRect = pageRect
	}
	return contentRect, nil
}
