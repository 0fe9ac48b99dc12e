package pagelayout

import (
	"context"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/xform"
)

// NextStage receives the content box mapped back to original image pixels.
type NextStage interface {
	Process(ctx context.Context, data filters.FilterData, contentRectPhys geom.Polygon) error
}

// Task is the PageLayout stage for one page.
type Task struct {
	pageID   domain.PageID
	settings *Settings
	next     NextStage
	logger   *observability.Logger
}

func NewTask(pageID domain.PageID, settings *Settings, next NextStage, logger *observability.Logger) *Task {
	return &Task{
		pageID:   pageID,
		settings: settings,
		next:     next,
		logger:   logger.WithStage("page_layout"),
	}
}

func (t *Task) Process(ctx context.Context, data filters.FilterData, pageRect, contentRect geom.Rect) error {
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}
	t.logger.Debug().Str("page", t.pageID.String()).Msg("laying out page")

	xf := data.Xform()
	contentSizeMM := xform.NewPhysSizeCalc(xf).SizeMM(contentRect)

	var margins *Margins
	if t.settings.Options().AutoMargins {
		m := calcMarginsMM(xf, pageRect, contentRect)
		margins = &m
	}
	params, before, after := t.settings.UpdateContentSizeAndGetParams(t.pageID, pageRect, contentRect, contentSizeMM, margins)
	if before != after {
		t.logger.Debug().
			Float64("width_mm", after.W).
			Float64("height_mm", after.H).
			Msg("aggregate page size changed")
	}

	if t.next == nil {
		return nil
	}
	adapted := adaptContentRect(xf, contentRect)
	contentRectPhys := xf.TransformBack().MapPolygon(adapted.ToPolygon())
	pageRectWorking := calcPageRect(xf, adapted, params, after)

	xf.SetPostCropArea(pageRectWorking.ToPolygon().ShiftToRoundedOrigin())
	return t.next.Process(ctx, data.WithXform(xf), contentRectPhys)
}
