package pagesplit

import (
	"context"
	"fmt"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

// maxUpdateAttempts bounds the read-compute-swap loop. Conflicts only happen
// with concurrent writers, so running out of attempts is a bug.
const maxUpdateAttempts = 8

// LayoutRecorder receives the number of pages each image turned out to have.
// It reports whether the layout of the image changed.
type LayoutRecorder interface {
	SetLayoutTypeFor(id domain.ImageID, layout domain.ImageLayout) bool
}

// Task is the PageSplit stage for one page.
type Task struct {
	pageID    domain.PageID
	settings  *Settings
	pages     LayoutRecorder
	estimator LayoutEstimator
	next      filters.Stage
	logger    *observability.Logger
}

func NewTask(
	pageID domain.PageID,
	settings *Settings,
	pages LayoutRecorder,
	estimator LayoutEstimator,
	next filters.Stage,
	logger *observability.Logger,
) *Task {
	if estimator == nil {
		estimator = NewGutterEstimator()
	}
	return &Task{
		pageID:    pageID,
		settings:  settings,
		pages:     pages,
		estimator: estimator,
		next:      next,
		logger:    logger.WithStage("page_split"),
	}
}

// Process resolves the layout of the image, records it and forwards the
// outline of this task's sub page. When the image layout no longer contains
// the sub page it returns domain.ErrLayoutChanged without forwarding.
func (t *Task) Process(ctx context.Context, data filters.FilterData) error {
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}

	imageID := t.pageID.Image
	t.logger.Debug().Str("image", imageID.String()).Msg("splitting pages")

	record, err := t.resolve(ctx, imageID, data)
	if err != nil {
		return err
	}
	layout := record.Params.Layout

	if t.pages != nil && t.pages.SetLayoutTypeFor(imageID, layout.ImageLayout()) {
		t.logger.Info().Str("image", imageID.String()).Str("layout", layout.Kind.String()).Msg("image layout changed")
	}
	if !layout.ImageLayout().Includes(t.pageID.SubPage) {
		return fmt.Errorf("%w: %s is now %s", domain.ErrLayoutChanged, t.pageID, layout.Kind)
	}

	if t.next == nil {
		return nil
	}
	xf := data.Xform()
	xf.SetPreCropArea(layout.PageOutline(t.pageID.SubPage))
	return t.next.Process(ctx, data.WithXform(xf))
}

func (t *Task) resolve(ctx context.Context, imageID domain.ImageID, data filters.FilterData) (Record, error) {
	record, version := t.settings.PageRecord(imageID)
	xf := data.Xform()
	imageSize := geom.RectFromImage(data.ImageRect()).Size()

	for attempt := 0; ; attempt++ {
		if attempt == maxUpdateAttempts {
			return record, domain.InternalError(
				fmt.Sprintf("page split settings of %s kept changing", imageID), nil)
		}

		deps := NewDependencies(imageSize, xf.PreRotation(), record.CombinedLayoutType())
		params := record.Params
		newLayoutType := record.CombinedLayoutType()
		mode := domain.ModeAuto
		var newLayout PageLayout

		switch {
		case params == nil || !deps.CompatibleWith(*params):
			if params == nil || record.CombinedLayoutType() == AutoLayoutType {
				layout, err := t.estimator.EstimatePageLayout(ctx, record.CombinedLayoutType(), data)
				if err != nil {
					return record, err
				}
				if err := domain.CheckCancelled(ctx); err != nil {
					return record, err
				}
				newLayout = layout
			} else {
				newLayout = AdaptPageLayout(params.Layout, xf.ResultingRect())
				newLayoutType = newLayout.ToLayoutType()
				mode = params.SplitLineMode
			}
		default:
			corrected := CorrectPageLayoutType(params.Layout)
			if corrected.Kind == params.Layout.Kind {
				return record, nil
			}
			newLayout = corrected
			newLayoutType = corrected.ToLayoutType()
			mode = params.SplitLineMode
		}

		deps.LayoutType = newLayoutType
		action := UpdateAction{}.
			SetLayoutType(newLayoutType).
			SetParams(Params{Layout: newLayout, Deps: deps, SplitLineMode: mode})
		if record.Update(action).HasLayoutTypeConflict() {
			return record, domain.InternalError(
				fmt.Sprintf("estimated %s layout for %s contradicts requested %s",
					newLayout.Kind, imageID, record.CombinedLayoutType()), nil)
		}

		var conflict bool
		record, version, conflict = t.settings.ConditionalUpdate(imageID, version, action)
		if !conflict {
			return record, nil
		}
		t.logger.Debug().Str("image", imageID.String()).Int("attempt", attempt+1).Msg("page split record changed concurrently, retrying")
	}
}
