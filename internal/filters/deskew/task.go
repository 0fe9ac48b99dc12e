package deskew

import (
	"context"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

// Task is the Deskew stage for one page.
type Task struct {
	pageID        domain.PageID
	settings      *Settings
	imageSettings *filters.ImageSettings
	binarizer     imageproc.Binarizer
	skewFinder    imageproc.SkewEstimator
	next          filters.Stage
	logger        *observability.Logger
}

func NewTask(
	pageID domain.PageID,
	settings *Settings,
	imageSettings *filters.ImageSettings,
	binarizer imageproc.Binarizer,
	skewFinder imageproc.SkewEstimator,
	next filters.Stage,
	logger *observability.Logger,
) *Task {
	if binarizer == nil {
		binarizer = imageproc.OtsuBinarizer{}
	}
	if skewFinder == nil {
		skewFinder = imageproc.NewProjectionSkewFinder()
	}
	return &Task{
		pageID:        pageID,
		settings:      settings,
		imageSettings: imageSettings,
		binarizer:     binarizer,
		skewFinder:    skewFinder,
		next:          next,
		logger:        logger.WithStage("deskew"),
	}
}

func (t *Task) Process(ctx context.Context, data filters.FilterData) error {
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}
	t.logger.Debug().Str("page", t.pageID.String()).Msg("deskewing")

	xf := data.Xform()
	deps := NewDependencies(xf.PreCropArea(), xf.PreRotation())
	params, ok := t.settings.Get(t.pageID)
	stale := !ok || !deps.Matches(params.Deps)

	data, refreshed := t.refreshImageParams(data, stale)

	var angle float64
	switch {
	case !stale:
		angle = params.Angle
	case params.Mode == domain.ModeManual:
		angle = params.Angle
		t.settings.Set(t.pageID, Params{Angle: angle, Deps: deps, Mode: domain.ModeManual})
	default:
		var err error
		angle, err = t.estimate(ctx, data)
		if err != nil {
			return err
		}
		t.settings.Set(t.pageID, Params{Angle: angle, Deps: deps, Mode: domain.ModeAuto})
		t.logger.Debug().Str("page", t.pageID.String()).Float64("angle", angle).Msg("skew estimated")
	}
	if refreshed {
		t.imageSettings.Set(t.pageID, data.ImageParams())
	}

	if t.next == nil {
		return nil
	}
	xf.SetPostRotation(angle)
	return t.next.Process(ctx, data.WithXform(xf))
}

// refreshImageParams recomputes the page binarization parameters from the
// pre-cropped area when the stored ones are missing or stale. The caller
// stores them once the page can no longer be cancelled.
func (t *Task) refreshImageParams(data filters.FilterData, stale bool) (filters.FilterData, bool) {
	if p, ok := t.imageSettings.Get(t.pageID); ok && !stale {
		return data.WithImageParams(p), false
	}
	gray := data.GrayImage()
	area := data.Xform().TransformBack().MapPolygon(data.Xform().ResultingPreCropArea())
	mask := imageproc.PolygonMask(gray.Rect.Dx(), gray.Rect.Dy(), area)
	return data.WithImageParams(t.binarizer.Estimate(gray, mask)), true
}

// estimate measures the skew of the page area. A page area outside the image
// yields zero without running the skew search.
func (t *Task) estimate(ctx context.Context, data filters.FilterData) (float64, error) {
	xf := data.Xform()
	imageArea := xf.TransformBack().MapRect(xf.ResultingRect())
	bounded := imageArea.ToImageRect().Intersect(data.ImageRect())
	if bounded.Empty() {
		t.logger.Warn().Str("page", t.pageID.String()).Msg("page area is outside the image, assuming no skew")
		return 0, nil
	}
	if err := domain.CheckCancelled(ctx); err != nil {
		return 0, err
	}

	bin := imageproc.Binarize(data.GrayImageBlackOnWhite(), bounded, data.BwThresholdBlackOnWhite())
	rotated := bin.RotateOrthogonal(xf.PreRotation().Degrees())
	dpi := xf.OrigDpi()
	if xf.PreRotation().SwapsAxes() {
		dpi = dpi.Transposed()
	}
	if err := removeShadows(ctx, rotated, dpi); err != nil {
		return 0, err
	}

	skew, err := t.skewFinder.FindSkew(ctx, rotated, float64(dpi.Horizontal)/float64(dpi.Vertical))
	if err != nil {
		return 0, err
	}
	if err := domain.CheckCancelled(ctx); err != nil {
		return 0, err
	}
	if skew.Confidence < imageproc.GoodSkewConfidence {
		return 0, nil
	}
	return -skew.Angle, nil
}
