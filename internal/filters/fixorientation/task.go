package fixorientation

import (
	"context"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

// Task is the FixOrientation stage for one page.
type Task struct {
	pageID        domain.PageID
	settings      *Settings
	imageSettings *filters.ImageSettings
	binarizer     imageproc.Binarizer
	next          filters.Stage
	logger        *observability.Logger
}

func NewTask(
	pageID domain.PageID,
	settings *Settings,
	imageSettings *filters.ImageSettings,
	binarizer imageproc.Binarizer,
	next filters.Stage,
	logger *observability.Logger,
) *Task {
	if binarizer == nil {
		binarizer = imageproc.OtsuBinarizer{}
	}
	return &Task{
		pageID:        pageID,
		settings:      settings,
		imageSettings: imageSettings,
		binarizer:     binarizer,
		next:          next,
		logger:        logger.WithStage("fix_orientation"),
	}
}

// Process resolves the image binarization parameters once per image, applies
// the stored rotation and forwards.
func (t *Task) Process(ctx context.Context, data filters.FilterData) error {
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}

	imageID := t.pageID.Image
	t.logger.Debug().Str("image", imageID.String()).Msg("fixing orientation")

	params, ok := t.imageSettings.Get(t.pageID)
	if !ok {
		params, ok = t.imageSettings.ForImage(imageID)
	}
	if !ok {
		params = t.binarizer.Estimate(data.GrayImage(), nil)
		t.imageSettings.SetForImage(imageID, params)
	}
	data = data.WithImageParams(params)

	xf := data.Xform()
	xf.SetPreRotation(t.settings.RotationFor(imageID))

	if t.next == nil {
		return nil
	}
	return t.next.Process(ctx, data.WithXform(xf))
}
