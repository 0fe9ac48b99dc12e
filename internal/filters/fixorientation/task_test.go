package fixorientation

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/filters/filterstest"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

type countingBinarizer struct {
	calls int
}

func (b *countingBinarizer) Estimate(g *image.Gray, mask *imageproc.BinaryImage) imageproc.BinarizationParams {
	b.calls++
	return imageproc.OtsuBinarizer{}.Estimate(g, mask)
}

func TestTask_EstimatesImageParamsOnce(t *testing.T) {
	pageID, _ := filterstest.SinglePage("a.png")
	imageSettings := filters.NewImageSettings()
	binarizer := &countingBinarizer{}
	rec := &filterstest.Recorder{}
	task := NewTask(pageID, NewSettings(), imageSettings, binarizer, rec, observability.Nop())

	data := filterstest.Data(200, 300, 20)
	require.NoError(t, task.Process(context.Background(), data))
	require.NoError(t, task.Process(context.Background(), data))

	assert.Equal(t, 1, binarizer.calls)
	stored, ok := imageSettings.ForImage(pageID.Image)
	require.True(t, ok)
	assert.True(t, stored.BlackOnWhite)
	assert.Equal(t, stored, rec.Last().ImageParams())
}

func TestTask_SubPagesShareImageEstimate(t *testing.T) {
	imageID := domain.ImageID{FilePath: "spread.png"}
	imageSettings := filters.NewImageSettings()
	binarizer := &countingBinarizer{}
	data := filterstest.Data(400, 300, 20)

	for _, sub := range []domain.SubPage{domain.LeftPage, domain.RightPage} {
		rec := &filterstest.Recorder{}
		task := NewTask(domain.NewPageID(imageID, sub), NewSettings(), imageSettings, binarizer, rec, observability.Nop())
		require.NoError(t, task.Process(context.Background(), data))
	}

	assert.Equal(t, 1, binarizer.calls)
}

func TestTask_PrefersRefinedPageParams(t *testing.T) {
	pageID, _ := filterstest.SinglePage("a.png")
	imageSettings := filters.NewImageSettings()
	refined := imageproc.BinarizationParams{Threshold: 99, BlackOnWhite: true}
	imageSettings.Set(pageID, refined)
	binarizer := &countingBinarizer{}
	rec := &filterstest.Recorder{}
	task := NewTask(pageID, NewSettings(), imageSettings, binarizer, rec, observability.Nop())

	require.NoError(t, task.Process(context.Background(), filterstest.Data(200, 300, 20)))

	assert.Zero(t, binarizer.calls)
	assert.Equal(t, refined, rec.Last().ImageParams())
}

func TestTask_AppliesStoredRotation(t *testing.T) {
	pageID, _ := filterstest.SinglePage("a.png")
	s := NewSettings()
	s.ApplyRotation(pageID.Image, geom.OrthogonalRotation(90))
	rec := &filterstest.Recorder{}
	task := NewTask(pageID, s, filters.NewImageSettings(), nil, rec, observability.Nop())

	require.NoError(t, task.Process(context.Background(), filterstest.Data(200, 300, 20)))

	xf := rec.Last().Xform()
	assert.Equal(t, geom.OrthogonalRotation(90), xf.PreRotation())
	assert.InDelta(t, 300, xf.ResultingRect().W, 1e-6)
	assert.InDelta(t, 200, xf.ResultingRect().H, 1e-6)
}

func TestTask_CancelledDoesNotStore(t *testing.T) {
	pageID, _ := filterstest.SinglePage("a.png")
	imageSettings := filters.NewImageSettings()
	rec := &filterstest.Recorder{}
	task := NewTask(pageID, NewSettings(), imageSettings, nil, rec, observability.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := task.Process(ctx, filterstest.Data(50, 50, 5))

	require.ErrorIs(t, err, domain.ErrCancelled)
	_, ok := imageSettings.ForImage(pageID.Image)
	assert.False(t, ok)
	assert.Empty(t, rec.Calls)
}

func TestSettings_ProjectXML(t *testing.T) {
	pageID, ids := filterstest.SinglePage("a.png")
	s := NewSettings()
	s.ApplyRotation(pageID.Image, geom.OrthogonalRotation(270))

	el := s.ProjectXML(ids)
	require.Len(t, el.Images, 1)
	assert.Equal(t, 1, el.Images[0].ID)
	assert.Equal(t, 270, el.Images[0].Rotation.Degrees)
}
