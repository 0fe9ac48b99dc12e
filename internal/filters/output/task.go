package output

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

// Observer is told about the output of every page.
type Observer interface {
	OutputWritten(id domain.PageID, path string, reused bool)
}

// Task is the Output stage for one page.
type Task struct {
	pageID    domain.PageID
	settings  *Settings
	names     FileNameGenerator
	generator Generator
	writer    ImageWriter
	observer  Observer
	logger    *observability.Logger
}

// NewTask returns the output task of a page. A nil generator or writer
// selects the defaults; observer may be nil.
func NewTask(
	pageID domain.PageID,
	settings *Settings,
	names FileNameGenerator,
	generator Generator,
	writer ImageWriter,
	observer Observer,
	logger *observability.Logger,
) *Task {
	if generator == nil {
		generator = DefaultGenerator{}
	}
	if writer == nil {
		writer = TIFFWriter{}
	}
	return &Task{
		pageID:    pageID,
		settings:  settings,
		names:     names,
		generator: generator,
		writer:    writer,
		observer:  observer,
		logger:    logger.WithStage("output"),
	}
}

func (t *Task) Process(ctx context.Context, data filters.FilterData, contentRectPhys geom.Polygon) error {
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}

	params := t.settings.Params(t.pageID)
	xf := data.Xform()
	xf.PostScaleToDpi(params.OutputDpi)
	data = data.WithXform(xf)

	contentRect := outputContentRect(data, contentRectPhys)
	imageParams := NewImageParams(params, xf, contentRect, data.IsBlackOnWhite())
	pictureZones := t.settings.PictureZones(t.pageID)
	fillZones := t.settings.FillZones(t.pageID)
	mainPath := t.names.FilePathFor(t.pageID)

	if !t.needsReprocess(params, imageParams, pictureZones, fillZones) {
		t.logger.Debug().Str("page", t.pageID.String()).Str("file", mainPath).Msg("output reused")
		t.notify(mainPath, true)
		return nil
	}

	rendition, err := t.generator.Generate(ctx, Request{
		Data:         data,
		ContentRect:  contentRect,
		Params:       params,
		PictureZones: pictureZones,
		FillZones:    fillZones,
	})
	if err != nil {
		t.settings.RemoveResult(t.pageID)
		if errors.Is(err, domain.ErrCancelled) {
			return err
		}
		return domain.InternalError(fmt.Sprintf("generate output for %s", t.pageID), err)
	}

	if params.Dewarping.Mode != DewarpingOff && rendition.DistortionModel.IsValid() {
		imageParams.DistortionModel = rendition.DistortionModel
		if params.Dewarping.Mode != DewarpingManual {
			t.settings.SetDistortionModel(t.pageID, rendition.DistortionModel)
		}
	}

	files, err := t.writeFiles(params, rendition)
	if err != nil {
		t.settings.RemoveResult(t.pageID)
		return domain.IOError(fmt.Sprintf("write output for %s", t.pageID), err)
	}

	t.settings.SetResult(t.pageID, Result{
		Image:        imageParams,
		Files:        files,
		PictureZones: pictureZones,
		FillZones:    fillZones,
	})
	t.settings.SetProcessingParams(t.pageID, ProcessingParams{
		AutoZonesFound: rendition.Automask != nil && rendition.Automask.CountBlack() > 0,
	})
	t.logger.Info().
		Str("page", t.pageID.String()).
		Str("file", mainPath).
		Str("color_mode", params.ColorParams.ColorMode.String()).
		Msg("output written")
	t.notify(mainPath, false)
	return nil
}

func (t *Task) notify(path string, reused bool) {
	if t.observer != nil {
		t.observer.OutputWritten(t.pageID, path, reused)
	}
}

// outputContentRect maps the physical content box into output pixels. An
// empty result selects the whole output image.
func outputContentRect(data filters.FilterData, contentRectPhys geom.Polygon) image.Rectangle {
	xf := data.Xform()
	rr := xf.ResultingRect()
	full := image.Rect(0, 0, int(math.Ceil(rr.W)), int(math.Ceil(rr.H)))
	if len(contentRectPhys) == 0 {
		return full
	}
	r := xf.Transform().MapPolygon(contentRectPhys).BoundingRect().Translated(-rr.X, -rr.Y)
	out := r.ToImageRect().Intersect(full)
	if out.Empty() {
		return full
	}
	return out
}

func (t *Task) needsReprocess(params Params, imageParams ImageParams, pictureZones PictureZones, fillZones FillZones) bool {
	stored, ok := t.settings.Result(t.pageID)
	if !ok {
		return true
	}
	if !stored.Image.Matches(imageParams) {
		return true
	}
	if !stored.PictureZones.Equal(pictureZones) || !stored.FillZones.Equal(fillZones) {
		return true
	}
	for _, kind := range expectedFiles(params) {
		if !stored.FileMatches(kind, t.names.PathFor(kind, t.pageID)) {
			return true
		}
	}
	return !readableTIFF(t.names.FilePathFor(t.pageID), imageParams.Size)
}

// expectedFiles lists the files a page with params has on disk.
func expectedFiles(params Params) []FileKind {
	kinds := []FileKind{MainFile}
	if params.SplitsOutput() {
		kinds = append(kinds, ForegroundFile, BackgroundFile)
		if params.WritesOriginalBackground() {
			kinds = append(kinds, OriginalBackgroundFile)
		}
	}
	if params.ColorParams.ColorMode == Mixed {
		kinds = append(kinds, AutomaskFile)
	}
	if params.Despeckle != DespeckleOff && params.NeedsBinarization() {
		kinds = append(kinds, SpecklesFile)
	}
	return kinds
}

func (t *Task) writeFiles(params Params, r *Rendition) (map[FileKind]FileParams, error) {
	files := make(map[FileKind]FileParams)
	write := func(kind FileKind, img image.Image) error {
		fp, err := t.writer.WriteImage(t.names.PathFor(kind, t.pageID), img)
		if err != nil {
			return err
		}
		files[kind] = fp
		return nil
	}

	if params.SplitsOutput() && r.Foreground != nil && r.Background != nil {
		if err := write(ForegroundFile, r.Foreground); err != nil {
			return nil, err
		}
		if err := write(BackgroundFile, r.Background); err != nil {
			return nil, err
		}
		if params.WritesOriginalBackground() && r.OriginalBackground != nil {
			if err := write(OriginalBackgroundFile, r.OriginalBackground); err != nil {
				return nil, err
			}
		} else {
			t.remove(OriginalBackgroundFile)
		}
	} else {
		t.remove(ForegroundFile, BackgroundFile, OriginalBackgroundFile)
	}

	if err := write(MainFile, r.Image); err != nil {
		return nil, err
	}
	t.deleteMutuallyExclusiveOutputFiles()

	if params.ColorParams.ColorMode == Mixed && r.Automask != nil {
		if err := write(AutomaskFile, r.Automask.ToGray()); err != nil {
			return nil, err
		}
	} else {
		t.remove(AutomaskFile)
	}

	if params.Despeckle != DespeckleOff && params.NeedsBinarization() && r.Speckles != nil {
		if err := write(SpecklesFile, r.Speckles.ToGray()); err != nil {
			return nil, err
		}
	} else {
		t.remove(SpecklesFile)
	}
	return files, nil
}

func (t *Task) remove(kinds ...FileKind) {
	for _, kind := range kinds {
		removeFile(t.names.PathFor(kind, t.pageID), t.logger)
	}
}

// deleteMutuallyExclusiveOutputFiles removes files left behind by a previous
// split decision: a single page removes the left and right pages of its
// image and vice versa.
func (t *Task) deleteMutuallyExclusiveOutputFiles() {
	var stale []domain.SubPage
	if t.pageID.SubPage == domain.SinglePage {
		stale = []domain.SubPage{domain.LeftPage, domain.RightPage}
	} else {
		stale = []domain.SubPage{domain.SinglePage}
	}
	for _, sub := range stale {
		id := domain.NewPageID(t.pageID.Image, sub)
		for _, kind := range []FileKind{MainFile, ForegroundFile, BackgroundFile, OriginalBackgroundFile, AutomaskFile, SpecklesFile} {
			removeFile(t.names.PathFor(kind, id), t.logger)
		}
		t.settings.RemoveResult(id)
	}
}

func removeFile(path string, logger *observability.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Str("file", path).Msg("failed to remove stale output file")
	}
}
