package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/imageio"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/project"
	"github.com/scantailor/scantailor-cli/internal/xform"
)

// ImageLoader decodes the image behind an id.
type ImageLoader interface {
	Load(ctx context.Context, id domain.ImageID) (image.Image, domain.ImageMetadata, error)
}

// LoadStep decodes the image of a page and feeds it to the page chain.
type LoadStep struct {
	loader ImageLoader
	pages  *project.Pages
	logger *observability.Logger
}

func NewLoadStep(loader ImageLoader, pages *project.Pages, logger *observability.Logger) *LoadStep {
	return &LoadStep{loader: loader, pages: pages, logger: logger.WithStage("load")}
}

// Process loads the image of pageID and runs chain on it. The resolution
// recorded for the image wins over the one embedded in the file.
func (s *LoadStep) Process(ctx context.Context, pageID domain.PageID, chain filters.Stage) error {
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}
	img, meta, err := s.loader.Load(ctx, pageID.Image)
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			return err
		}
		var de *domain.DomainError
		if errors.As(err, &de) {
			return err
		}
		return domain.LoadError(fmt.Sprintf("failed to load %s", pageID.Image), err)
	}
	if img == nil || img.Bounds().Empty() {
		return domain.LoadError(fmt.Sprintf("no image data in %s", pageID.Image), nil)
	}
	img = imageio.Normalize(img)

	dpi := meta.Dpi
	if recorded, ok := s.pages.Metadata(pageID.Image); ok && !recorded.Dpi.IsNull() {
		dpi = recorded.Dpi
	}
	if dpi.IsNull() {
		dpi = domain.NewDpi(xform.DefaultDpi)
	}
	meta.Dpi = dpi
	if s.pages.UpdateMetadata(pageID.Image, meta) {
		s.logger.Debug().
			Str("image", pageID.Image.String()).
			Int("width", meta.Width).
			Int("height", meta.Height).
			Msg("image metadata updated")
	}

	return chain.Process(ctx, filters.NewFilterData(img, dpi))
}
