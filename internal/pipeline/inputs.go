package pipeline

import (
	"context"
	"fmt"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/imageio"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/project"
)

// MetadataLoader reads per-image metadata of an input file.
type MetadataLoader interface {
	Metadata(ctx context.Context, path string) ([]domain.ImageMetadata, error)
}

// InputOptions control how input resolutions are trusted.
type InputOptions struct {
	// CustomDpi replaces resolutions outside the accepted range when set.
	CustomDpi domain.Dpi
	// ForceDpi applies CustomDpi to every image.
	ForceDpi bool
}

// CollectImages validates the input files, orders them naturally and reads
// the metadata of every image they hold. Any failure aborts the run.
func CollectImages(
	ctx context.Context,
	loader MetadataLoader,
	paths []string,
	opts InputOptions,
	logger *observability.Logger,
) ([]project.ImageInfo, error) {
	if len(paths) == 0 {
		return nil, domain.ValidationError("no input files", nil)
	}
	sorted := append([]string(nil), paths...)
	project.SortNatural(sorted)

	var images []project.ImageInfo
	for _, path := range sorted {
		if err := imageio.ValidateInputPath(path, logger); err != nil {
			return nil, err
		}
		metas, err := loader.Metadata(ctx, path)
		if err != nil {
			return nil, err
		}
		if len(metas) == 0 {
			return nil, domain.LoadError(fmt.Sprintf("no images in %s", path), nil)
		}
		for n, meta := range metas {
			id := domain.NewImageID(path, n)
			meta.Dpi = checkDpi(id, meta, opts, logger)
			images = append(images, project.ImageInfo{ID: id, Metadata: meta, Layout: domain.OnePageLayout})
		}
	}
	return images, nil
}

func checkDpi(id domain.ImageID, meta domain.ImageMetadata, opts InputOptions, logger *observability.Logger) domain.Dpi {
	custom := !opts.CustomDpi.IsNull()
	if custom && opts.ForceDpi {
		return opts.CustomDpi
	}
	if meta.IsDpiOK() {
		return meta.Dpi
	}
	if custom {
		logger.Info().
			Str("image", id.String()).
			Stringer("dpi", meta.Dpi).
			Stringer("custom_dpi", opts.CustomDpi).
			Msg("image resolution out of range, using custom dpi")
		return opts.CustomDpi
	}
	logger.Warn().
		Str("image", id.String()).
		Stringer("dpi", meta.Dpi).
		Msg("image resolution out of range")
	return meta.Dpi
}
