package deskew

import (
	"context"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
)

// removeShadows deletes large horizontal dark areas, typically the shadows
// near book edges, which would otherwise dominate the skew search. img is
// modified in place.
func removeShadows(ctx context.Context, img *imageproc.BinaryImage, dpi domain.Dpi) error {
	reduced := img
	factor := 1
	for dpi.Horizontal >= 200 && dpi.Vertical >= 200 {
		reduced = imageproc.ReduceThreshold(reduced, 2)
		dpi = domain.Dpi{Horizontal: dpi.Horizontal / 2, Vertical: dpi.Vertical / 2}
		factor *= 2
	}
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}

	opened := imageproc.OpenBrick(reduced,
		from150dpi(200, dpi.Horizontal), from150dpi(14, dpi.Vertical),
		imageproc.BlackSurroundings)
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}

	seed := imageproc.UpscaleIntegerTimes(opened, factor, img.Width(), img.Height(), false)
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}

	garbage := imageproc.SeedFill(seed, img, imageproc.Conn8)
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}
	img.Subtract(garbage)
	return nil
}

// from150dpi scales a size given for 150 dpi to dpi, never below one pixel.
func from150dpi(size, dpi int) int {
	return max(1, (size*dpi+75)/150)
}
