package output

import (
	"image"

	"github.com/scantailor/scantailor-cli/internal/imageproc"
)

const (
	pictureDetectionDpi = 300
	halftoneLow         = 40
	halftoneHigh        = 215
)

// detectPictures marks areas dominated by intermediate tones. The search runs
// on a reduced copy of g and the mask is scaled back to full size.
func detectPictures(g *image.Gray, o PictureShapeOptions, dpi int) *imageproc.BinaryImage {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	factor := max(1, dpi/pictureDetectionDpi)
	sw, sh := max(1, w/factor), max(1, h/factor)
	small := g
	if factor > 1 {
		small = imageproc.ScaleGray(g, sw, sh)
	}

	mid := imageproc.NewBinaryImage(sw, sh)
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			v := small.Pix[y*small.Stride+x]
			mid.Set(x, y, v > halftoneLow && v < halftoneHigh)
		}
	}

	// Higher sensitivity opens with a smaller brick so smaller pictures survive.
	sensitivity := max(1, o.Sensitivity)
	brick := max(3, 7*100/sensitivity)
	mid = imageproc.OpenBrick(mid, brick, brick, imageproc.WhiteSurroundings)
	mid = imageproc.DilateBrick(mid, 3, 3, imageproc.WhiteSurroundings)

	minArea := brick * brick * 4
	labels := imageproc.LabelComponents(mid)
	found := imageproc.NewBinaryImage(sw, sh)
	if o.Shape == PictureShapeRectangular {
		for _, c := range labels.Components {
			if c.Pixels >= minArea {
				found.FillRect(c.Bounds, true)
			}
		}
	} else {
		found = labels.Mask(func(c imageproc.Component) bool { return c.Pixels >= minArea })
	}

	if factor == 1 {
		return found
	}
	return imageproc.UpscaleIntegerTimes(found, factor, w, h, false)
}
