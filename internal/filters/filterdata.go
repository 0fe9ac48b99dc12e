// Package filters holds what the pipeline stages share: the FilterData baton,
// the Stage contract and the per-image binarization settings.
package filters

import (
	"context"
	"image"
	"math"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
	"github.com/scantailor/scantailor-cli/internal/xform"
)

// Stage is one link of the per-page chain.
type Stage interface {
	Process(ctx context.Context, data FilterData) error
}

// StageFunc adapts a function to Stage.
type StageFunc func(ctx context.Context, data FilterData) error

func (f StageFunc) Process(ctx context.Context, data FilterData) error {
	return f(ctx, data)
}

// FilterData carries the source raster and the accumulated transformation
// from stage to stage. It is passed by value; the images it references are
// never modified after construction.
type FilterData struct {
	origImage   image.Image
	gray        *image.Gray
	xform       xform.ImageTransformation
	imageParams imageproc.BinarizationParams
}

// NewFilterData wraps a decoded image. The initial binarization parameters
// are the Otsu threshold of the whole image with black-on-white polarity.
func NewFilterData(img image.Image, dpi domain.Dpi) FilterData {
	gray := imageproc.ToGray(img)
	rect := geom.R(0, 0, float64(gray.Rect.Dx()), float64(gray.Rect.Dy()))
	return FilterData{
		origImage: img,
		gray:      gray,
		xform:     xform.New(rect, dpi),
		imageParams: imageproc.BinarizationParams{
			Threshold:    imageproc.OtsuThreshold(imageproc.Histogram(gray, nil)),
			BlackOnWhite: true,
		},
	}
}

func (d FilterData) OrigImage() image.Image                    { return d.origImage }
func (d FilterData) GrayImage() *image.Gray                    { return d.gray }
func (d FilterData) Xform() xform.ImageTransformation          { return d.xform }
func (d FilterData) ImageParams() imageproc.BinarizationParams { return d.imageParams }
func (d FilterData) BwThreshold() uint8                        { return d.imageParams.Threshold }
func (d FilterData) IsBlackOnWhite() bool                      { return d.imageParams.BlackOnWhite }
func (d FilterData) ImageRect() image.Rectangle                { return d.gray.Rect }

// WithXform returns a copy carrying xf.
func (d FilterData) WithXform(xf xform.ImageTransformation) FilterData {
	d.xform = xf
	return d
}

// WithImageParams returns a copy carrying p.
func (d FilterData) WithImageParams(p imageproc.BinarizationParams) FilterData {
	d.imageParams = p
	return d
}

// GrayImageBlackOnWhite returns the grayscale image with dark content on a
// light background, inverting it for white-on-black material.
func (d FilterData) GrayImageBlackOnWhite() *image.Gray {
	if d.imageParams.BlackOnWhite {
		return d.gray
	}
	return imageproc.InvertGray(d.gray)
}

// BwThresholdBlackOnWhite is the threshold matching GrayImageBlackOnWhite.
func (d FilterData) BwThresholdBlackOnWhite() uint8 {
	if d.imageParams.BlackOnWhite {
		return d.imageParams.Threshold
	}
	return uint8(min(255, 256-int(d.imageParams.Threshold)))
}

// RenderWorking renders the black-on-white grayscale image into the current
// working space scaled by scale. It returns the raster and the mapping from
// working coordinates to raster pixels. Pixels outside the image or outside
// the current crop area are white.
func (d FilterData) RenderWorking(scale float64) (*image.Gray, geom.Affine) {
	rr := d.xform.ResultingRect()
	toRaster := geom.Translation(-rr.X, -rr.Y).Then(geom.Scaling(scale, scale))
	w := int(math.Ceil(rr.W * scale))
	h := int(math.Ceil(rr.H * scale))
	gray := imageproc.RenderGray(d.GrayImageBlackOnWhite(), d.xform.Transform().Then(toRaster), w, h, 0xFF)

	area := toRaster.MapPolygon(d.xform.ResultingPostCropArea())
	if !area.ApproxEqual(toRaster.MapRect(rr).ToPolygon(), 1e-6) {
		mask := imageproc.PolygonMask(w, h, area)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if !mask.Black(x, y) {
					gray.Pix[y*gray.Stride+x] = 0xFF
				}
			}
		}
	}
	return gray, toRaster
}

// ScaleToFit returns the factor shrinking the working rect so that its longer
// side does not exceed limit. It never enlarges.
func (d FilterData) ScaleToFit(limit float64) float64 {
	rr := d.xform.ResultingRect()
	longer := max(rr.W, rr.H)
	if longer <= limit || longer <= 0 {
		return 1
	}
	return limit / longer
}
