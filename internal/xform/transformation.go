// Package xform implements the composed mapping from original image pixels to
// the working coordinates each stage operates in.
//
// The composition order is fixed:
//
//	pre-scale (isotropic DPI) -> pre-rotation -> pre-crop -> post-rotation -> post-crop -> post-scale
//
// Setting one component resets every component that comes after it, so a stage
// can never leave stale downstream geometry behind.
package xform

import (
	"math"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
)

// DefaultDpi is assumed for images that carry no usable resolution.
const DefaultDpi = 300

// ImageTransformation is a value type. Copies share polygon storage, which is
// never mutated in place.
type ImageTransformation struct {
	origRect     geom.Rect
	origDpi      domain.Dpi
	preScaledDpi domain.Dpi
	preScale     geom.Affine

	preRotation  geom.OrthogonalRotation
	preCropArea  geom.Polygon
	postRotation float64
	postCropArea geom.Polygon

	postScaledDpi domain.Dpi
	postScale     geom.Affine

	preRotateXform  geom.Affine
	postRotateXform geom.Affine

	transform             geom.Affine
	invTransform          geom.Affine
	resultingPreCropArea  geom.Polygon
	resultingPostCropArea geom.Polygon
	resultingRect         geom.Rect
}

// New returns the identity-like transformation of an image covering origRect.
// Anisotropic resolutions are normalised by scaling the lower resolution axis up.
func New(origRect geom.Rect, dpi domain.Dpi) ImageTransformation {
	if dpi.IsNull() {
		dpi = domain.NewDpi(DefaultDpi)
	}
	target := max(dpi.Horizontal, dpi.Vertical)
	t := ImageTransformation{
		origRect:     origRect,
		origDpi:      dpi,
		preScaledDpi: domain.NewDpi(target),
		preScale: geom.Scaling(
			float64(target)/float64(dpi.Horizontal),
			float64(target)/float64(dpi.Vertical),
		),
		postScale: geom.Identity(),
	}
	t.update()
	return t
}

func (t ImageTransformation) OrigRect() geom.Rect                  { return t.origRect }
func (t ImageTransformation) OrigDpi() domain.Dpi                  { return t.origDpi }
func (t ImageTransformation) PreScaledDpi() domain.Dpi             { return t.preScaledDpi }
func (t ImageTransformation) PreRotation() geom.OrthogonalRotation { return t.preRotation }
func (t ImageTransformation) PostRotation() float64                { return t.postRotation }
func (t ImageTransformation) PostScaledDpi() domain.Dpi            { return t.postScaledDpi }
func (t ImageTransformation) Transform() geom.Affine               { return t.transform }
func (t ImageTransformation) TransformBack() geom.Affine           { return t.invTransform }
func (t ImageTransformation) ResultingRect() geom.Rect             { return t.resultingRect }
func (t ImageTransformation) ResultingPreCropArea() geom.Polygon   { return t.resultingPreCropArea }
func (t ImageTransformation) ResultingPostCropArea() geom.Polygon  { return t.resultingPostCropArea }
func (t ImageTransformation) PreRotateTransform() geom.Affine {
	return t.preScale.Then(t.preRotateXform)
}
func (t ImageTransformation) PostRotateTransform() geom.Affine { return t.postRotateXform }
func (t ImageTransformation) HasPostCropArea() bool            { return len(t.postCropArea) > 0 }
func (t ImageTransformation) PostCropArea() geom.Polygon       { return t.postCropArea }

// PreCropArea returns the pre-crop polygon in pre-rotated coordinates. When
// none was set this is the whole rotated image.
func (t ImageTransformation) PreCropArea() geom.Polygon {
	if len(t.preCropArea) > 0 {
		return t.preCropArea
	}
	return t.PreRotateTransform().MapRect(t.origRect).ToPolygon()
}

// WorkingDpi is the resolution of the working space before post-scaling.
func (t ImageTransformation) WorkingDpi() domain.Dpi {
	return t.preScaledDpi
}

// SetPreRotation sets the orthogonal rotation applied right after pre-scaling.
func (t *ImageTransformation) SetPreRotation(r geom.OrthogonalRotation) {
	t.preRotation = r
	t.preCropArea = nil
	t.postRotation = 0
	t.postCropArea = nil
	t.resetPostScale()
	t.update()
}

// SetPreCropArea restricts the image to a polygon in pre-rotated coordinates.
func (t *ImageTransformation) SetPreCropArea(area geom.Polygon) {
	t.preCropArea = area.Clone()
	t.postRotation = 0
	t.postCropArea = nil
	t.resetPostScale()
	t.update()
}

// SetPostRotation rotates the pre-cropped area by deg degrees around its center.
func (t *ImageTransformation) SetPostRotation(deg float64) {
	t.postRotation = deg
	t.postCropArea = nil
	t.resetPostScale()
	t.update()
}

// SetPostCropArea sets the final page area in current working coordinates.
func (t *ImageTransformation) SetPostCropArea(area geom.Polygon) {
	t.postCropArea = area.Clone()
	t.resetPostScale()
	t.update()
}

// PostScaleToDpi scales the working space to the requested output resolution.
func (t *ImageTransformation) PostScaleToDpi(dpi domain.Dpi) {
	if dpi.IsNull() {
		t.resetPostScale()
	} else {
		t.postScaledDpi = dpi
		t.postScale = geom.Scaling(
			float64(dpi.Horizontal)/float64(t.preScaledDpi.Horizontal),
			float64(dpi.Vertical)/float64(t.preScaledDpi.Vertical),
		)
	}
	t.update()
}

func (t *ImageTransformation) resetPostScale() {
	t.postScaledDpi = domain.Dpi{}
	t.postScale = geom.Identity()
}

func (t *ImageTransformation) update() {
	scaledSize := t.preScale.MapRect(t.origRect).Size()
	t.preRotateXform = t.preRotation.Transform(scaledSize)
	preRotate := t.preScale.Then(t.preRotateXform)

	preCrop := t.PreCropArea()
	center := preCrop.BoundingRect().Center()
	rotate := geom.Translation(-center.X, -center.Y).
		Then(geom.Rotation(t.postRotation)).
		Then(geom.Translation(center.X, center.Y))
	rotatedArea := rotate.MapPolygon(preCrop)
	br := rotatedArea.BoundingRect()
	t.postRotateXform = rotate.Then(geom.Translation(-br.X, -br.Y))

	working := t.postRotateXform.MapPolygon(preCrop)
	postCrop := working
	if len(t.postCropArea) > 0 {
		postCrop = t.postCropArea
	}

	t.transform = preRotate.Then(t.postRotateXform).Then(t.postScale)
	t.invTransform, _ = t.transform.Inverse()
	t.resultingPreCropArea = t.postScale.MapPolygon(working)
	t.resultingPostCropArea = t.postScale.MapPolygon(postCrop)
	t.resultingRect = t.resultingPostCropArea.BoundingRect()
}

// ApproxEqual compares the effective geometry of two transformations.
func (t ImageTransformation) ApproxEqual(o ImageTransformation, eps float64) bool {
	return t.transform.ApproxEqual(o.transform, eps) &&
		t.resultingRect.ApproxEqual(o.resultingRect, eps) &&
		t.resultingPostCropArea.ApproxEqual(o.resultingPostCropArea, eps)
}

// PhysSizeCalc converts working-space rectangles to millimetres using the
// original image resolution.
type PhysSizeCalc struct {
	toMM geom.Affine
}

// NewPhysSizeCalc captures the current mapping of t.
func NewPhysSizeCalc(t ImageTransformation) PhysSizeCalc {
	dpi := t.OrigDpi()
	return PhysSizeCalc{
		toMM: t.TransformBack().Then(geom.Scaling(
			25.4/float64(dpi.Horizontal),
			25.4/float64(dpi.Vertical),
		)),
	}
}

// SizeMM returns the physical width and height of a working-space rectangle.
func (c PhysSizeCalc) SizeMM(r geom.Rect) geom.Size {
	poly := c.toMM.MapPolygon(r.ToPolygon())
	return geom.Size{W: poly[0].Dist(poly[1]), H: poly[1].Dist(poly[2])}
}

// MMToPixels converts a length in millimetres to pixels at dpi.
func MMToPixels(mm float64, dpi int) float64 {
	return mm * float64(dpi) / 25.4
}

// PixelsToMM converts a length in pixels at dpi to millimetres.
func PixelsToMM(px float64, dpi int) float64 {
	if dpi <= 0 {
		return 0
	}
	return px * 25.4 / float64(dpi)
}

// Round rounds to a fixed number of decimals, used to keep persisted values stable.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
