package imageproc

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/scantailor/scantailor-cli/internal/geom"
)

// RenderGray maps src through srcToDst into a w x h grayscale canvas.
// Canvas pixels not covered by the source keep the background value.
func RenderGray(src image.Image, srcToDst geom.Affine, w, h int, background uint8) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, max(w, 0), max(h, 0)))
	FillGray(dst, dst.Rect, background)
	xdraw.BiLinear.Transform(dst, srcToDst.Aff3(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// RenderRGBA is the color counterpart of RenderGray.
func RenderRGBA(src image.Image, srcToDst geom.Affine, w, h int, background color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	xdraw.Draw(dst, dst.Rect, &image.Uniform{C: background}, image.Point{}, xdraw.Src)
	xdraw.BiLinear.Transform(dst, srcToDst.Aff3(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// ScaleGray resizes g to w x h with Catmull-Rom interpolation.
func ScaleGray(g *image.Gray, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Rect, g, g.Rect, xdraw.Src, nil)
	return dst
}
