package imageio

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/scantailor/scantailor-cli/internal/imageproc"
)

// Normalize converts img to *image.Gray unless it needs color or alpha, in
// which case it becomes *image.RGBA. Both results start at the origin.
func Normalize(img image.Image) image.Image {
	switch t := img.(type) {
	case *image.Gray, *image.Gray16:
		return imageproc.ToGray(img)
	case *image.Paletted:
		if imageproc.IsGrayPalette(t.Palette) && opaquePalette(t.Palette) {
			return imageproc.ToGray(img)
		}
	}
	if allGrayOpaque(img) {
		return imageproc.ToGray(img)
	}
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}

func opaquePalette(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a != 0xFFFF {
			return false
		}
	}
	return true
}

func allGrayOpaque(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a != 0xFFFF || r>>8 != g>>8 || g>>8 != bl>>8 {
				return false
			}
		}
	}
	return true
}
