package imageproc

import (
	"image"
	"image/color"
	"image/draw"
)

// ToGray returns img as an 8-bit grayscale image anchored at the origin.
// Gray images that already start at the origin are returned as is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Rect, img, b.Min, draw.Src)
	return g
}

// InvertGray returns a negative copy.
func InvertGray(g *image.Gray) *image.Gray {
	out := image.NewGray(g.Rect)
	for i, v := range g.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}

// Histogram counts gray levels. When mask is non-nil only pixels black in
// the mask are counted.
func Histogram(g *image.Gray, mask *BinaryImage) [256]int {
	var hist [256]int
	b := g.Rect
	for y := 0; y < b.Dy(); y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		for x, v := range row {
			if mask != nil && !mask.Black(x, y) {
				continue
			}
			hist[v]++
		}
	}
	return hist
}

// IsGrayPalette reports whether every palette entry has equal channels.
func IsGrayPalette(p color.Palette) bool {
	for _, c := range p {
		r, g, b, _ := c.RGBA()
		if r != g || g != b {
			return false
		}
	}
	return true
}

// FillGray sets every pixel of g inside r to v.
func FillGray(g *image.Gray, r image.Rectangle, v uint8) {
	draw.Draw(g, r, &image.Uniform{C: color.Gray{Y: v}}, image.Point{}, draw.Src)
}
