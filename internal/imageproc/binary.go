// Package imageproc contains the raster algorithms the pipeline stages rely on:
// thresholding, binary morphology, seed fill, skew search, transformed
// rendering and despeckling.
package imageproc

import (
	"image"
	"image/color"
)

// BinaryImage is a one bit per pixel image. true means black.
type BinaryImage struct {
	w, h int
	pix  []bool
}

// NewBinaryImage returns an all-white image.
func NewBinaryImage(w, h int) *BinaryImage {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &BinaryImage{w: w, h: h, pix: make([]bool, w*h)}
}

func (b *BinaryImage) Width() int              { return b.w }
func (b *BinaryImage) Height() int             { return b.h }
func (b *BinaryImage) Bounds() image.Rectangle { return image.Rect(0, 0, b.w, b.h) }
func (b *BinaryImage) IsNull() bool            { return b == nil || b.w == 0 || b.h == 0 }

// Black reports whether the pixel is black. Out of range pixels are white.
func (b *BinaryImage) Black(x, y int) bool {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return false
	}
	return b.pix[y*b.w+x]
}

// Set colors one pixel.
func (b *BinaryImage) Set(x, y int, black bool) {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return
	}
	b.pix[y*b.w+x] = black
}

// Fill colors every pixel.
func (b *BinaryImage) Fill(black bool) {
	for i := range b.pix {
		b.pix[i] = black
	}
}

// FillRect colors the pixels inside r.
func (b *BinaryImage) FillRect(r image.Rectangle, black bool) {
	r = r.Intersect(b.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := b.pix[y*b.w : (y+1)*b.w]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = black
		}
	}
}

// Clone returns a deep copy.
func (b *BinaryImage) Clone() *BinaryImage {
	out := &BinaryImage{w: b.w, h: b.h, pix: make([]bool, len(b.pix))}
	copy(out.pix, b.pix)
	return out
}

// CountBlack returns the number of black pixels.
func (b *BinaryImage) CountBlack() int {
	n := 0
	for _, v := range b.pix {
		if v {
			n++
		}
	}
	return n
}

// Subtract whitens every pixel that is black in o. Both images must have the same size.
func (b *BinaryImage) Subtract(o *BinaryImage) {
	for i := range b.pix {
		if o.pix[i] {
			b.pix[i] = false
		}
	}
}

// Or blackens every pixel that is black in o.
func (b *BinaryImage) Or(o *BinaryImage) {
	for i := range b.pix {
		if o.pix[i] {
			b.pix[i] = true
		}
	}
}

// Sub returns the part of the image inside r as a new image.
func (b *BinaryImage) Sub(r image.Rectangle) *BinaryImage {
	r = r.Intersect(b.Bounds())
	out := NewBinaryImage(r.Dx(), r.Dy())
	for y := 0; y < out.h; y++ {
		copy(out.pix[y*out.w:(y+1)*out.w], b.pix[(y+r.Min.Y)*b.w+r.Min.X:(y+r.Min.Y)*b.w+r.Max.X])
	}
	return out
}

// RotateOrthogonal rotates clockwise by deg, a multiple of 90.
func (b *BinaryImage) RotateOrthogonal(deg int) *BinaryImage {
	deg = ((deg % 360) + 360) % 360
	switch deg {
	case 90:
		out := NewBinaryImage(b.h, b.w)
		for y := 0; y < b.h; y++ {
			for x := 0; x < b.w; x++ {
				out.pix[x*out.w+(b.h-1-y)] = b.pix[y*b.w+x]
			}
		}
		return out
	case 180:
		out := NewBinaryImage(b.w, b.h)
		for i, v := range b.pix {
			out.pix[len(b.pix)-1-i] = v
		}
		return out
	case 270:
		out := NewBinaryImage(b.h, b.w)
		for y := 0; y < b.h; y++ {
			for x := 0; x < b.w; x++ {
				out.pix[(b.w-1-x)*out.w+y] = b.pix[y*b.w+x]
			}
		}
		return out
	default:
		return b.Clone()
	}
}

// ToGray renders black as 0 and white as 255.
func (b *BinaryImage) ToGray() *image.Gray {
	g := image.NewGray(b.Bounds())
	for i, v := range b.pix {
		if v {
			g.Pix[i] = 0
		} else {
			g.Pix[i] = 255
		}
	}
	return g
}

// BinaryFromImage treats pixels darker than mid gray as black.
func BinaryFromImage(img image.Image) *BinaryImage {
	r := img.Bounds()
	out := NewBinaryImage(r.Dx(), r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			out.pix[(y-r.Min.Y)*out.w+(x-r.Min.X)] = g.Y < 128
		}
	}
	return out
}
