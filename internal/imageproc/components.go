package imageproc

import "image"

// Component is an 8-connected group of black pixels.
type Component struct {
	Bounds image.Rectangle
	Pixels int
	label  int
}

// Labeling assigns a component number to every black pixel.
type Labeling struct {
	w, h       int
	labels     []int32
	Components []Component
}

// LabelComponents finds the 8-connected components of the black pixels.
func LabelComponents(b *BinaryImage) *Labeling {
	l := &Labeling{w: b.w, h: b.h, labels: make([]int32, len(b.pix))}
	stack := make([]int, 0, 256)
	for start, v := range b.pix {
		if !v || l.labels[start] != 0 {
			continue
		}
		label := int32(len(l.Components) + 1)
		comp := Component{Bounds: image.Rect(start%b.w, start/b.w, start%b.w+1, start/b.w+1), label: int(label)}
		l.labels[start] = label
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%b.w, i/b.w
			comp.Pixels++
			comp.Bounds = comp.Bounds.Union(image.Rect(x, y, x+1, y+1))
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= b.w || ny >= b.h {
						continue
					}
					j := ny*b.w + nx
					if b.pix[j] && l.labels[j] == 0 {
						l.labels[j] = label
						stack = append(stack, j)
					}
				}
			}
		}
		l.Components = append(l.Components, comp)
	}
	return l
}

// Mask returns an image with the pixels of the selected components set.
func (l *Labeling) Mask(keep func(Component) bool) *BinaryImage {
	selected := make([]bool, len(l.Components)+1)
	for _, c := range l.Components {
		selected[c.label] = keep(c)
	}
	out := NewBinaryImage(l.w, l.h)
	for i, lbl := range l.labels {
		if lbl != 0 && selected[lbl] {
			out.pix[i] = true
		}
	}
	return out
}
