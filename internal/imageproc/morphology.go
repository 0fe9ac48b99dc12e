package imageproc

import "image"

// Surroundings decides how pixels outside the image are treated.
type Surroundings bool

const (
	WhiteSurroundings Surroundings = false
	BlackSurroundings Surroundings = true
)

// ErodeBrick keeps a pixel black only if the whole w x h brick around it is black.
func ErodeBrick(src *BinaryImage, w, h int, surroundings Surroundings) *BinaryImage {
	ax, ay := w/2, h/2
	tmp := slideRows(src, -ax, w-1-ax, true, bool(surroundings))
	return slideCols(tmp, -ay, h-1-ay, true, bool(surroundings))
}

// DilateBrick blackens a pixel if any pixel of the reflected brick around it is black.
func DilateBrick(src *BinaryImage, w, h int, surroundings Surroundings) *BinaryImage {
	ax, ay := w/2, h/2
	tmp := slideRows(src, -(w - 1 - ax), ax, false, bool(surroundings))
	return slideCols(tmp, -(h - 1 - ay), ay, false, bool(surroundings))
}

// OpenBrick is an erosion followed by a dilation with the same brick. Objects
// that can't contain the brick disappear, the rest keep their shape. The
// result never has a black pixel where src is white.
func OpenBrick(src *BinaryImage, w, h int, surroundings Surroundings) *BinaryImage {
	if w <= 1 && h <= 1 {
		return src.Clone()
	}
	// Erode over a frame of surroundings so the dilation sees what lies
	// beyond the edges without inventing it.
	padded := pad(src, w, h, bool(surroundings))
	opened := DilateBrick(ErodeBrick(padded, w, h, surroundings), w, h, WhiteSurroundings)
	return opened.Sub(image.Rect(w, h, w+src.w, h+src.h))
}

// pad returns src inside a frame dx wide on the left and right and dy high on
// the top and bottom.
func pad(src *BinaryImage, dx, dy int, black bool) *BinaryImage {
	out := NewBinaryImage(src.w+2*dx, src.h+2*dy)
	if black {
		out.Fill(true)
	}
	for y := 0; y < src.h; y++ {
		copy(out.pix[(y+dy)*out.w+dx:(y+dy)*out.w+dx+src.w], src.pix[y*src.w:(y+1)*src.w])
	}
	return out
}

// slideRows evaluates a 1-D window [x+lo, x+hi] along each row. With all set
// the output is black when every pixel in the window is black (erosion),
// otherwise when at least one is (dilation).
func slideRows(src *BinaryImage, lo, hi int, all, outsideBlack bool) *BinaryImage {
	out := NewBinaryImage(src.w, src.h)
	prefix := make([]int, src.w+1)
	n := hi - lo + 1
	for y := 0; y < src.h; y++ {
		row := src.pix[y*src.w : (y+1)*src.w]
		for x, v := range row {
			prefix[x+1] = prefix[x]
			if v {
				prefix[x+1]++
			}
		}
		for x := 0; x < src.w; x++ {
			out.pix[y*src.w+x] = windowResult(prefix, src.w, x+lo, x+hi, n, all, outsideBlack)
		}
	}
	return out
}

func slideCols(src *BinaryImage, lo, hi int, all, outsideBlack bool) *BinaryImage {
	out := NewBinaryImage(src.w, src.h)
	prefix := make([]int, src.h+1)
	n := hi - lo + 1
	for x := 0; x < src.w; x++ {
		for y := 0; y < src.h; y++ {
			prefix[y+1] = prefix[y]
			if src.pix[y*src.w+x] {
				prefix[y+1]++
			}
		}
		for y := 0; y < src.h; y++ {
			out.pix[y*src.w+x] = windowResult(prefix, src.h, y+lo, y+hi, n, all, outsideBlack)
		}
	}
	return out
}

func windowResult(prefix []int, size, from, to, n int, all, outsideBlack bool) bool {
	outside := 0
	if from < 0 {
		outside += -from
		from = 0
	}
	if to > size-1 {
		outside += to - (size - 1)
		to = size - 1
	}
	black := 0
	if to >= from {
		black = prefix[to+1] - prefix[from]
	}
	if outsideBlack {
		black += outside
	}
	if all {
		return black == n
	}
	return black > 0
}

// ReduceThreshold halves both dimensions. A destination pixel is black when at
// least threshold of its (up to four) source pixels are black.
func ReduceThreshold(src *BinaryImage, threshold int) *BinaryImage {
	out := NewBinaryImage((src.w+1)/2, (src.h+1)/2)
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			n := 0
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					if src.Black(2*x+dx, 2*y+dy) {
						n++
					}
				}
			}
			out.pix[y*out.w+x] = n >= threshold
		}
	}
	return out
}

// UpscaleIntegerTimes replicates each source pixel into a factor x factor block
// of a dstW x dstH image. Destination pixels not covered by the source take
// the padding color.
func UpscaleIntegerTimes(src *BinaryImage, factor, dstW, dstH int, padBlack bool) *BinaryImage {
	out := NewBinaryImage(dstW, dstH)
	for y := 0; y < dstH; y++ {
		sy := y / factor
		for x := 0; x < dstW; x++ {
			sx := x / factor
			if sx >= src.w || sy >= src.h {
				out.pix[y*dstW+x] = padBlack
				continue
			}
			out.pix[y*dstW+x] = src.pix[sy*src.w+sx]
		}
	}
	return out
}

// Connectivity of the seed fill.
type Connectivity int

const (
	Conn4 Connectivity = 4
	Conn8 Connectivity = 8
)

// SeedFill returns the black pixels of mask that are connected to a black
// pixel of seed through black pixels of mask.
func SeedFill(seed, mask *BinaryImage, conn Connectivity) *BinaryImage {
	w, h := mask.w, mask.h
	out := NewBinaryImage(w, h)
	queue := make([]int, 0, 1024)
	for i, v := range seed.pix {
		if v && i < len(mask.pix) && mask.pix[i] {
			out.pix[i] = true
			queue = append(queue, i)
		}
	}

	offsets := [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	if conn == Conn8 {
		offsets = append(offsets, [2]int{-1, -1}, [2]int{1, -1}, [2]int{-1, 1}, [2]int{1, 1})
	}
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		for _, o := range offsets {
			nx, ny := x+o[0], y+o[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			if mask.pix[j] && !out.pix[j] {
				out.pix[j] = true
				queue = append(queue, j)
			}
		}
	}
	return out
}
