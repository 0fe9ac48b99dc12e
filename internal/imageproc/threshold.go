package imageproc

import (
	"image"
	"math"
)

// OtsuThreshold returns the threshold maximising between-class variance of
// the histogram. Pixels below the returned value are considered black. When
// a range of thresholds ties for the maximum, its middle is used.
func OtsuThreshold(hist [256]int) uint8 {
	total := 0
	sum := 0.0
	for i, n := range hist {
		total += n
		sum += float64(i * n)
	}
	if total == 0 {
		return 128
	}

	var (
		sumB, maxVar float64
		weightB      int
		first, last  = 127, 127
	)
	for i := 0; i < 256; i++ {
		weightB += hist[i]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(i * hist[i])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > maxVar {
			maxVar = between
			first, last = i, i
		} else if between == maxVar && maxVar > 0 {
			last = i
		}
	}
	return uint8(min((first+last)/2+1, 255))
}

// AdjustThreshold shifts a threshold and clamps it to [1, 255].
func AdjustThreshold(t uint8, adjustment int) uint8 {
	v := int(t) + adjustment
	return uint8(max(1, min(255, v)))
}

// Binarize converts the part of g inside r with a global threshold.
func Binarize(g *image.Gray, r image.Rectangle, threshold uint8) *BinaryImage {
	r = r.Intersect(g.Rect)
	out := NewBinaryImage(r.Dx(), r.Dy())
	for y := 0; y < out.h; y++ {
		row := g.Pix[(y+r.Min.Y-g.Rect.Min.Y)*g.Stride+(r.Min.X-g.Rect.Min.X):]
		for x := 0; x < out.w; x++ {
			out.pix[y*out.w+x] = row[x] < threshold
		}
	}
	return out
}

// BinarizeOtsu thresholds the whole image at its Otsu level shifted by adjustment.
func BinarizeOtsu(g *image.Gray, adjustment int) *BinaryImage {
	t := AdjustThreshold(OtsuThreshold(Histogram(g, nil)), adjustment)
	return Binarize(g, g.Rect, t)
}

// integral holds summed area tables of values and squared values.
type integral struct {
	w, h  int
	sum   []float64
	sqsum []float64
}

func newIntegral(g *image.Gray) *integral {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	in := &integral{w: w, h: h, sum: make([]float64, (w+1)*(h+1)), sqsum: make([]float64, (w+1)*(h+1))}
	for y := 0; y < h; y++ {
		var rowSum, rowSq float64
		for x := 0; x < w; x++ {
			v := float64(g.Pix[y*g.Stride+x])
			rowSum += v
			rowSq += v * v
			i := (y+1)*(w+1) + x + 1
			in.sum[i] = in.sum[i-(w+1)] + rowSum
			in.sqsum[i] = in.sqsum[i-(w+1)] + rowSq
		}
	}
	return in
}

// stats returns mean and standard deviation of the window centred at (x, y).
func (in *integral) stats(x, y, window int) (float64, float64) {
	half := window / 2
	x0, y0 := max(0, x-half), max(0, y-half)
	x1, y1 := min(in.w, x+half+1), min(in.h, y+half+1)
	n := float64((x1 - x0) * (y1 - y0))
	at := func(t []float64, xx, yy int) float64 { return t[yy*(in.w+1)+xx] }
	s := at(in.sum, x1, y1) - at(in.sum, x0, y1) - at(in.sum, x1, y0) + at(in.sum, x0, y0)
	sq := at(in.sqsum, x1, y1) - at(in.sqsum, x0, y1) - at(in.sqsum, x1, y0) + at(in.sqsum, x0, y0)
	mean := s / n
	variance := sq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// BinarizeSauvola applies Sauvola's local threshold
// T = m * (1 + k * (s/128 - 1)).
func BinarizeSauvola(g *image.Gray, window int, k float64, adjustment int) *BinaryImage {
	g = ToGray(g)
	in := newIntegral(g)
	out := NewBinaryImage(in.w, in.h)
	for y := 0; y < in.h; y++ {
		for x := 0; x < in.w; x++ {
			m, s := in.stats(x, y, window)
			t := m*(1+k*(s/128-1)) + float64(adjustment)
			out.pix[y*in.w+x] = float64(g.Pix[y*g.Stride+x]) < t
		}
	}
	return out
}

// BinarizeWolf applies the Wolf-Jolion local threshold. Pixels below lower are
// always black, pixels above upper always white.
func BinarizeWolf(g *image.Gray, window int, lower, upper uint8, k float64, adjustment int) *BinaryImage {
	g = ToGray(g)
	in := newIntegral(g)

	minGray := 255.0
	for y := 0; y < in.h; y++ {
		for _, v := range g.Pix[y*g.Stride : y*g.Stride+in.w] {
			minGray = math.Min(minGray, float64(v))
		}
	}
	maxDev := 1e-6
	for y := 0; y < in.h; y++ {
		for x := 0; x < in.w; x++ {
			_, s := in.stats(x, y, window)
			maxDev = math.Max(maxDev, s)
		}
	}

	out := NewBinaryImage(in.w, in.h)
	for y := 0; y < in.h; y++ {
		for x := 0; x < in.w; x++ {
			v := g.Pix[y*g.Stride+x]
			switch {
			case v < lower:
				out.pix[y*in.w+x] = true
				continue
			case v > upper:
				continue
			}
			m, s := in.stats(x, y, window)
			t := (1-k)*m + k*minGray + k*(s/maxDev)*(m-minGray) + float64(adjustment)
			out.pix[y*in.w+x] = float64(v) < t
		}
	}
	return out
}

// BinarizationParams is the result of the per-image binarization estimate.
type BinarizationParams struct {
	Threshold    uint8 `json:"threshold"`
	BlackOnWhite bool  `json:"black_on_white"`
}

// Binarizer estimates a global threshold and the content polarity.
type Binarizer interface {
	Estimate(g *image.Gray, mask *BinaryImage) BinarizationParams
}

// OtsuBinarizer estimates the threshold with Otsu's method and decides the
// polarity by whichever side of the threshold holds fewer pixels.
type OtsuBinarizer struct{}

// Estimate implements Binarizer.
func (OtsuBinarizer) Estimate(g *image.Gray, mask *BinaryImage) BinarizationParams {
	hist := Histogram(g, mask)
	t := OtsuThreshold(hist)
	dark, light := 0, 0
	for i, n := range hist {
		if i < int(t) {
			dark += n
		} else {
			light += n
		}
	}
	return BinarizationParams{Threshold: t, BlackOnWhite: dark <= light}
}
