package imageproc

import (
	"math"
	"sort"

	"github.com/scantailor/scantailor-cli/internal/geom"
)

// PolygonMask returns a w x h image with the pixels whose centers fall inside
// poly (even-odd rule) set to black.
func PolygonMask(w, h int, poly geom.Polygon) *BinaryImage {
	out := NewBinaryImage(w, h)
	n := len(poly)
	if n < 3 {
		return out
	}
	xs := make([]float64, 0, n)
	for y := 0; y < h; y++ {
		cy := float64(y) + 0.5
		xs = xs[:0]
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			a, b := poly[i], poly[j]
			if (a.Y > cy) != (b.Y > cy) {
				xs = append(xs, a.X+(cy-a.Y)*(b.X-a.X)/(b.Y-a.Y))
			}
		}
		sort.Float64s(xs)
		for k := 0; k+1 < len(xs); k += 2 {
			from := int(math.Ceil(xs[k] - 0.5))
			to := int(math.Floor(xs[k+1] - 0.5))
			from = max(from, 0)
			to = min(to, w-1)
			for x := from; x <= to; x++ {
				out.pix[y*w+x] = true
			}
		}
	}
	return out
}
