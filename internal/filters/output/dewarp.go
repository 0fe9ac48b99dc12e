package output

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
)

const distortionSlices = 12

// EstimateDistortionModel traces the upper and lower ink boundary of the
// content box in vertical slices. A flat page yields straight curves, which
// dewarp to the identity.
func EstimateDistortionModel(g *image.Gray, content image.Rectangle) DistortionModel {
	content = content.Intersect(g.Rect)
	if content.Dx() < distortionSlices*2 || content.Dy() < 4 {
		return DistortionModel{}
	}
	sub := g.SubImage(content).(*image.Gray)
	t := imageproc.OtsuThreshold(imageproc.Histogram(imageproc.ToGray(sub), nil))
	ink := func(x0, x1, y int) bool {
		row := g.Pix[y*g.Stride:]
		n := 0
		for x := x0; x < x1; x++ {
			if row[x] < t {
				n++
			}
		}
		return n*50 >= x1-x0
	}

	var model DistortionModel
	width := float64(content.Dx()) / distortionSlices
	for i := 0; i < distortionSlices; i++ {
		x0 := content.Min.X + int(float64(i)*width)
		x1 := content.Min.X + int(float64(i+1)*width)
		cx := float64(x0+x1) / 2
		top, bottom := -1, -1
		for y := content.Min.Y; y < content.Max.Y; y++ {
			if ink(x0, x1, y) {
				top = y
				break
			}
		}
		for y := content.Max.Y - 1; y >= content.Min.Y; y-- {
			if ink(x0, x1, y) {
				bottom = y + 1
				break
			}
		}
		if top < 0 || bottom <= top {
			continue
		}
		model.Top = append(model.Top, geom.Pt(cx, float64(top)))
		model.Bottom = append(model.Bottom, geom.Pt(cx, float64(bottom)))
	}
	return model
}

// curve evaluates a polyline sorted by x, extending its end segments flat.
type curve geom.Polygon

func (c curve) at(x float64) float64 {
	if x <= c[0].X {
		return c[0].Y
	}
	last := c[len(c)-1]
	if x >= last.X {
		return last.Y
	}
	i := sort.Search(len(c), func(i int) bool { return c[i].X >= x })
	a, b := c[i-1], c[i]
	if b.X == a.X {
		return a.Y
	}
	return a.Y + (x-a.X)*(b.Y-a.Y)/(b.X-a.X)
}

func (c curve) chord(x float64) float64 {
	a, b := c[0], c[len(c)-1]
	if b.X == a.X {
		return a.Y
	}
	return a.Y + (x-a.X)*(b.Y-a.Y)/(b.X-a.X)
}

func sortedCurve(p geom.Polygon) curve {
	c := curve(p.Clone())
	sort.Slice(c, func(i, j int) bool { return c[i].X < c[j].X })
	return c
}

// dewarper maps output pixels to the source pixels they are sampled from.
// Columns are straightened between the chords of both curves. Horizontal
// foreshortening is undone in proportion to the depth perception.
type dewarper struct {
	top, bottom curve
	x0, x1      int
	srcX        []float64
}

func newDewarper(m DistortionModel, depth float64) *dewarper {
	d := &dewarper{top: sortedCurve(m.Top), bottom: sortedCurve(m.Bottom)}
	d.x0 = int(math.Ceil(max(d.top[0].X, d.bottom[0].X)))
	d.x1 = int(math.Floor(min(d.top[len(d.top)-1].X, d.bottom[len(d.bottom)-1].X)))
	if d.x1 <= d.x0 {
		return d
	}

	n := d.x1 - d.x0 + 1
	arc := make([]float64, n)
	mid := func(x float64) float64 { return (d.top.at(x) + d.bottom.at(x)) / 2 }
	for i := 1; i < n; i++ {
		x := float64(d.x0 + i)
		dy := mid(x) - mid(x-1)
		arc[i] = arc[i-1] + math.Sqrt(1+dy*dy)
	}
	total := arc[n-1]
	weight := (depth - MinDepthPerception) / (MaxDepthPerception - MinDepthPerception)
	weight = max(0, min(1, weight))

	d.srcX = make([]float64, n)
	j := 0
	for i := 0; i < n; i++ {
		target := total * float64(i) / float64(max(1, n-1))
		for j < n-2 && arc[j+1] < target {
			j++
		}
		src := float64(d.x0 + j)
		if j+1 < n && arc[j+1] > arc[j] {
			src += (target - arc[j]) / (arc[j+1] - arc[j])
		}
		x := float64(d.x0 + i)
		d.srcX[i] = x + weight*(src-x)
	}
	return d
}

func (d *dewarper) source(x, y int) (float64, float64) {
	if x < d.x0 || x > d.x1 || d.srcX == nil {
		return float64(x), float64(y)
	}
	fx := float64(x)
	ct, cb := d.top.chord(fx), d.bottom.chord(fx)
	if cb-ct <= 1 {
		return fx, float64(y)
	}
	sx := d.srcX[x-d.x0]
	st, sb := d.top.at(sx), d.bottom.at(sx)
	t := (float64(y) - ct) / (cb - ct)
	return sx, st + t*(sb-st)
}

func dewarpGray(g *image.Gray, m DistortionModel, depth float64) *image.Gray {
	d := newDewarper(m, depth)
	out := image.NewGray(g.Rect)
	w, h := g.Rect.Dx(), g.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := d.source(x, y)
			out.Pix[y*out.Stride+x] = sampleGray(g, sx, sy)
		}
	}
	return out
}

func dewarpRGBA(img *image.RGBA, m DistortionModel, depth float64) *image.RGBA {
	d := newDewarper(m, depth)
	out := image.NewRGBA(img.Rect)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := d.source(x, y)
			px, py := int(math.Round(sx)), int(math.Round(sy))
			if px < 0 || py < 0 || px >= w || py >= h {
				out.SetRGBA(x, y, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
				continue
			}
			out.SetRGBA(x, y, img.RGBAAt(px, py))
		}
	}
	return out
}

// sampleGray interpolates bilinearly. Samples outside the image are white.
func sampleGray(g *image.Gray, x, y float64) uint8 {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	if x < -0.5 || y < -0.5 || x > float64(w)-0.5 || y > float64(h)-0.5 {
		return 0xFF
	}
	x = max(0, min(x, float64(w-1)))
	y = max(0, min(y, float64(h-1)))
	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)
	at := func(px, py int) float64 { return float64(g.Pix[py*g.Stride+px]) }
	top := at(x0, y0)*(1-fx) + at(x1, y0)*fx
	bottom := at(x0, y1)*(1-fx) + at(x1, y1)*fx
	return uint8(math.Round(top*(1-fy) + bottom*fy))
}
