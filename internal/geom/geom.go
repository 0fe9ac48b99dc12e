// Package geom holds the floating point geometry shared by the pipeline stages.
package geom

import (
	"image"
	"math"
)

// Point is a location in some coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// ApproxEqual compares both coordinates within eps.
func (p Point) ApproxEqual(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// IsValid reports whether both dimensions are positive.
func (s Size) IsValid() bool { return s.W > 0 && s.H > 0 }

// Transposed swaps width and height.
func (s Size) Transposed() Size { return Size{W: s.H, H: s.W} }

// ExpandedTo returns the component-wise maximum of s and o.
func (s Size) ExpandedTo(o Size) Size {
	return Size{W: math.Max(s.W, o.W), H: math.Max(s.H, o.H)}
}

// Rect is an axis aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// R is shorthand for Rect{x, y, w, h}.
func R(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectFromImage converts an integer image rectangle.
func RectFromImage(r image.Rectangle) Rect {
	return Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), W: float64(r.Dx()), H: float64(r.Dy())}
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }
func (r Rect) Size() Size      { return Size{W: r.W, H: r.H} }
func (r Rect) Center() Point   { return Point{r.X + r.W/2, r.Y + r.H/2} }
func (r Rect) TopLeft() Point  { return Point{r.X, r.Y} }

// IsValid reports whether the rectangle has positive area.
func (r Rect) IsValid() bool { return r.W > 0 && r.H > 0 }

// IsNull reports whether the rectangle is the zero rectangle.
func (r Rect) IsNull() bool { return r == Rect{} }

// Intersected returns the overlap of r and o, or the zero Rect when they don't overlap.
func (r Rect) Intersected(o Rect) Rect {
	left := math.Max(r.Left(), o.Left())
	top := math.Max(r.Top(), o.Top())
	right := math.Min(r.Right(), o.Right())
	bottom := math.Min(r.Bottom(), o.Bottom())
	if right <= left || bottom <= top {
		return Rect{}
	}
	return Rect{X: left, Y: top, W: right - left, H: bottom - top}
}

// Intersects reports whether r and o share a region of positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.Intersected(o).IsValid()
}

// United returns the bounding rectangle of r and o. Invalid operands are ignored.
func (r Rect) United(o Rect) Rect {
	if !r.IsValid() {
		return o
	}
	if !o.IsValid() {
		return r
	}
	left := math.Min(r.Left(), o.Left())
	top := math.Min(r.Top(), o.Top())
	right := math.Max(r.Right(), o.Right())
	bottom := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: left, Y: top, W: right - left, H: bottom - top}
}

// Contains reports whether p lies inside r (edges included).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X <= r.Right() && p.Y >= r.Top() && p.Y <= r.Bottom()
}

// ContainsRect reports whether o lies completely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.Left() >= r.Left() && o.Right() <= r.Right() && o.Top() >= r.Top() && o.Bottom() <= r.Bottom()
}

// Adjusted moves the edges by the given deltas (positive values move right/down).
func (r Rect) Adjusted(dl, dt, dr, db float64) Rect {
	return Rect{X: r.X + dl, Y: r.Y + dt, W: r.W - dl + dr, H: r.H - dt + db}
}

// Translated moves r by (dx, dy).
func (r Rect) Translated(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// ApproxEqual compares all components within eps.
func (r Rect) ApproxEqual(o Rect, eps float64) bool {
	return math.Abs(r.X-o.X) <= eps && math.Abs(r.Y-o.Y) <= eps &&
		math.Abs(r.W-o.W) <= eps && math.Abs(r.H-o.H) <= eps
}

// ToPolygon returns the corners clockwise starting at the top-left one.
func (r Rect) ToPolygon() Polygon {
	return Polygon{
		{r.Left(), r.Top()},
		{r.Right(), r.Top()},
		{r.Right(), r.Bottom()},
		{r.Left(), r.Bottom()},
	}
}

// ToImageRect returns the smallest integer rectangle covering r.
func (r Rect) ToImageRect() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Left())), int(math.Floor(r.Top())),
		int(math.Ceil(r.Right())), int(math.Ceil(r.Bottom())),
	)
}

// Rounded returns r with all edges rounded to the nearest integer.
func (r Rect) Rounded() Rect {
	left, top := math.Round(r.Left()), math.Round(r.Top())
	return Rect{X: left, Y: top, W: math.Round(r.Right()) - left, H: math.Round(r.Bottom()) - top}
}

// Polygon is a closed sequence of points. The closing edge is implicit.
type Polygon []Point

// BoundingRect returns the axis aligned bounds of the polygon.
func (p Polygon) BoundingRect() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	minX, minY := p[0].X, p[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p[1:] {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Translated returns a moved copy.
func (p Polygon) Translated(dx, dy float64) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point{pt.X + dx, pt.Y + dy}
	}
	return out
}

// Clone returns a copy that does not share storage with p.
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// ApproxEqual compares the polygons vertex by vertex.
func (p Polygon) ApproxEqual(o Polygon, eps float64) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].ApproxEqual(o[i], eps) {
			return false
		}
	}
	return true
}

// Contains reports whether pt is inside the polygon using the even-odd rule.
func (p Polygon) Contains(pt Point) bool {
	inside := false
	n := len(p)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// ShiftToRoundedOrigin translates the polygon so the top-left corner of its
// bounding rectangle lands on integer coordinates.
func (p Polygon) ShiftToRoundedOrigin() Polygon {
	br := p.BoundingRect()
	return p.Translated(math.Round(br.X)-br.X, math.Round(br.Y)-br.Y)
}

// Line is an infinite line through two points.
type Line struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// XAt returns the x coordinate where the line crosses the horizontal y.
// Horizontal lines report P1.X.
func (l Line) XAt(y float64) float64 {
	dy := l.P2.Y - l.P1.Y
	if dy == 0 {
		return l.P1.X
	}
	return l.P1.X + (y-l.P1.Y)*(l.P2.X-l.P1.X)/dy
}

// IsNull reports whether the line is undefined.
func (l Line) IsNull() bool {
	return l.P1 == l.P2
}

// VerticalLine returns the vertical line at x.
func VerticalLine(x float64) Line {
	return Line{P1: Point{x, 0}, P2: Point{x, 1}}
}
