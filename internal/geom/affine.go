package geom

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine is a 2D affine transform stored as the top two rows of a 3x3 matrix:
//
//	x' = a[0]*x + a[1]*y + a[2]
//	y' = a[3]*x + a[4]*y + a[5]
//
// It has the same layout as f64.Aff3 so it can be handed to x/image/draw directly.
type Affine f64.Aff3

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{1, 0, 0, 0, 1, 0}
}

// Translation returns a transform moving points by (dx, dy).
func Translation(dx, dy float64) Affine {
	return Affine{1, 0, dx, 0, 1, dy}
}

// Scaling returns a transform scaling around the origin.
func Scaling(sx, sy float64) Affine {
	return Affine{sx, 0, 0, 0, sy, 0}
}

// Rotation returns a rotation by deg degrees around the origin. With y pointing
// down positive angles rotate clockwise on screen.
func Rotation(deg float64) Affine {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	// Snap values that are exact for right angles to avoid drift in orthogonal rotations.
	if math.Abs(sin) < 1e-15 {
		sin = 0
	}
	if math.Abs(cos) < 1e-15 {
		cos = 0
	}
	return Affine{cos, -sin, 0, sin, cos, 0}
}

// Then returns the transform that applies a first and b second.
func (a Affine) Then(b Affine) Affine {
	return Affine{
		b[0]*a[0] + b[1]*a[3],
		b[0]*a[1] + b[1]*a[4],
		b[0]*a[2] + b[1]*a[5] + b[2],
		b[3]*a[0] + b[4]*a[3],
		b[3]*a[1] + b[4]*a[4],
		b[3]*a[2] + b[4]*a[5] + b[5],
	}
}

// Determinant of the linear part.
func (a Affine) Determinant() float64 {
	return a[0]*a[4] - a[1]*a[3]
}

// Inverse returns the inverse transform. Singular transforms yield the identity and false.
func (a Affine) Inverse() (Affine, bool) {
	det := a.Determinant()
	if math.Abs(det) < 1e-12 {
		return Identity(), false
	}
	i0 := a[4] / det
	i1 := -a[1] / det
	i3 := -a[3] / det
	i4 := a[0] / det
	return Affine{
		i0, i1, -(i0*a[2] + i1*a[5]),
		i3, i4, -(i3*a[2] + i4*a[5]),
	}, true
}

// Map applies the transform to a point.
func (a Affine) Map(p Point) Point {
	return Point{
		X: a[0]*p.X + a[1]*p.Y + a[2],
		Y: a[3]*p.X + a[4]*p.Y + a[5],
	}
}

// MapPolygon applies the transform to every vertex.
func (a Affine) MapPolygon(p Polygon) Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = a.Map(pt)
	}
	return out
}

// MapRect returns the bounding rectangle of the transformed rectangle.
func (a Affine) MapRect(r Rect) Rect {
	return a.MapPolygon(r.ToPolygon()).BoundingRect()
}

// Aff3 exposes the matrix in x/image form.
func (a Affine) Aff3() f64.Aff3 {
	return f64.Aff3(a)
}

// ApproxEqual compares matrix entries within eps.
func (a Affine) ApproxEqual(b Affine, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}
