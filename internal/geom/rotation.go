package geom

import "fmt"

// OrthogonalRotation is a rotation by a multiple of 90 degrees.
type OrthogonalRotation int

// NewOrthogonalRotation normalizes deg to one of 0, 90, 180 or 270.
func NewOrthogonalRotation(deg int) (OrthogonalRotation, error) {
	if deg%90 != 0 {
		return 0, fmt.Errorf("rotation %d is not a multiple of 90", deg)
	}
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return OrthogonalRotation(deg), nil
}

// Degrees returns the rotation angle.
func (r OrthogonalRotation) Degrees() int { return int(r) }

// NextClockwise returns the rotation 90 degrees further clockwise.
func (r OrthogonalRotation) NextClockwise() OrthogonalRotation {
	return OrthogonalRotation((int(r) + 90) % 360)
}

// SwapsAxes reports whether width and height trade places.
func (r OrthogonalRotation) SwapsAxes() bool {
	return r == 90 || r == 270
}

// RotateSize returns the size of a w x h area after rotation.
func (r OrthogonalRotation) RotateSize(s Size) Size {
	if r.SwapsAxes() {
		return s.Transposed()
	}
	return s
}

// Transform maps a rectangle of the given size at the origin onto its rotated
// counterpart, again anchored at the origin.
func (r OrthogonalRotation) Transform(s Size) Affine {
	switch r {
	case 90:
		return Rotation(90).Then(Translation(s.H, 0))
	case 180:
		return Rotation(180).Then(Translation(s.W, s.H))
	case 270:
		return Rotation(270).Then(Translation(0, s.W))
	default:
		return Identity()
	}
}
