package domain

import "fmt"

const (
	// MinAcceptableDpi and MaxAcceptableDpi bound what is considered a sane scan resolution.
	MinAcceptableDpi = 150
	MaxAcceptableDpi = 9999
)

// Dpi is a horizontal/vertical resolution pair.
type Dpi struct {
	Horizontal int `json:"horizontal"`
	Vertical   int `json:"vertical"`
}

// NewDpi returns an isotropic resolution.
func NewDpi(v int) Dpi {
	return Dpi{Horizontal: v, Vertical: v}
}

// IsNull reports whether either component is unset.
func (d Dpi) IsNull() bool {
	return d.Horizontal <= 0 || d.Vertical <= 0
}

func (d Dpi) String() string {
	return fmt.Sprintf("%dx%d", d.Horizontal, d.Vertical)
}

// Transposed swaps the components, as needed after a 90 degree rotation.
func (d Dpi) Transposed() Dpi {
	return Dpi{Horizontal: d.Vertical, Vertical: d.Horizontal}
}

// ImageMetadata describes one image page of an input file.
type ImageMetadata struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Dpi    Dpi `json:"dpi"`
}

// IsDpiOK reports whether both resolution components are within the accepted range.
func (m ImageMetadata) IsDpiOK() bool {
	ok := func(v int) bool { return v >= MinAcceptableDpi && v <= MaxAcceptableDpi }
	return ok(m.Dpi.Horizontal) && ok(m.Dpi.Vertical)
}
