package filters

import "github.com/scantailor/scantailor-cli/internal/geom"

// Shared elements of the project document.

type RectElement struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
	W float64 `xml:"width,attr"`
	H float64 `xml:"height,attr"`
}

func NewRectElement(r geom.Rect) RectElement {
	return RectElement{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

type SizeElement struct {
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

func NewSizeElement(s geom.Size) SizeElement {
	return SizeElement{Width: s.W, Height: s.H}
}

type PointElement struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}

type PolygonElement struct {
	Points []PointElement `xml:"point"`
}

func NewPolygonElement(p geom.Polygon) PolygonElement {
	el := PolygonElement{Points: make([]PointElement, 0, len(p))}
	for _, pt := range p {
		el.Points = append(el.Points, PointElement{X: pt.X, Y: pt.Y})
	}
	return el
}

type RotationElement struct {
	Degrees int `xml:"degrees,attr"`
}
