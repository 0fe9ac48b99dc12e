package pagesplit

import (
	"encoding/xml"

	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/geom"
)

type Element struct {
	XMLName           xml.Name       `xml:"page-split"`
	DefaultLayoutType string         `xml:"defaultLayoutType,attr"`
	Images            []ImageElement `xml:"image"`
}

type ImageElement struct {
	ID         int           `xml:"id,attr"`
	LayoutType string        `xml:"layoutType,attr,omitempty"`
	Params     ParamsElement `xml:"params"`
}

type ParamsElement struct {
	Mode         string            `xml:"mode,attr"`
	Pages        PagesElement      `xml:"pages"`
	Dependencies DependencyElement `xml:"dependencies"`
}

type PagesElement struct {
	Type    string              `xml:"type,attr"`
	Outline filters.RectElement `xml:"outline"`
	Cutter1 *LineElement        `xml:"cutter1"`
	Cutter2 *LineElement        `xml:"cutter2"`
}

type LineElement struct {
	X1 float64 `xml:"x1,attr"`
	Y1 float64 `xml:"y1,attr"`
	X2 float64 `xml:"x2,attr"`
	Y2 float64 `xml:"y2,attr"`
}

type DependencyElement struct {
	Rotation   filters.RotationElement `xml:"rotation"`
	Size       filters.SizeElement     `xml:"size"`
	LayoutType string                  `xml:"layoutType"`
}

// ProjectXML lists the layout of every image that has one.
func (s *Settings) ProjectXML(ids filters.ProjectIDs) Element {
	el := Element{DefaultLayoutType: s.DefaultLayoutType().String()}
	for _, imageID := range ids.Images() {
		num, ok := ids.ImageNumericID(imageID)
		if !ok {
			continue
		}
		record, _ := s.PageRecord(imageID)
		if record.Params == nil {
			continue
		}
		img := ImageElement{ID: num, Params: paramsElement(*record.Params)}
		if record.LayoutType != nil {
			img.LayoutType = record.LayoutType.String()
		}
		el.Images = append(el.Images, img)
	}
	return el
}

func paramsElement(p Params) ParamsElement {
	l := p.Layout
	pages := PagesElement{
		Type:    l.Kind.String(),
		Outline: filters.NewRectElement(l.Outline),
	}
	switch l.Kind {
	case KindSingleCut:
		pages.Cutter1 = lineElement(l.Cutter1)
		pages.Cutter2 = lineElement(l.Cutter2)
	case KindTwoPages:
		pages.Cutter1 = lineElement(l.Cutter1)
	}
	return ParamsElement{
		Mode:  p.SplitLineMode.String(),
		Pages: pages,
		Dependencies: DependencyElement{
			Rotation:   filters.RotationElement{Degrees: p.Deps.Rotation.Degrees()},
			Size:       filters.NewSizeElement(p.Deps.ImageSize),
			LayoutType: p.Deps.LayoutType.String(),
		},
	}
}

func lineElement(l geom.Line) *LineElement {
	return &LineElement{X1: l.P1.X, Y1: l.P1.Y, X2: l.P2.X, Y2: l.P2.Y}
}
