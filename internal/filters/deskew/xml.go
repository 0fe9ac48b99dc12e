package deskew

import (
	"encoding/xml"

	"github.com/scantailor/scantailor-cli/internal/filters"
)

type Element struct {
	XMLName xml.Name      `xml:"deskew"`
	Pages   []PageElement `xml:"page"`
}

type PageElement struct {
	ID     int           `xml:"id,attr"`
	Params ParamsElement `xml:"params"`
}

type ParamsElement struct {
	Angle        float64           `xml:"angle,attr"`
	Mode         string            `xml:"mode,attr"`
	Dependencies DependencyElement `xml:"dependencies"`
}

type DependencyElement struct {
	Rotation filters.RotationElement `xml:"rotation"`
	Area     filters.PolygonElement  `xml:"page-outline"`
}

// ProjectXML lists the deskew params of every page that has them.
func (s *Settings) ProjectXML(ids filters.ProjectIDs) Element {
	el := Element{}
	for _, pageID := range ids.Pages() {
		num, ok := ids.PageNumericID(pageID)
		if !ok {
			continue
		}
		p, ok := s.Get(pageID)
		if !ok {
			continue
		}
		el.Pages = append(el.Pages, PageElement{
			ID: num,
			Params: ParamsElement{
				Angle: p.Angle,
				Mode:  p.Mode.String(),
				Dependencies: DependencyElement{
					Rotation: filters.RotationElement{Degrees: p.Deps.Rotation.Degrees()},
					Area:     filters.NewPolygonElement(p.Deps.PreCropArea),
				},
			},
		})
	}
	return el
}
