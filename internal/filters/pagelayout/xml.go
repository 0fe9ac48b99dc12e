package pagelayout

import (
	"encoding/xml"

	"github.com/scantailor/scantailor-cli/internal/filters"
)

type Element struct {
	XMLName        xml.Name      `xml:"page-layout"`
	ShowMiddleRect int           `xml:"showMiddleRect,attr"`
	Pages          []PageElement `xml:"page"`
}

type PageElement struct {
	ID     int           `xml:"id,attr"`
	Params ParamsElement `xml:"params"`
}

type ParamsElement struct {
	AutoMargins   int                 `xml:"autoMargins,attr"`
	HardMarginsMM MarginsElement      `xml:"hardMarginsMM"`
	PageRect      filters.RectElement `xml:"pageRect"`
	ContentRect   filters.RectElement `xml:"contentRect"`
	ContentSizeMM filters.SizeElement `xml:"contentSizeMM"`
	Alignment     AlignmentElement    `xml:"alignment"`
}

type MarginsElement struct {
	Left   float64 `xml:"left,attr"`
	Top    float64 `xml:"top,attr"`
	Right  float64 `xml:"right,attr"`
	Bottom float64 `xml:"bottom,attr"`
}

type AlignmentElement struct {
	Vertical   string `xml:"vert,attr"`
	Horizontal string `xml:"hor,attr"`
	Null       int    `xml:"null,attr"`
}

func boolAttr(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Settings) ProjectXML(ids filters.ProjectIDs) Element {
	el := Element{ShowMiddleRect: boolAttr(s.Options().ShowMiddleRect)}
	for _, pageID := range ids.Pages() {
		num, ok := ids.PageNumericID(pageID)
		if !ok {
			continue
		}
		p, ok := s.Get(pageID)
		if !ok {
			continue
		}
		m := p.HardMarginsMM
		el.Pages = append(el.Pages, PageElement{
			ID: num,
			Params: ParamsElement{
				AutoMargins:   boolAttr(p.AutoMargins),
				HardMarginsMM: MarginsElement{Left: m.Left, Top: m.Top, Right: m.Right, Bottom: m.Bottom},
				PageRect:      filters.NewRectElement(p.PageRect),
				ContentRect:   filters.NewRectElement(p.ContentRect),
				ContentSizeMM: filters.NewSizeElement(p.ContentSizeMM),
				Alignment: AlignmentElement{
					Vertical:   p.Alignment.Vertical.String(),
					Horizontal: p.Alignment.Horizontal.String(),
					Null:       boolAttr(p.Alignment.Null),
				},
			},
		})
	}
	return el
}
