package selectcontent

import (
	"encoding/xml"

	"github.com/scantailor/scantailor-cli/internal/filters"
)

type Element struct {
	XMLName                xml.Name            `xml:"select-content"`
	PageDetectionTolerance float64             `xml:"pageDetectionTolerance,attr"`
	PageDetectionBox       filters.SizeElement `xml:"page-detection-box"`
	Pages                  []PageElement       `xml:"page"`
}

type PageElement struct {
	ID     int           `xml:"id,attr"`
	Params ParamsElement `xml:"params"`
}

type ParamsElement struct {
	ContentDetectionMode string                 `xml:"contentDetectionMode,attr"`
	PageDetectionMode    string                 `xml:"pageDetectionMode,attr"`
	FineTuneCorners      bool                   `xml:"fineTuneCorners,attr"`
	ContentRect          filters.RectElement    `xml:"content-rect"`
	PageRect             filters.RectElement    `xml:"page-rect"`
	ContentSizeMM        filters.SizeElement    `xml:"content-size-mm"`
	PageOutline          filters.PolygonElement `xml:"dependencies>rotated-page-outline"`
}

func (s *Settings) ProjectXML(ids filters.ProjectIDs) Element {
	opts := s.Options()
	el := Element{
		PageDetectionTolerance: opts.PageDetectionTolerance,
		PageDetectionBox:       filters.NewSizeElement(opts.PageDetectionBox),
	}
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
				ContentDetectionMode: p.Deps.ContentMode.String(),
				PageDetectionMode:    p.Deps.PageMode.String(),
				FineTuneCorners:      p.Deps.FineTuneCorners,
				ContentRect:          filters.NewRectElement(p.ContentRect),
				PageRect:             filters.NewRectElement(p.PageRect),
				ContentSizeMM:        filters.NewSizeElement(p.ContentSizeMM),
				PageOutline:          filters.NewPolygonElement(p.Deps.RotatedPageOutline),
			},
		})
	}
	return el
}
