package fixorientation

import (
	"encoding/xml"

	"github.com/scantailor/scantailor-cli/internal/filters"
)

// Element is the <fix-orientation> project element.
type Element struct {
	XMLName xml.Name       `xml:"fix-orientation"`
	Images  []ImageElement `xml:"image"`
}

type ImageElement struct {
	ID       int                     `xml:"id,attr"`
	Rotation filters.RotationElement `xml:"rotation"`
}

// ProjectXML lists the rotation of every project image.
func (s *Settings) ProjectXML(ids filters.ProjectIDs) Element {
	el := Element{}
	for _, imageID := range ids.Images() {
		num, ok := ids.ImageNumericID(imageID)
		if !ok {
			continue
		}
		el.Images = append(el.Images, ImageElement{
			ID:       num,
			Rotation: filters.RotationElement{Degrees: s.RotationFor(imageID).Degrees()},
		})
	}
	return el
}
