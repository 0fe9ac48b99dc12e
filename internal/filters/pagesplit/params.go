package pagesplit

import (
	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
)

// Dependencies are the inputs a stored layout was computed from.
type Dependencies struct {
	ImageSize  geom.Size               `json:"image_size"`
	Rotation   geom.OrthogonalRotation `json:"rotation"`
	LayoutType LayoutType              `json:"layout_type"`
}

func NewDependencies(imageSize geom.Size, rotation geom.OrthogonalRotation, layoutType LayoutType) Dependencies {
	return Dependencies{ImageSize: imageSize, Rotation: rotation, LayoutType: layoutType}
}

// CompatibleWith reports whether params may be reused for these inputs.
func (d Dependencies) CompatibleWith(params Params) bool {
	old := params.Deps
	if d.ImageSize != old.ImageSize || d.Rotation != old.Rotation {
		return false
	}
	if d.LayoutType == old.LayoutType || d.LayoutType == AutoLayoutType {
		return true
	}
	return d.LayoutType == params.Layout.ToLayoutType()
}

// Params is the stored result of the stage for one image.
type Params struct {
	Layout        PageLayout            `json:"layout"`
	Deps          Dependencies          `json:"dependencies"`
	SplitLineMode domain.AutoManualMode `json:"split_line_mode"`
}
