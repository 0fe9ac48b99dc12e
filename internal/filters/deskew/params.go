// Package deskew implements the third stage: detecting and correcting the
// skew of the text on each page.
package deskew

import (
	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/settings"
)

const areaTolerance = 1e-2

// Dependencies are the inputs a skew angle was measured on.
type Dependencies struct {
	PreCropArea geom.Polygon            `json:"pre_crop_area"`
	Rotation    geom.OrthogonalRotation `json:"rotation"`
}

func NewDependencies(area geom.Polygon, rotation geom.OrthogonalRotation) Dependencies {
	return Dependencies{PreCropArea: area.Clone(), Rotation: rotation}
}

// Matches compares with a tolerance on the crop area.
func (d Dependencies) Matches(o Dependencies) bool {
	return d.Rotation == o.Rotation && d.PreCropArea.ApproxEqual(o.PreCropArea, areaTolerance)
}

// Params is the stored deskew result of a page. Angle is in degrees,
// clockwise positive.
type Params struct {
	Angle float64               `json:"angle"`
	Deps  Dependencies          `json:"dependencies"`
	Mode  domain.AutoManualMode `json:"mode"`
}

type Settings struct {
	store *settings.Store[domain.PageID, Params]
}

func NewSettings() *Settings {
	return &Settings{store: settings.NewStore[domain.PageID, Params]()}
}

func (s *Settings) Get(id domain.PageID) (Params, bool) { return s.store.Get(id) }
func (s *Settings) Set(id domain.PageID, p Params)      { s.store.Set(id, p) }

func (s *Settings) Entries() []settings.Entry[domain.PageID, Params] {
	return s.store.Entries()
}

func (s *Settings) Load(entries []settings.Entry[domain.PageID, Params]) {
	s.store.Load(entries)
}
