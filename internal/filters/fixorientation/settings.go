// Package fixorientation implements the first stage: per-image binarization
// parameters and the orthogonal pre-rotation.
package fixorientation

import (
	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/settings"
)

// Settings holds the rotation of every image. Images without a record are
// not rotated.
type Settings struct {
	store *settings.Store[domain.ImageID, geom.OrthogonalRotation]
}

func NewSettings() *Settings {
	return &Settings{store: settings.NewStore[domain.ImageID, geom.OrthogonalRotation]()}
}

// RotationFor returns the rotation applied to id.
func (s *Settings) RotationFor(id domain.ImageID) geom.OrthogonalRotation {
	r, _ := s.store.Get(id)
	return r
}

// ApplyRotation sets the rotation of id.
func (s *Settings) ApplyRotation(id domain.ImageID, r geom.OrthogonalRotation) {
	s.store.Set(id, r)
}

func (s *Settings) Entries() []settings.Entry[domain.ImageID, geom.OrthogonalRotation] {
	return s.store.Entries()
}

func (s *Settings) Load(entries []settings.Entry[domain.ImageID, geom.OrthogonalRotation]) {
	s.store.Load(entries)
}
