package filters

import (
	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
	"github.com/scantailor/scantailor-cli/internal/settings"
)

// ImageSettings keeps binarization parameters at two levels. FixOrientation
// estimates them once per source image from the whole raster. Deskew refines
// them per page from the page area, and the page record wins when present.
// The store is shared by FixOrientation and Deskew.
type ImageSettings struct {
	images *settings.Store[domain.ImageID, imageproc.BinarizationParams]
	pages  *settings.Store[domain.PageID, imageproc.BinarizationParams]
}

// NewImageSettings returns an empty store.
func NewImageSettings() *ImageSettings {
	return &ImageSettings{
		images: settings.NewStore[domain.ImageID, imageproc.BinarizationParams](),
		pages:  settings.NewStore[domain.PageID, imageproc.BinarizationParams](),
	}
}

func (s *ImageSettings) Get(id domain.PageID) (imageproc.BinarizationParams, bool) {
	return s.pages.Get(id)
}

func (s *ImageSettings) Set(id domain.PageID, p imageproc.BinarizationParams) {
	s.pages.Set(id, p)
}

// ForImage returns the whole-image estimate of id.
func (s *ImageSettings) ForImage(id domain.ImageID) (imageproc.BinarizationParams, bool) {
	return s.images.Get(id)
}

func (s *ImageSettings) SetForImage(id domain.ImageID, p imageproc.BinarizationParams) {
	s.images.Set(id, p)
}

func (s *ImageSettings) Entries() []settings.Entry[domain.PageID, imageproc.BinarizationParams] {
	return s.pages.Entries()
}

func (s *ImageSettings) Load(entries []settings.Entry[domain.PageID, imageproc.BinarizationParams]) {
	s.pages.Load(entries)
}

func (s *ImageSettings) ImageEntries() []settings.Entry[domain.ImageID, imageproc.BinarizationParams] {
	return s.images.Entries()
}

func (s *ImageSettings) LoadImages(entries []settings.Entry[domain.ImageID, imageproc.BinarizationParams]) {
	s.images.Load(entries)
}
