package output

import (
	"sync"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/settings"
)

// Settings hold the output params of every page together with the
// fingerprints of what was last written.
type Settings struct {
	mu       sync.RWMutex
	defaults Params

	params       *settings.Store[domain.PageID, Params]
	results      *settings.Store[domain.PageID, Result]
	pictureZones *settings.Store[domain.PageID, PictureZones]
	fillZones    *settings.Store[domain.PageID, FillZones]
	processing   *settings.Store[domain.PageID, ProcessingParams]
}

func NewSettings(defaults Params) *Settings {
	return &Settings{
		defaults:     defaults,
		params:       settings.NewStore[domain.PageID, Params](),
		results:      settings.NewStore[domain.PageID, Result](),
		pictureZones: settings.NewStore[domain.PageID, PictureZones](),
		fillZones:    settings.NewStore[domain.PageID, FillZones](),
		processing:   settings.NewStore[domain.PageID, ProcessingParams](),
	}
}

func (s *Settings) Defaults() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}

func (s *Settings) SetDefaults(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = p
}

// Params returns the run-wide defaults with the page specific distortion
// model applied on top.
func (s *Settings) Params(id domain.PageID) Params {
	p := s.Defaults()
	if stored, ok := s.params.Get(id); ok {
		p.DistortionModel = stored.DistortionModel
	}
	return p
}

func (s *Settings) SetParams(id domain.PageID, p Params) { s.params.Set(id, p) }

// SetDistortionModel keeps the rest of the stored page params.
func (s *Settings) SetDistortionModel(id domain.PageID, m DistortionModel) {
	s.params.Update(id, func(cur Params, exists bool) Params {
		if !exists {
			cur = s.Defaults()
		}
		cur.DistortionModel = m
		return cur
	})
}

func (s *Settings) Result(id domain.PageID) (Result, bool) { return s.results.Get(id) }

func (s *Settings) SetResult(id domain.PageID, r Result) { s.results.Set(id, r) }

// RemoveResult forgets the output of a page so the next run regenerates it.
func (s *Settings) RemoveResult(id domain.PageID) { s.results.Delete(id) }

func (s *Settings) PictureZones(id domain.PageID) PictureZones {
	z, _ := s.pictureZones.Get(id)
	return z
}

func (s *Settings) SetPictureZones(id domain.PageID, z PictureZones) { s.pictureZones.Set(id, z) }

func (s *Settings) FillZones(id domain.PageID) FillZones {
	z, _ := s.fillZones.Get(id)
	return z
}

func (s *Settings) SetFillZones(id domain.PageID, z FillZones) { s.fillZones.Set(id, z) }

func (s *Settings) ProcessingParams(id domain.PageID) ProcessingParams {
	p, _ := s.processing.Get(id)
	return p
}

func (s *Settings) SetProcessingParams(id domain.PageID, p ProcessingParams) {
	s.processing.Set(id, p)
}

// Snapshot is the persisted form of Settings.
type Snapshot struct {
	Params       []settings.Entry[domain.PageID, Params]           `json:"params,omitempty"`
	Results      []settings.Entry[domain.PageID, Result]           `json:"results,omitempty"`
	PictureZones []settings.Entry[domain.PageID, PictureZones]     `json:"picture_zones,omitempty"`
	FillZones    []settings.Entry[domain.PageID, FillZones]        `json:"fill_zones,omitempty"`
	Processing   []settings.Entry[domain.PageID, ProcessingParams] `json:"processing,omitempty"`
}

func (s *Settings) Snapshot() Snapshot {
	return Snapshot{
		Params:       s.params.Entries(),
		Results:      s.results.Entries(),
		PictureZones: s.pictureZones.Entries(),
		FillZones:    s.fillZones.Entries(),
		Processing:   s.processing.Entries(),
	}
}

func (s *Settings) Load(snap Snapshot) {
	s.params.Load(snap.Params)
	s.results.Load(snap.Results)
	s.pictureZones.Load(snap.PictureZones)
	s.fillZones.Load(snap.FillZones)
	s.processing.Load(snap.Processing)
}
