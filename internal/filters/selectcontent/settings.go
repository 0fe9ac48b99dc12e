package selectcontent

import (
	"sync"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/settings"
)

// Options are the run-wide detection settings.
type Options struct {
	ContentMode     domain.AutoManualMode
	PageMode        domain.AutoManualMode
	FineTuneCorners bool
	// PageDetectionBox is the expected page size in millimetres. A zero size
	// disables the check.
	PageDetectionBox geom.Size
	// PageDetectionTolerance is the relative deviation from PageDetectionBox
	// still accepted.
	PageDetectionTolerance float64
}

func DefaultOptions() Options {
	return Options{
		ContentMode:            domain.ModeAuto,
		PageMode:               domain.ModeDisabled,
		PageDetectionTolerance: 0.1,
	}
}

type Settings struct {
	store *settings.Store[domain.PageID, Params]

	mu   sync.RWMutex
	opts Options
}

func NewSettings(opts Options) *Settings {
	return &Settings{store: settings.NewStore[domain.PageID, Params](), opts: opts}
}

func (s *Settings) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

func (s *Settings) SetOptions(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
}

func (s *Settings) Get(id domain.PageID) (Params, bool) { return s.store.Get(id) }
func (s *Settings) Set(id domain.PageID, p Params)      { s.store.Set(id, p) }

func (s *Settings) Entries() []settings.Entry[domain.PageID, Params] {
	return s.store.Entries()
}

func (s *Settings) Load(entries []settings.Entry[domain.PageID, Params]) {
	s.store.Load(entries)
}
