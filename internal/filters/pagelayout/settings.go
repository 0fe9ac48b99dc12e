package pagelayout

import (
	"sync"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/settings"
)

// Options are the run-wide layout settings.
type Options struct {
	HardMarginsMM  Margins
	AutoMargins    bool
	Alignment      Alignment
	ShowMiddleRect bool
}

func DefaultOptions() Options {
	return Options{
		HardMarginsMM: UniformMargins(10),
		AutoMargins:   true,
	}
}

type Settings struct {
	mu    sync.Mutex
	store *settings.Store[domain.PageID, Params]
	opts  Options
}

func NewSettings(opts Options) *Settings {
	return &Settings{store: settings.NewStore[domain.PageID, Params](), opts: opts}
}

func (s *Settings) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

func (s *Settings) SetOptions(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
}

func (s *Settings) Get(id domain.PageID) (Params, bool) { return s.store.Get(id) }

// UpdateContentSizeAndGetParams stores the boxes of a page and returns its
// params with the aggregate hard size of all aligned pages before and after
// the update. hardMarginsMM replaces the stored margins when non-nil.
func (s *Settings) UpdateContentSizeAndGetParams(
	id domain.PageID,
	pageRect, contentRect geom.Rect,
	contentSizeMM geom.Size,
	hardMarginsMM *Margins,
) (Params, geom.Size, geom.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.aggregateHardSizeLocked()
	p, ok := s.store.Get(id)
	if !ok {
		p = Params{HardMarginsMM: s.opts.HardMarginsMM}
	}
	p.Alignment = s.opts.Alignment
	p.AutoMargins = s.opts.AutoMargins
	if hardMarginsMM != nil {
		p.HardMarginsMM = *hardMarginsMM
	} else if !s.opts.AutoMargins {
		p.HardMarginsMM = s.opts.HardMarginsMM
	}
	p.PageRect = pageRect
	p.ContentRect = contentRect
	p.ContentSizeMM = contentSizeMM
	s.store.Set(id, p)
	after := s.aggregateHardSizeLocked()
	return p, before, after
}

// AggregateHardSizeMM is the largest hard size among aligned pages.
func (s *Settings) AggregateHardSizeMM() geom.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregateHardSizeLocked()
}

func (s *Settings) aggregateHardSizeLocked() geom.Size {
	var agg geom.Size
	for _, e := range s.store.Entries() {
		if e.Value.Alignment.Null {
			continue
		}
		agg = agg.ExpandedTo(e.Value.HardSizeMM())
	}
	return agg
}

func (s *Settings) Entries() []settings.Entry[domain.PageID, Params] {
	return s.store.Entries()
}

func (s *Settings) Load(entries []settings.Entry[domain.PageID, Params]) {
	s.store.Load(entries)
}
