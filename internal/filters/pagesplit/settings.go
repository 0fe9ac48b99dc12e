package pagesplit

import (
	"sync"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/settings"
)

// ImageRecord is what the store keeps per image. A nil LayoutType defers to
// the default layout type.
type ImageRecord struct {
	LayoutType *LayoutType `json:"layout_type,omitempty"`
	Params     *Params     `json:"params,omitempty"`
}

// Record is an ImageRecord resolved against the default layout type.
type Record struct {
	ImageRecord
	defaultLayoutType LayoutType
}

// CombinedLayoutType is the layout type in effect for the image.
func (r Record) CombinedLayoutType() LayoutType {
	if r.LayoutType != nil {
		return *r.LayoutType
	}
	return r.defaultLayoutType
}

// HasLayoutTypeConflict reports stored params whose layout contradicts the
// layout type in effect.
func (r Record) HasLayoutTypeConflict() bool {
	if r.Params == nil {
		return false
	}
	combined := r.CombinedLayoutType()
	if combined == AutoLayoutType {
		return false
	}
	return r.Params.Layout.ToLayoutType() != combined
}

// Update returns the record with action applied.
func (r Record) Update(action UpdateAction) Record {
	r.ImageRecord = action.apply(r.ImageRecord)
	return r
}

// UpdateAction describes a change to an image record. The zero value changes
// nothing.
type UpdateAction struct {
	layoutType      *LayoutType
	clearLayoutType bool
	params          *Params
	clearParams     bool
}

func (a UpdateAction) SetLayoutType(t LayoutType) UpdateAction {
	a.layoutType, a.clearLayoutType = &t, false
	return a
}

func (a UpdateAction) ClearLayoutType() UpdateAction {
	a.layoutType, a.clearLayoutType = nil, true
	return a
}

func (a UpdateAction) SetParams(p Params) UpdateAction {
	a.params, a.clearParams = &p, false
	return a
}

func (a UpdateAction) ClearParams() UpdateAction {
	a.params, a.clearParams = nil, true
	return a
}

func (a UpdateAction) apply(rec ImageRecord) ImageRecord {
	switch {
	case a.layoutType != nil:
		t := *a.layoutType
		rec.LayoutType = &t
	case a.clearLayoutType:
		rec.LayoutType = nil
	}
	switch {
	case a.params != nil:
		p := *a.params
		rec.Params = &p
	case a.clearParams:
		rec.Params = nil
	}
	return rec
}

// Settings is the page split store.
type Settings struct {
	store *settings.Store[domain.ImageID, ImageRecord]

	mu                sync.RWMutex
	defaultLayoutType LayoutType
}

func NewSettings(defaultLayoutType LayoutType) *Settings {
	return &Settings{
		store:             settings.NewStore[domain.ImageID, ImageRecord](),
		defaultLayoutType: defaultLayoutType,
	}
}

func (s *Settings) DefaultLayoutType() LayoutType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultLayoutType
}

// SetLayoutTypeForAll makes t the default, drops every per-image override and
// clears params that contradict t.
func (s *Settings) SetLayoutTypeForAll(t LayoutType) {
	s.mu.Lock()
	s.defaultLayoutType = t
	s.mu.Unlock()
	for _, e := range s.store.Entries() {
		s.store.Update(e.Key, func(cur ImageRecord, _ bool) ImageRecord {
			rec := Record{ImageRecord: cur, defaultLayoutType: t}.Update(UpdateAction{}.ClearLayoutType())
			if rec.HasLayoutTypeConflict() {
				rec.Params = nil
			}
			return rec.ImageRecord
		})
	}
}

// PageRecord returns the record of id and its version.
func (s *Settings) PageRecord(id domain.ImageID) (Record, uint64) {
	rec, version, _ := s.store.Snapshot(id)
	return Record{ImageRecord: rec, defaultLayoutType: s.DefaultLayoutType()}, version
}

// ConditionalUpdate applies action only if the record of id is still at
// expectedVersion and the result is free of layout type conflicts. Otherwise
// it reports a conflict and returns the current record untouched.
func (s *Settings) ConditionalUpdate(id domain.ImageID, expectedVersion uint64, action UpdateAction) (Record, uint64, bool) {
	current, version := s.PageRecord(id)
	if version != expectedVersion {
		return current, version, true
	}
	updated := current.Update(action)
	if updated.HasLayoutTypeConflict() {
		return current, version, true
	}
	newVersion, ok := s.store.CompareAndSwap(id, expectedVersion, updated.ImageRecord)
	if !ok {
		latest, latestVersion := s.PageRecord(id)
		return latest, latestVersion, true
	}
	return updated, newVersion, false
}

// UpdatePage applies action unconditionally. Params that would conflict with
// the resulting layout type are dropped.
func (s *Settings) UpdatePage(id domain.ImageID, action UpdateAction) Record {
	defaultType := s.DefaultLayoutType()
	rec := s.store.Update(id, func(cur ImageRecord, _ bool) ImageRecord {
		r := Record{ImageRecord: cur, defaultLayoutType: defaultType}.Update(action)
		if r.HasLayoutTypeConflict() {
			r.Params = nil
		}
		return r.ImageRecord
	})
	return Record{ImageRecord: rec, defaultLayoutType: defaultType}
}

func (s *Settings) Entries() []settings.Entry[domain.ImageID, ImageRecord] {
	return s.store.Entries()
}

func (s *Settings) Load(entries []settings.Entry[domain.ImageID, ImageRecord]) {
	s.store.Load(entries)
}
