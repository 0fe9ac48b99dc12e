// Package settings provides the keyed, versioned record store every stage keeps
// its parameters in.
package settings

import (
	"sync"
)

// Entry is a stored record together with its key and version.
type Entry[K comparable, V any] struct {
	Key     K      `json:"key"`
	Value   V      `json:"value"`
	Version uint64 `json:"-"`
}

type slot[V any] struct {
	value   V
	version uint64
}

// Store maps keys to values. Every write bumps the version of the slot so
// callers can do optimistic read-modify-write cycles with CompareAndSwap.
// Values are stored by copy; callers must treat slices inside values as immutable.
type Store[K comparable, V any] struct {
	mu    sync.RWMutex
	slots map[K]*slot[V]
	order []K
}

// NewStore returns an empty store.
func NewStore[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{slots: make(map[K]*slot[V])}
}

// Get returns the value stored under key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	v, _, ok := s.Snapshot(key)
	return v, ok
}

// Snapshot returns the value and its version. A missing key has version 0.
func (s *Store[K, V]) Snapshot(key K) (V, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[key]
	if !ok {
		var zero V
		return zero, 0, false
	}
	return sl.value, sl.version, true
}

// Set stores value unconditionally and returns the new version.
func (s *Store[K, V]) Set(key K, value V) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(key, value)
}

func (s *Store[K, V]) setLocked(key K, value V) uint64 {
	sl, ok := s.slots[key]
	if !ok {
		sl = &slot[V]{}
		s.slots[key] = sl
		s.order = append(s.order, key)
	}
	sl.value = value
	sl.version++
	return sl.version
}

// CompareAndSwap stores value only if the slot is still at expectedVersion.
// It returns the version now current and whether the write happened.
func (s *Store[K, V]) CompareAndSwap(key K, expectedVersion uint64, value V) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := uint64(0)
	if sl, ok := s.slots[key]; ok {
		current = sl.version
	}
	if current != expectedVersion {
		return current, false
	}
	return s.setLocked(key, value), true
}

// Update applies fn atomically to the current value and stores the result.
func (s *Store[K, V]) Update(key K, fn func(current V, exists bool) V) V {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current V
	exists := false
	if sl, ok := s.slots[key]; ok {
		current, exists = sl.value, true
	}
	next := fn(current, exists)
	s.setLocked(key, next)
	return next
}

// Delete removes key.
func (s *Store[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[key]; !ok {
		return
	}
	delete(s.slots, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of stored keys.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Entries returns all records in insertion order.
func (s *Store[K, V]) Entries() []Entry[K, V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry[K, V], 0, len(s.order))
	for _, k := range s.order {
		sl := s.slots[k]
		out = append(out, Entry[K, V]{Key: k, Value: sl.value, Version: sl.version})
	}
	return out
}

// Load replaces the content of the store with entries.
func (s *Store[K, V]) Load(entries []Entry[K, V]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[K]*slot[V], len(entries))
	s.order = s.order[:0]
	for _, e := range entries {
		s.setLocked(e.Key, e.Value)
	}
}
