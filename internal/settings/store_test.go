package settings

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGet(t *testing.T) {
	s := NewStore[string, int]()

	_, ok := s.Get("a")
	assert.False(t, ok)

	s.Set("a", 1)
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestStore_CompareAndSwap(t *testing.T) {
	s := NewStore[string, int]()

	v1, ok := s.CompareAndSwap("a", 0, 10)
	require.True(t, ok)
	assert.Equal(t, uint64(1), v1)

	current, ok := s.CompareAndSwap("a", 0, 20)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), current)

	got, _ := s.Get("a")
	assert.Equal(t, 10, got)
}

func TestStore_UpdateIsAtomic(t *testing.T) {
	s := NewStore[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("n", func(cur int, _ bool) int { return cur + 1 })
		}()
	}
	wg.Wait()

	v, _ := s.Get("n")
	assert.Equal(t, 50, v)
}

func TestStore_EntriesKeepInsertionOrder(t *testing.T) {
	s := NewStore[string, int]()
	s.Set("b", 2)
	s.Set("a", 1)
	s.Set("c", 3)
	s.Delete("a")

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Key)
	assert.Equal(t, "c", entries[1].Key)
}

func TestStore_LoadReplacesContent(t *testing.T) {
	s := NewStore[string, int]()
	s.Set("old", 1)

	s.Load([]Entry[string, int]{{Key: "new", Value: 7}})

	_, ok := s.Get("old")
	assert.False(t, ok)
	v, ok := s.Get("new")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, s.Len())
}
