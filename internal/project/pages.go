// Package project tracks the images of a run and the pages they split into.
package project

import (
	"sync"

	"github.com/scantailor/scantailor-cli/internal/domain"
)

// ImageInfo describes one input image.
type ImageInfo struct {
	ID       domain.ImageID       `json:"id"`
	Metadata domain.ImageMetadata `json:"metadata"`
	Layout   domain.ImageLayout   `json:"layout"`
}

// Pages is the ordered page sequence of a run. Every image starts as a
// single page until the page split stage records otherwise.
type Pages struct {
	mu     sync.RWMutex
	images []ImageInfo
	index  map[domain.ImageID]int
}

func NewPages(images []ImageInfo) *Pages {
	p := &Pages{
		images: append([]ImageInfo(nil), images...),
		index:  make(map[domain.ImageID]int, len(images)),
	}
	for i, img := range p.images {
		p.index[img.ID] = i
	}
	return p
}

// SetLayoutTypeFor records the layout of an image and reports whether it
// changed. Unknown images are ignored.
func (p *Pages) SetLayoutTypeFor(id domain.ImageID, layout domain.ImageLayout) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.index[id]
	if !ok || p.images[i].Layout == layout {
		return false
	}
	p.images[i].Layout = layout
	return true
}

func (p *Pages) LayoutOf(id domain.ImageID) domain.ImageLayout {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i, ok := p.index[id]; ok {
		return p.images[i].Layout
	}
	return domain.OnePageLayout
}

// PagesOf returns the current pages of one image.
func (p *Pages) PagesOf(id domain.ImageID) []domain.PageID {
	subs := p.LayoutOf(id).SubPages()
	out := make([]domain.PageID, 0, len(subs))
	for _, sub := range subs {
		out = append(out, domain.NewPageID(id, sub))
	}
	return out
}

func (p *Pages) Metadata(id domain.ImageID) (domain.ImageMetadata, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i, ok := p.index[id]; ok {
		return p.images[i].Metadata, true
	}
	return domain.ImageMetadata{}, false
}

// UpdateMetadata stores m for an image and reports whether it differs from
// what was recorded.
func (p *Pages) UpdateMetadata(id domain.ImageID, m domain.ImageMetadata) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.index[id]
	if !ok || p.images[i].Metadata == m {
		return false
	}
	p.images[i].Metadata = m
	return true
}

// ImageInfos returns a copy of all image records in order.
func (p *Pages) ImageInfos() []ImageInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]ImageInfo(nil), p.images...)
}

func (p *Pages) Images() []domain.ImageID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.ImageID, 0, len(p.images))
	for _, img := range p.images {
		out = append(out, img.ID)
	}
	return out
}

// Pages returns every page of every image in order.
func (p *Pages) Pages() []domain.PageID {
	var out []domain.PageID
	for _, id := range p.Images() {
		out = append(out, p.PagesOf(id)...)
	}
	return out
}

// RestoreLayouts applies layouts remembered from an earlier run to the
// images still present.
func (p *Pages) RestoreLayouts(layouts map[domain.ImageID]domain.ImageLayout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, layout := range layouts {
		if i, ok := p.index[id]; ok {
			p.images[i].Layout = layout
		}
	}
}

// Layouts returns the layout of every image that splits into two pages.
func (p *Pages) Layouts() map[domain.ImageID]domain.ImageLayout {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[domain.ImageID]domain.ImageLayout)
	for _, img := range p.images {
		if img.Layout != domain.OnePageLayout {
			out[img.ID] = img.Layout
		}
	}
	return out
}
