// Package filterstest provides fixtures shared by the stage tests.
package filterstest

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
)

// Page renders a w x h white page with a dark text-like block inset by margin
// pixels on every side.
func Page(w, h, margin int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xF0
	}
	for y := margin; y < h-margin; y++ {
		// lines of "text" two pixels high every six pixels
		if (y-margin)%6 >= 2 {
			continue
		}
		for x := margin; x < w-margin; x++ {
			img.SetGray(x, y, color.Gray{Y: 0x20})
		}
	}
	return img
}

// Spread renders a two page spread: two text blocks separated by a blank
// gutter in the middle.
func Spread(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xF0
	}
	half := w / 2
	for y := 20; y < h-20; y += 6 {
		for x := 30; x < w-30; x++ {
			if x > half-30 && x < half+30 {
				continue
			}
			img.SetGray(x, y, color.Gray{Y: 0x10})
			img.SetGray(x, y+1, color.Gray{Y: 0x10})
		}
	}
	return img
}

// Data wraps Page in FilterData at 300 dpi.
func Data(w, h, margin int) filters.FilterData {
	return filters.NewFilterData(Page(w, h, margin), domain.NewDpi(300))
}

// Recorder is a terminal stage remembering what it received.
type Recorder struct {
	mu    sync.Mutex
	Calls []filters.FilterData
}

func (r *Recorder) Process(_ context.Context, data filters.FilterData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, data)
	return nil
}

func (r *Recorder) Last() filters.FilterData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Calls[len(r.Calls)-1]
}

// IDs is a fixed ProjectIDs numbering images and pages in the given order.
type IDs struct {
	ImageList []domain.ImageID
	PageList  []domain.PageID
}

func (ids IDs) Images() []domain.ImageID { return ids.ImageList }
func (ids IDs) Pages() []domain.PageID   { return ids.PageList }

func (ids IDs) ImageNumericID(id domain.ImageID) (int, bool) {
	for i, v := range ids.ImageList {
		if v == id {
			return i + 1, true
		}
	}
	return 0, false
}

func (ids IDs) PageNumericID(id domain.PageID) (int, bool) {
	for i, v := range ids.PageList {
		if v == id {
			return len(ids.ImageList) + i + 1, true
		}
	}
	return 0, false
}

// SinglePage returns the ids of one single-page image.
func SinglePage(path string) (domain.PageID, IDs) {
	imageID := domain.NewImageID(path, 0)
	pageID := domain.NewPageID(imageID, domain.SinglePage)
	return pageID, IDs{ImageList: []domain.ImageID{imageID}, PageList: []domain.PageID{pageID}}
}
