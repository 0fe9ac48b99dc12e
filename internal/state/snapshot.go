// Package state persists the settings stores of a project between runs, so a
// run over unchanged inputs reuses the results of the previous one.
package state

import (
	"time"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters/deskew"
	"github.com/scantailor/scantailor-cli/internal/filters/output"
	"github.com/scantailor/scantailor-cli/internal/filters/pagelayout"
	"github.com/scantailor/scantailor-cli/internal/filters/pagesplit"
	"github.com/scantailor/scantailor-cli/internal/filters/selectcontent"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
	"github.com/scantailor/scantailor-cli/internal/project"
	"github.com/scantailor/scantailor-cli/internal/settings"
)

// snapshotVersion changes whenever the persisted layout stops being
// readable by older builds.
const snapshotVersion = 1

// Snapshot is the persisted form of a project.
type Snapshot struct {
	Version         int       `json:"version"`
	RunID           string    `json:"run_id"`
	SavedAt         time.Time `json:"saved_at"`
	OutputDirectory string    `json:"output_directory"`

	Layouts        []LayoutRecord                                                 `json:"layouts,omitempty"`
	WholeImages    []settings.Entry[domain.ImageID, imageproc.BinarizationParams] `json:"whole_image_settings,omitempty"`
	ImageSettings  []settings.Entry[domain.PageID, imageproc.BinarizationParams]  `json:"image_settings,omitempty"`
	FixOrientation []settings.Entry[domain.ImageID, geom.OrthogonalRotation]      `json:"fix_orientation,omitempty"`
	PageSplit      []settings.Entry[domain.ImageID, pagesplit.ImageRecord]        `json:"page_split,omitempty"`
	Deskew         []settings.Entry[domain.PageID, deskew.Params]                 `json:"deskew,omitempty"`
	SelectContent  []settings.Entry[domain.PageID, selectcontent.Params]          `json:"select_content,omitempty"`
	PageLayout     []settings.Entry[domain.PageID, pagelayout.Params]             `json:"page_layout,omitempty"`
	Output         output.Snapshot                                                `json:"output"`
}

// LayoutRecord remembers that an image splits into more than one page.
type LayoutRecord struct {
	Image  domain.ImageID     `json:"image"`
	Layout domain.ImageLayout `json:"layout"`
}

// Capture takes a snapshot of pages and stores.
func Capture(runID, outDir string, pages *project.Pages, stores *project.Stores) Snapshot {
	snap := Snapshot{
		Version:         snapshotVersion,
		RunID:           runID,
		SavedAt:         time.Now().UTC(),
		OutputDirectory: outDir,
		WholeImages:     stores.Images.ImageEntries(),
		ImageSettings:   stores.Images.Entries(),
		FixOrientation:  stores.FixOrientation.Entries(),
		PageSplit:       stores.PageSplit.Entries(),
		Deskew:          stores.Deskew.Entries(),
		SelectContent:   stores.SelectContent.Entries(),
		PageLayout:      stores.PageLayout.Entries(),
		Output:          stores.Output.Snapshot(),
	}
	layouts := pages.Layouts()
	for _, id := range pages.Images() {
		if layout, ok := layouts[id]; ok {
			snap.Layouts = append(snap.Layouts, LayoutRecord{Image: id, Layout: layout})
		}
	}
	return snap
}

// Restore loads the snapshot into stores and applies the remembered layouts
// to the images of pages. Records of images no longer present are kept in
// the stores and written back on the next save.
func (s Snapshot) Restore(pages *project.Pages, stores *project.Stores) {
	layouts := make(map[domain.ImageID]domain.ImageLayout, len(s.Layouts))
	for _, l := range s.Layouts {
		layouts[l.Image] = l.Layout
	}
	pages.RestoreLayouts(layouts)

	stores.Images.LoadImages(s.WholeImages)
	stores.Images.Load(s.ImageSettings)
	stores.FixOrientation.Load(s.FixOrientation)
	stores.PageSplit.Load(s.PageSplit)
	stores.Deskew.Load(s.Deskew)
	stores.SelectContent.Load(s.SelectContent)
	stores.PageLayout.Load(s.PageLayout)
	stores.Output.Load(s.Output)
}
