package project

import (
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/filters/deskew"
	"github.com/scantailor/scantailor-cli/internal/filters/fixorientation"
	"github.com/scantailor/scantailor-cli/internal/filters/output"
	"github.com/scantailor/scantailor-cli/internal/filters/pagelayout"
	"github.com/scantailor/scantailor-cli/internal/filters/pagesplit"
	"github.com/scantailor/scantailor-cli/internal/filters/selectcontent"
)

// StoreOptions are the run-wide settings the stage stores start from.
type StoreOptions struct {
	DefaultLayoutType pagesplit.LayoutType
	Content           selectcontent.Options
	Layout            pagelayout.Options
	Output            output.Params
}

func DefaultStoreOptions() StoreOptions {
	return StoreOptions{
		DefaultLayoutType: pagesplit.AutoLayoutType,
		Content:           selectcontent.DefaultOptions(),
		Layout:            pagelayout.DefaultOptions(),
		Output:            output.DefaultParams(),
	}
}

// Stores holds one settings store per stage, shared by the tasks of all
// pages, plus the per-page binarization estimates.
type Stores struct {
	Images         *filters.ImageSettings
	FixOrientation *fixorientation.Settings
	PageSplit      *pagesplit.Settings
	Deskew         *deskew.Settings
	SelectContent  *selectcontent.Settings
	PageLayout     *pagelayout.Settings
	Output         *output.Settings
}

func NewStores(o StoreOptions) *Stores {
	return &Stores{
		Images:         filters.NewImageSettings(),
		FixOrientation: fixorientation.NewSettings(),
		PageSplit:      pagesplit.NewSettings(o.DefaultLayoutType),
		Deskew:         deskew.NewSettings(),
		SelectContent:  selectcontent.NewSettings(o.Content),
		PageLayout:     pagelayout.NewSettings(o.Layout),
		Output:         output.NewSettings(o.Output),
	}
}
