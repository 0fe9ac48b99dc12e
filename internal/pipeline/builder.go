package pipeline

import (
	"context"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/filters/deskew"
	"github.com/scantailor/scantailor-cli/internal/filters/fixorientation"
	"github.com/scantailor/scantailor-cli/internal/filters/output"
	"github.com/scantailor/scantailor-cli/internal/filters/pagelayout"
	"github.com/scantailor/scantailor-cli/internal/filters/pagesplit"
	"github.com/scantailor/scantailor-cli/internal/filters/selectcontent"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/project"
)

// Stage names as reported in events.
const (
	StageFixOrientation = "fix_orientation"
	StagePageSplit      = "page_split"
	StageDeskew         = "deskew"
	StageSelectContent  = "select_content"
	StagePageLayout     = "page_layout"
	StageOutput         = "output"
)

// Stages lists the stage names in pipeline order.
var Stages = []string{
	StageFixOrientation,
	StagePageSplit,
	StageDeskew,
	StageSelectContent,
	StagePageLayout,
	StageOutput,
}

// Collaborators are the replaceable algorithms used by the stages. Nil
// fields select the defaults.
type Collaborators struct {
	Binarizer       imageproc.Binarizer
	SkewFinder      imageproc.SkewEstimator
	LayoutEstimator pagesplit.LayoutEstimator
	PageFinder      selectcontent.PageFinder
	ContentFinder   selectcontent.ContentFinder
	Generator       output.Generator
	Writer          output.ImageWriter
}

// ChainObserver is told when a page leaves a stage.
type ChainObserver interface {
	StageComplete(id domain.PageID, stage string)
	OutputWritten(id domain.PageID, path string, reused bool)
}

// Builder wires the six stage tasks of a page around the shared stores.
type Builder struct {
	stores   *project.Stores
	pages    *project.Pages
	names    output.FileNameGenerator
	collab   Collaborators
	observer ChainObserver
	logger   *observability.Logger
}

func NewBuilder(
	stores *project.Stores,
	pages *project.Pages,
	names output.FileNameGenerator,
	collab Collaborators,
	observer ChainObserver,
	logger *observability.Logger,
) *Builder {
	return &Builder{
		stores:   stores,
		pages:    pages,
		names:    names,
		collab:   collab,
		observer: observer,
		logger:   logger,
	}
}

// Build returns the head of the chain of a page: FixOrientation forwarding
// to PageSplit, Deskew, SelectContent, PageLayout and finally Output.
func (b *Builder) Build(pageID domain.PageID) filters.Stage {
	logger := b.logger.WithPage(pageID.String())
	s := b.stores

	var outputObserver output.Observer
	if b.observer != nil {
		outputObserver = outputTap{b.observer}
	}
	outputTask := output.NewTask(pageID, s.Output, b.names, b.collab.Generator, b.collab.Writer, outputObserver, logger)
	layoutTask := pagelayout.NewTask(pageID, s.PageLayout, physTap{b.tap(pageID, StagePageLayout), outputTask}, logger)
	contentTask := selectcontent.NewTask(pageID, s.SelectContent, b.collab.PageFinder, b.collab.ContentFinder,
		rectsTap{b.tap(pageID, StageSelectContent), layoutTask}, logger)
	deskewTask := deskew.NewTask(pageID, s.Deskew, s.Images, b.collab.Binarizer, b.collab.SkewFinder,
		stageTap{b.tap(pageID, StageDeskew), contentTask}, logger)
	splitTask := pagesplit.NewTask(pageID, s.PageSplit, b.pages, b.collab.LayoutEstimator,
		stageTap{b.tap(pageID, StagePageSplit), deskewTask}, logger)
	return fixorientation.NewTask(pageID, s.FixOrientation, s.Images, b.collab.Binarizer,
		stageTap{b.tap(pageID, StageFixOrientation), splitTask}, logger)
}

func (b *Builder) tap(pageID domain.PageID, stage string) func() {
	if b.observer == nil {
		return func() {}
	}
	return func() { b.observer.StageComplete(pageID, stage) }
}

// The taps report the completion of a stage when it forwards to the next.

type stageTap struct {
	done func()
	next filters.Stage
}

func (p stageTap) Process(ctx context.Context, data filters.FilterData) error {
	p.done()
	return p.next.Process(ctx, data)
}

type rectsTap struct {
	done func()
	next selectcontent.NextStage
}

func (p rectsTap) Process(ctx context.Context, data filters.FilterData, pageRect, contentRect geom.Rect) error {
	p.done()
	return p.next.Process(ctx, data, pageRect, contentRect)
}

type physTap struct {
	done func()
	next pagelayout.NextStage
}

func (p physTap) Process(ctx context.Context, data filters.FilterData, contentRectPhys geom.Polygon) error {
	p.done()
	return p.next.Process(ctx, data, contentRectPhys)
}

type outputTap struct {
	observer ChainObserver
}

func (p outputTap) OutputWritten(id domain.PageID, path string, reused bool) {
	p.observer.StageComplete(id, StageOutput)
	p.observer.OutputWritten(id, path, reused)
}
