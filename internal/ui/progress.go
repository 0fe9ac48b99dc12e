package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/scantailor/scantailor-cli/internal/pipeline"
)

// Progress styles.
const (
	ProgressBar     = "bar"
	ProgressStages  = "stages"
	ProgressSpinner = "spinner"
	ProgressNone    = "none"
)

// Progress renders run events until the event channel is closed.
type Progress interface {
	Consume(events <-chan pipeline.Event)
}

// NewProgress returns the display for style writing to w.
func NewProgress(style string, w io.Writer) Progress {
	switch style {
	case ProgressStages:
		return &stageBoard{w: w}
	case ProgressSpinner:
		return &spinnerProgress{w: w}
	case ProgressNone:
		return discard{}
	}
	return &pageBar{w: w}
}

type discard struct{}

func (discard) Consume(events <-chan pipeline.Event) {
	for range events {
	}
}

// pageBar counts finished pages.
type pageBar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *pageBar) Consume(events <-chan pipeline.Event) {
	for e := range events {
		switch e.Type {
		case pipeline.EventStart:
			p.bar = p.newBar(int64(e.Total))
		case pipeline.EventPageProcessing:
			if p.bar != nil {
				p.bar.ChangeMax64(int64(e.Total))
				p.bar.Describe(fmt.Sprintf("%-24s", e.Page.String()))
			}
		case pipeline.EventPageComplete, pipeline.EventError:
			if p.bar != nil {
				_ = p.bar.Add(1)
			}
		case pipeline.EventComplete:
			if p.bar != nil {
				_ = p.bar.Finish()
			}
		}
	}
}

func (p *pageBar) newBar(total int64) *progressbar.ProgressBar {
	w := p.w
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription("pages"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// stageBoard shows one bar per stage counting the pages that passed it.
type stageBoard struct {
	w        io.Writer
	progress *mpb.Progress
	bars     map[string]*mpb.Bar
}

func (b *stageBoard) Consume(events <-chan pipeline.Event) {
	for e := range events {
		switch e.Type {
		case pipeline.EventStart:
			b.start(int64(e.Total))
		case pipeline.EventPageProcessing:
			for _, bar := range b.bars {
				bar.SetTotal(int64(e.Total), false)
			}
		case pipeline.EventStageComplete:
			if bar, ok := b.bars[e.Stage]; ok {
				bar.Increment()
			}
		case pipeline.EventComplete:
			b.finish()
		}
	}
	if b.progress != nil {
		b.finish()
	}
}

func (b *stageBoard) start(total int64) {
	b.progress = mpb.New(mpb.WithOutput(b.w), mpb.WithWidth(48))
	b.bars = make(map[string]*mpb.Bar, len(pipeline.Stages))
	for _, name := range pipeline.Stages {
		b.bars[name] = b.progress.AddBar(total,
			mpb.PrependDecorators(
				decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DSyncSpaceR}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WC{W: 5}),
				decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 12}),
			),
		)
	}
}

// finish completes every bar at its current count. Reused outputs and
// failures leave stages short of the page total.
func (b *stageBoard) finish() {
	if b.progress == nil {
		return
	}
	for _, bar := range b.bars {
		bar.SetTotal(-1, true)
	}
	b.progress.Wait()
	b.progress = nil
}

// spinnerProgress names the page being processed.
type spinnerProgress struct {
	w io.Writer
}

func (p *spinnerProgress) Consume(events <-chan pipeline.Event) {
	s := NewSpinner(p.w, "starting")
	s.Start()
	defer s.Stop()
	for e := range events {
		if e.Type == pipeline.EventPageProcessing {
			s.UpdateMessage(fmt.Sprintf("processing %s (%d/%d)", e.Page, e.Index, e.Total))
		}
	}
}

// Spinner wraps a spinner instance for indeterminate progress display.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(w io.Writer, message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	s.spinner.Start()
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	s.spinner.Stop()
}

// UpdateMessage updates the spinner's message.
func (s *Spinner) UpdateMessage(message string) {
	s.spinner.Lock()
	s.spinner.Suffix = " " + message
	s.spinner.Unlock()
}
