package ui

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/pipeline"
)

func TestUI_Summary(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(&out, &errOut, true)

	u.Summary(pipeline.Summary{RunID: "r1", Pages: 3, Processed: 1, Reused: 1, Failed: 1, Duration: time.Second})

	assert.Contains(t, out.String(), "→ Run r1 finished in 1s")
	assert.Contains(t, out.String(), "ℹ 3 pages: 1 processed, 1 reused")
	assert.Equal(t, "✗ 1 pages failed\n", errOut.String())
	assert.NotContains(t, out.String(), "All pages written")
}

func TestUI_SummaryAllWritten(t *testing.T) {
	var out bytes.Buffer
	New(&out, io.Discard, true).Summary(pipeline.Summary{Pages: 2, Processed: 2})

	assert.Contains(t, out.String(), "✓ All pages written")
}

func runEvents() <-chan pipeline.Event {
	page := domain.NewPageID(domain.NewImageID("a.png", 0), domain.SinglePage)
	events := []pipeline.Event{
		{Type: pipeline.EventStart, Total: 1},
		{Type: pipeline.EventPageProcessing, Page: page, Index: 1, Total: 1},
	}
	for _, stage := range pipeline.Stages {
		events = append(events, pipeline.Event{Type: pipeline.EventStageComplete, Page: page, Stage: stage, Index: 1, Total: 1})
	}
	events = append(events,
		pipeline.Event{Type: pipeline.EventPageComplete, Page: page, Index: 1, Total: 1},
		pipeline.Event{Type: pipeline.EventComplete, Index: 1, Total: 1},
	)
	ch := make(chan pipeline.Event, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return ch
}

func TestProgress_ConsumesUntilClosed(t *testing.T) {
	for _, style := range []string{ProgressBar, ProgressStages, ProgressSpinner, ProgressNone, "unknown"} {
		t.Run(style, func(t *testing.T) {
			done := make(chan struct{})
			go func() {
				NewProgress(style, io.Discard).Consume(runEvents())
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("progress display did not return")
			}
		})
	}
}

func TestPageBar_CountsPages(t *testing.T) {
	var buf bytes.Buffer
	p := &pageBar{w: &buf}
	p.Consume(runEvents())

	assert.Equal(t, 1.0, p.bar.State().CurrentPercent)
}
