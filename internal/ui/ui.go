// Package ui provides terminal output for the scantailor-cli command.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/scantailor/scantailor-cli/internal/pipeline"
)

// UI prints user facing messages. Logs go elsewhere.
type UI struct {
	out     io.Writer
	errOut  io.Writer
	noColor bool
}

// New returns a UI writing messages to out and errors to errOut.
func New(out, errOut io.Writer, noColor bool) *UI {
	if noColor {
		color.NoColor = true
	}
	return &UI{out: out, errOut: errOut, noColor: noColor}
}

func (ui *UI) print(w io.Writer, attr color.Attribute, symbol, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if ui.noColor {
		fmt.Fprintf(w, "%s %s\n", symbol, msg)
		return
	}
	color.New(attr).Fprintf(w, "%s %s\n", symbol, msg)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.print(ui.out, color.FgGreen, "✓", format, args...)
}

// Error prints an error message.
func (ui *UI) Error(format string, args ...interface{}) {
	ui.print(ui.errOut, color.FgRed, "✗", format, args...)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.print(ui.out, color.FgYellow, "⚠", format, args...)
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	ui.print(ui.out, color.FgCyan, "ℹ", format, args...)
}

// Step prints a step message.
func (ui *UI) Step(format string, args ...interface{}) {
	ui.print(ui.out, color.FgBlue, "→", format, args...)
}

// Summary prints the outcome of a run.
func (ui *UI) Summary(s pipeline.Summary) {
	ui.Step("Run %s finished in %v", s.RunID, s.Duration.Round(time.Millisecond))
	ui.Info("%d pages: %d processed, %d reused", s.Pages, s.Processed, s.Reused)
	if s.Failed > 0 {
		ui.Error("%d pages failed", s.Failed)
	}
	if s.Cancelled > 0 {
		ui.Warning("%d pages cancelled", s.Cancelled)
	}
	if s.Failed == 0 && s.Cancelled == 0 {
		ui.Success("All pages written")
	}
}
