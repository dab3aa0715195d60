package ui

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// ProgressBar tracks files finished out of a known total.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a progress bar on the error stream.
func (u *UI) NewProgressBar(total int, description string) *ProgressBar {
	w := u.errOut
	bar := progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionEnableColorCodes(!u.noColor),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Increment marks one more file as done. Safe for concurrent use.
func (p *ProgressBar) Increment() {
	_ = p.bar.Add(1)
}

// Finish completes the bar.
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

// Abort ends the line with the bar left at its current count.
func (p *ProgressBar) Abort() {
	_ = p.bar.Exit()
}

// Spinner shows indeterminate progress while waiting on the server.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a spinner on the error stream. It stays silent when the
// stream is not a terminal.
func (u *UI) NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(u.errOut))
	s.Suffix = " " + message
	if !u.noColor {
		_ = s.Color("cyan")
	}
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
