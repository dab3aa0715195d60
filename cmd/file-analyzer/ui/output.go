// Package ui provides user interface components for the file-analyzer CLI.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// UI writes human-oriented output. Results go to out, status lines to errOut.
type UI struct {
	out     io.Writer
	errOut  io.Writer
	noColor bool
}

// New creates a UI writing to out and errOut.
func New(out, errOut io.Writer, noColor bool) *UI {
	return &UI{out: out, errOut: errOut, noColor: noColor}
}

// Out returns the writer for command results.
func (u *UI) Out() io.Writer { return u.out }

func (u *UI) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if u.noColor {
		c.DisableColor()
	}
	return c
}

// Success prints a successful result line.
func (u *UI) Success(format string, args ...any) {
	u.paint(color.FgGreen).Fprintf(u.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message to the error stream.
func (u *UI) Error(format string, args ...any) {
	u.paint(color.FgRed).Fprintf(u.errOut, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Failure prints a failed result line.
func (u *UI) Failure(format string, args ...any) {
	u.paint(color.FgRed).Fprintf(u.out, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message to the error stream.
func (u *UI) Warning(format string, args ...any) {
	u.paint(color.FgYellow).Fprintf(u.errOut, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an informational message to the error stream.
func (u *UI) Info(format string, args ...any) {
	u.paint(color.FgCyan).Fprintf(u.errOut, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Section prints an underlined header.
func (u *UI) Section(title string) {
	u.paint(color.FgCyan, color.Bold).Fprintf(u.out, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

// Indented prints text with every line shifted right by two spaces.
func (u *UI) Indented(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(u.out, "  %s\n", line)
	}
}
