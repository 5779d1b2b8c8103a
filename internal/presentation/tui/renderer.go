package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// RenderFunc turns Markdown into terminal output.
type RenderFunc func(markdown string) (string, error)

// PlainRenderer returns the Markdown unchanged.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}

// NewRenderer returns a glamour renderer that detects a light or dark
// background. It falls back to plain text when glamour cannot be set up.
func NewRenderer() RenderFunc {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		opts = append(opts, glamour.WithWordWrap(w-4))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return PlainRenderer
	}
	return r.Render
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// RendererFor picks glamour for terminals and plain output otherwise.
func RendererFor(f *os.File) RenderFunc {
	if IsTerminal(f) {
		return NewRenderer()
	}
	return PlainRenderer
}
