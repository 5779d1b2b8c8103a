package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the foreman banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __                                        ", "#34d399"},
		{"  / _| ___  _ __ ___ _ __ ___   __ _ _ __    ", "#2dd4bf"},
		{" | |_ / _ \\| '__/ _ \\ '_ ` _ \\ / _` | '_ \\   ", "#22d3ee"},
		{" |  _| (_) | | |  __/ | | | | | (_| | | | |  ", "#38bdf8"},
		{" |_|  \\___/|_|  \\___|_| |_| |_|\\__,_|_| |_|  ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  research & writing, supervised").Faint())
	fmt.Fprintln(w)
}
