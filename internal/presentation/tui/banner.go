package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the nodechain banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"                 _          _           _", "#818cf8"},
		{"  _ __   ___   __| | ___  ___| |__   __ _(_)_ __", "#a78bfa"},
		{" | '_ \\ / _ \\ / _` |/ _ \\/ __| '_ \\ / _` | | '_ \\", "#c084fc"},
		{" | | | | (_) | (_| |  __/ (__| | | | (_| | | | | |", "#e879f9"},
		{" |_| |_|\\___/ \\__,_|\\___|\\___|_| |_|\\__,_|_|_| |_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
