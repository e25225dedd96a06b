package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Scribe ASCII banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`  ___          _ _        `, "#818cf8"},
		{` / __| __ _ _ (_) |__  ___ `, "#a78bfa"},
		{` \__ \/ _| '_|| | '_ \/ -_)`, "#c084fc"},
		{` |___/\__|_|  |_|_.__/\___|`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
