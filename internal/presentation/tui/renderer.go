package tui

import (
	"strings"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// The style follows the terminal background.
func NewRenderer(width int) (func(string) (string, error), error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// EmbedMarkdown lays an embed out as markdown: the title as a heading and each
// field as a bold name followed by its value, in order.
func EmbedMarkdown(e domain.Embed) string {
	var b strings.Builder
	title := e.Title
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n")
	for _, f := range e.Fields {
		b.WriteString("\n**")
		b.WriteString(f.Name)
		b.WriteString("**\n\n")
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	return b.String()
}
