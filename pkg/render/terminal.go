package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Sternrassler/room-tour/pkg/navigator"
	"github.com/Sternrassler/room-tour/pkg/room"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

// TerminalRenderer prints rooms as styled text.
type TerminalRenderer struct {
	mu    sync.Mutex
	w     io.Writer
	total int

	heading lipgloss.Style
	meta    lipgloss.Style
	body    lipgloss.Style
	failure lipgloss.Style
}

var _ navigator.Renderer = (*TerminalRenderer)(nil)

// NewTerminalRenderer creates a renderer writing to w. total is shown as the
// room count; width wraps the description (0 = no wrapping).
func NewTerminalRenderer(w io.Writer, total, width int) *TerminalRenderer {
	r := lipgloss.NewRenderer(w)

	body := r.NewStyle()
	if width > 0 {
		body = body.Width(width)
	}

	return &TerminalRenderer{
		w:       w,
		total:   total,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		meta:    r.NewStyle().Faint(true),
		body:    body,
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935")),
	}
}

// RenderRoom prints the heading, image URL and description as plain text.
func (t *TerminalRenderer) RenderRoom(index int, record *room.Record) error {
	if record == nil {
		return fmt.Errorf("render room %d: %w", index, room.ErrInvalidRecord)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	b.WriteString(t.heading.Render(fmt.Sprintf("[%d/%d] %s", index, t.total, PlainText(record.Name))))
	b.WriteString("\n")
	b.WriteString(t.meta.Render(record.Image))
	b.WriteString("\n\n")
	if desc := PlainText(record.Description); desc != "" {
		b.WriteString(t.body.Render(desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(t.w, b.String())
	return err
}

// RenderError prints the failure in place of a room.
func (t *TerminalRenderer) RenderError(index int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := fmt.Sprintf("%s error loading room %d: %v", navigator.ErrorKind(err), index, err)
	fmt.Fprintln(t.w, t.failure.Render(line))
}

// blockTags end a line of text.
var blockTags = map[string]bool{
	"p": true, "br": true, "div": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true,
	"tr": true, "blockquote": true,
}

// PlainText drops tags from markup, decodes entities and collapses
// whitespace. Block elements become line breaks; inline tags add no
// separator, so only whitespace in the text itself splits words.
func PlainText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))

	var (
		lines   []string
		current strings.Builder
		skip    int
	)
	flush := func() {
		if line := strings.Join(strings.Fields(current.String()), " "); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			flush()
			return strings.Join(lines, "\n")
		case html.TextToken:
			if skip == 0 {
				current.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
				continue
			}
			if blockTags[tag] {
				flush()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
				continue
			}
			if blockTags[tag] {
				flush()
			}
		}
	}
}
