package render

import (
	"fmt"
	"html"

	"github.com/Sternrassler/room-tour/pkg/navigator"
	"github.com/Sternrassler/room-tour/pkg/room"
)

// Default render target ids.
const (
	DefaultImageID   = "main_image"
	DefaultTextID    = "text_body"
	DefaultHeadingID = "heading"
	DefaultStatusID  = "status"
)

// Targets names the elements a renderer writes into.
type Targets struct {
	Image   string
	Text    string
	Heading string
	Status  string
}

// DefaultTargets returns the ids used by the tour page.
func DefaultTargets() Targets {
	return Targets{
		Image:   DefaultImageID,
		Text:    DefaultTextID,
		Heading: DefaultHeadingID,
		Status:  DefaultStatusID,
	}
}

// IDs returns the target ids in render order.
func (t Targets) IDs() []string {
	return []string{t.Image, t.Text, t.Heading, t.Status}
}

// DocumentRenderer renders rooms into a Document.
type DocumentRenderer struct {
	doc     *Document
	targets Targets
	mode    Mode
}

var _ navigator.Renderer = (*DocumentRenderer)(nil)

// NewDocumentRenderer creates a renderer. Empty target ids fall back to the defaults.
func NewDocumentRenderer(doc *Document, targets Targets, mode Mode) *DocumentRenderer {
	defaults := DefaultTargets()
	if targets.Image == "" {
		targets.Image = defaults.Image
	}
	if targets.Text == "" {
		targets.Text = defaults.Text
	}
	if targets.Heading == "" {
		targets.Heading = defaults.Heading
	}
	if targets.Status == "" {
		targets.Status = defaults.Status
	}

	return &DocumentRenderer{doc: doc, targets: targets, mode: mode}
}

// RenderRoom sets the image source, text body and heading, and clears the status.
func (r *DocumentRenderer) RenderRoom(index int, record *room.Record) error {
	if record == nil {
		return fmt.Errorf("render room %d: %w", index, room.ErrInvalidRecord)
	}

	r.doc.SetSrc(r.targets.Image, record.Image)
	r.doc.SetInnerHTML(r.targets.Text, r.mode.apply(record.Description))
	r.doc.SetInnerHTML(r.targets.Heading, r.mode.apply(record.Name))
	r.doc.SetInnerHTML(r.targets.Status, "")
	return nil
}

// RenderError writes the failure to the status target. The room targets keep
// their previous content.
func (r *DocumentRenderer) RenderError(index int, err error) {
	msg := fmt.Sprintf("%s error loading room %d: %v", navigator.ErrorKind(err), index, err)
	r.doc.SetInnerHTML(r.targets.Status, html.EscapeString(msg))
}
