// Package render writes room records into render targets: elements of an
// in-memory Document, or a text view on a terminal.
package render

import (
	"sort"
	"sync"
)

// Element is a render target addressed by id.
type Element struct {
	ID        string
	Src       string
	InnerHTML string
}

// Document is a concurrency-safe set of elements keyed by id.
type Document struct {
	mu       sync.RWMutex
	elements map[string]*Element
}

// NewDocument creates a document holding empty elements for ids.
func NewDocument(ids ...string) *Document {
	d := &Document{elements: make(map[string]*Element, len(ids))}
	for _, id := range ids {
		d.elements[id] = &Element{ID: id}
	}
	return d
}

// Element returns a copy of the element with the given id.
func (d *Document) Element(id string) (Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	el, ok := d.elements[id]
	if !ok {
		return Element{}, false
	}
	return *el, true
}

// SetSrc sets the element's source, creating the element if needed.
func (d *Document) SetSrc(id, src string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.element(id).Src = src
}

// SetInnerHTML sets the element's markup, creating the element if needed.
func (d *Document) SetInnerHTML(id, markup string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.element(id).InnerHTML = markup
}

// IDs returns the element ids in sorted order.
func (d *Document) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.elements))
	for id := range d.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// element must be called with mu held.
func (d *Document) element(id string) *Element {
	el, ok := d.elements[id]
	if !ok {
		el = &Element{ID: id}
		d.elements[id] = el
	}
	return el
}
