// Package room defines the tour's room record and the fixed catalog of rooms
// served at /room/{index}.
package room

import (
	"errors"
	"fmt"
)

// Index bounds of the default tour. Navigation wraps within [MinIndex, MaxIndex].
const (
	MinIndex = 1
	MaxIndex = 8
)

var (
	// ErrInvalidRecord indicates a record is missing a required field.
	ErrInvalidRecord = errors.New("invalid room record")

	// ErrNotFound indicates the requested index is outside the catalog.
	ErrNotFound = errors.New("room not found")
)

// Record is the payload returned for a single room.
type Record struct {
	// Image is the URL of the room's picture
	Image string `json:"image" yaml:"image"`

	// Description is the body text, possibly containing markup
	Description string `json:"description" yaml:"description"`

	// Name is the room heading
	Name string `json:"name" yaml:"name"`
}

// Tour describes the size of a served catalog, as returned by GET /rooms.
type Tour struct {
	Count int `json:"count"`
	Min   int `json:"min"`
	Max   int `json:"max"`
}

// NewTour returns the tour description for a catalog of count rooms.
func NewTour(count int) Tour {
	return Tour{Count: count, Min: MinIndex, Max: MinIndex + count - 1}
}

// Validate checks that the fields needed for rendering are present.
// An empty description is allowed.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if r.Image == "" {
		return fmt.Errorf("%w: image is empty", ErrInvalidRecord)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidRecord)
	}
	return nil
}

// InRange reports whether index addresses a room of the default tour.
func InRange(index int) bool {
	return index >= MinIndex && index <= MaxIndex
}

// ImagePath returns the default static image path for a room index.
func ImagePath(index int) string {
	return fmt.Sprintf("/static/img/%d.jpg", index)
}
