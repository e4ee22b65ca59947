package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Mode controls how description and name reach the text and heading targets.
type Mode int

const (
	// ModeText escapes markup so it shows up as literal text.
	ModeText Mode = iota

	// ModeMarkup writes markup verbatim. Only for trusted room servers.
	ModeMarkup

	// ModeSanitized keeps formatting markup and drops scripts, handlers and
	// other active content.
	ModeSanitized
)

// String returns the mode name accepted by ParseMode.
func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeMarkup:
		return "markup"
	case ModeSanitized:
		return "sanitized"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name (text, markup, sanitized) to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return ModeText, nil
	case "markup", "html":
		return ModeMarkup, nil
	case "sanitized", "sanitize":
		return ModeSanitized, nil
	default:
		return ModeText, fmt.Errorf("unknown render mode %q", name)
	}
}

var sanitizePolicy = bluemonday.UGCPolicy()

// apply converts a field value for the given mode.
func (m Mode) apply(value string) string {
	switch m {
	case ModeMarkup:
		return value
	case ModeSanitized:
		return sanitizePolicy.Sanitize(value)
	default:
		return html.EscapeString(value)
	}
}
