package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// SenderName extracts the display part of a "Name <email@domain>" header
// value, falling back to the raw value for bare addresses.
func SenderName(from string) string {
	if from == "" {
		return ""
	}
	if i := strings.Index(from, "<"); i >= 0 {
		if name := strings.TrimSpace(from[:i]); name != "" {
			return strings.Trim(name, `"`)
		}
		return strings.TrimSpace(strings.Trim(from[i:], "<>"))
	}
	return strings.TrimSpace(from)
}

// Excerpt truncates a single line of text to the given display width,
// appending an ellipsis when something was cut. Newlines become spaces
// first so multi-line bodies stay on one line.
func Excerpt(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}

// FitWidth truncates and right-pads to an exact display width, for fixed
// columns in list and header lines.
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = runewidth.Truncate(s, width, "...")
	if pad := width - runewidth.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
