// Package waypoint implements the marker-delimited folder index blocks:
// locating them in document text, rendering the bullet tree, and
// resolving the governing waypoint document for a folder.
package waypoint

import (
	"fmt"
	"strings"

	"github.com/starford/raido/internal/apperr"
)

// Markers holds the three recognized marker lines. A line matches a
// marker when it equals the marker string after trimming leading and
// trailing whitespace; matching is otherwise exact.
type Markers struct {
	Flag  string // placeholder requesting a waypoint, replaced on first rebuild
	Begin string // first line of a rendered block
	End   string // last line of a rendered block
}

// NewMarkers derives the marker lines from the free-text setting, e.g.
// "Waypoint" → "%% Waypoint %%", "%% Begin Waypoint %%", "%% End Waypoint %%".
func NewMarkers(text string) Markers {
	return Markers{
		Flag:  fmt.Sprintf("%%%% %s %%%%", text),
		Begin: fmt.Sprintf("%%%% Begin %s %%%%", text),
		End:   fmt.Sprintf("%%%% End %s %%%%", text),
	}
}

// DefaultMarkers returns the markers for the default setting.
func DefaultMarkers() Markers {
	return NewMarkers("Waypoint")
}

// Span is an inclusive line range to be replaced by a rebuilt block.
type Span struct {
	Start int
	End   int
}

// Locate scans lines top to bottom for the replacement span: the first
// flag or begin line starts it, the first subsequent end line closes it
// (inclusive). A start with no end spans the single start line. With no
// start marker at all Locate returns apperr.ErrNoWaypoint and the
// document must be left untouched.
func (m Markers) Locate(lines []string) (Span, error) {
	start := -1
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if start < 0 {
			if t == m.Flag || t == m.Begin {
				start = i
			}
			continue
		}
		if t == m.End {
			return Span{Start: start, End: i}, nil
		}
	}
	if start < 0 {
		return Span{}, apperr.ErrNoWaypoint
	}
	return Span{Start: start, End: start}, nil
}

// Present reports whether data contains a flag or begin line, i.e. the
// document carries an active waypoint or a request for one.
func (m Markers) Present(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		t := strings.TrimSpace(line)
		if t == m.Flag || t == m.Begin {
			return true
		}
	}
	return false
}

// Flagged reports whether data contains a bare flag line. A begin/end
// block does not count: the flag and the block are mutually exclusive
// states for a document.
func (m Markers) Flagged(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == m.Flag {
			return true
		}
	}
	return false
}
