package subtitle

import (
	"fmt"
	"time"
)

// Entry represents a single timed subtitle block.
type Entry struct {
	Index   int           // subtitle index
	Start   time.Duration // start time
	End     time.Duration // end time
	Content string        // subtitle text
	Opaque  string        // proprietary data after the timing line, passed through untouched
}

// WithContent returns a copy of the entry carrying new text.
// Index, timing and opaque data are preserved.
func (e Entry) WithContent(content string) Entry {
	e.Content = content
	return e
}

// ParseError indicates a malformed or undecodable subtitle file.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse %s: line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse: line %d: %s", e.Line, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
