package subtitle

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timingPattern = regexp.MustCompile(
	`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3}) --> (\d{2}):(\d{2}):(\d{2})[,.](\d{3})(.*)$`)

// Parse parses SRT text into subtitle entries.
func Parse(text string) ([]Entry, error) {
	// Normalize line endings and strip a UTF-8 BOM if present.
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var entries []Entry

	current := Entry{}
	state := "index" // possible values: "index", "timing", "text"
	var textLines []string

	flush := func() {
		if len(textLines) > 0 {
			current.Content = strings.Join(textLines, "\n")
			entries = append(entries, current)
		}
		current = Entry{}
		textLines = nil
	}

	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				return nil, &ParseError{Line: lineNo + 1, Message: fmt.Sprintf("expected entry index, got %q", line)}
			}
			current.Index = index
			state = "timing"

		case "timing":
			if line == "" {
				continue
			}
			start, end, opaque, err := parseTiming(line)
			if err != nil {
				return nil, &ParseError{Line: lineNo + 1, Message: err.Error(), Cause: err}
			}
			current.Start = start
			current.End = end
			current.Opaque = opaque
			state = "text"
			textLines = nil

		case "text":
			if line == "" {
				flush()
				state = "index"
			} else {
				textLines = append(textLines, line)
			}
		}
	}

	// handle last entry without a trailing blank line
	if state == "text" {
		flush()
	} else if state == "timing" {
		return nil, &ParseError{Line: 0, Message: fmt.Sprintf("entry %d has no timing line", current.Index)}
	}

	return entries, nil
}

// Compose serializes entries back to SRT text.
func Compose(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%d\n", e.Index)
		fmt.Fprintf(&sb, "%s --> %s%s\n", FormatTimestamp(e.Start), FormatTimestamp(e.End), e.Opaque)
		fmt.Fprintf(&sb, "%s\n\n", e.Content)
	}
	return sb.String()
}

// ReadFile reads and parses a subtitle file, converting from the given
// encoding when it is not UTF-8.
func ReadFile(path string, encoding string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Message: "failed to read file", Cause: err}
	}

	text, err := decodeBytes(raw, encoding)
	if err != nil {
		return nil, &ParseError{Path: path, Message: fmt.Sprintf("failed to decode with encoding %s", encoding), Cause: err}
	}

	entries, err := Parse(text)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return entries, nil
}

// WriteFile composes entries and writes them as UTF-8.
func WriteFile(path string, entries []Entry) error {
	if err := os.WriteFile(path, []byte(Compose(entries)), 0644); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	return nil
}

func parseTiming(line string) (time.Duration, time.Duration, string, error) {
	matches := timingPattern.FindStringSubmatch(line)
	if matches == nil {
		return 0, 0, "", fmt.Errorf("invalid timing line: %q", line)
	}

	parse := func(h, m, s, ms string) time.Duration {
		hours, _ := strconv.Atoi(h)
		minutes, _ := strconv.Atoi(m)
		seconds, _ := strconv.Atoi(s)
		millis, _ := strconv.Atoi(ms)

		return time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(seconds)*time.Second +
			time.Duration(millis)*time.Millisecond
	}

	start := parse(matches[1], matches[2], matches[3], matches[4])
	end := parse(matches[5], matches[6], matches[7], matches[8])
	return start, end, strings.TrimRight(matches[9], " \t"), nil
}

// FormatTimestamp formats a duration in SRT timestamp form (HH:MM:SS,mmm).
func FormatTimestamp(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
