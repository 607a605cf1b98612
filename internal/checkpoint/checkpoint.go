// Package checkpoint persists translation progress so interrupted runs
// can resume without redoing completed work. All I/O failures here are
// logged and swallowed: losing a checkpoint only costs recomputation,
// it must never fail a translation.
package checkpoint

import (
	"fmt"
	"time"

	"github.com/tboy1337/SubtranSlate/internal/subtitle"
)

// Status tracks how far a single file's translation has progressed.
type Status string

const (
	StatusParsingComplete     Status = "parsing_complete"
	StatusTranslating         Status = "translating"
	StatusTranslationComplete Status = "translation_complete"
	StatusComplete            Status = "complete"
)

// Entry is the serialized form of a subtitle entry. Timestamps are
// stored as canonical duration strings so the file stays readable and
// round-trips exactly.
type Entry struct {
	Index   int    `json:"index"`
	Start   string `json:"start_time"`
	End     string `json:"end_time"`
	Content string `json:"content"`
	Opaque  string `json:"position,omitempty"`
}

// Checkpoint is the per-file progress record, written next to the
// output file.
//
// PartialTranslation holds the raw translated text accumulated so far,
// complete batches only. ParsedSubtitles is populated once parsing
// succeeds so a resumed run can skip re-reading the source file.
type Checkpoint struct {
	Status             Status  `json:"status"`
	InputFile          string  `json:"input_file,omitempty"`
	OutputFile         string  `json:"output_file,omitempty"`
	SrcLang            string  `json:"src_lang,omitempty"`
	TargetLang         string  `json:"target_lang,omitempty"`
	Mode               string  `json:"mode,omitempty"`
	Both               bool    `json:"both,omitempty"`
	Progress           float64 `json:"progress"`
	CurrentIndex       int     `json:"current_index,omitempty"`
	TotalItems         int     `json:"total_items,omitempty"`
	ParsedSubtitles    []Entry `json:"parsed_subtitles,omitempty"`
	PartialTranslation string  `json:"partial_translation,omitempty"`
}

// EncodeEntries converts parsed subtitle entries to their serialized
// checkpoint form.
func EncodeEntries(entries []subtitle.Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{
			Index:   e.Index,
			Start:   e.Start.String(),
			End:     e.End.String(),
			Content: e.Content,
			Opaque:  e.Opaque,
		}
	}
	return out
}

// DecodeEntries reconstructs subtitle entries from a checkpoint. A
// malformed timestamp invalidates the whole checkpoint so the caller
// falls back to reparsing the source file.
func DecodeEntries(entries []Entry) ([]subtitle.Entry, error) {
	out := make([]subtitle.Entry, len(entries))
	for i, e := range entries {
		start, err := time.ParseDuration(e.Start)
		if err != nil {
			return nil, fmt.Errorf("entry %d: bad start time %q: %w", e.Index, e.Start, err)
		}
		end, err := time.ParseDuration(e.End)
		if err != nil {
			return nil, fmt.Errorf("entry %d: bad end time %q: %w", e.Index, e.End, err)
		}
		out[i] = subtitle.Entry{
			Index:   e.Index,
			Start:   start,
			End:     end,
			Content: e.Content,
			Opaque:  e.Opaque,
		}
	}
	return out, nil
}
