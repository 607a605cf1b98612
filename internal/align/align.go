package align

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tboy1337/SubtranSlate/internal/subtitle"
	"github.com/tboy1337/SubtranSlate/pkg/log"
)

// Cut records that a sentence overlaps the dialogue entry with the given
// 1-based number, and where within the sentence the dialogue boundary falls.
// Offsets are rune counts.
type Cut struct {
	Dialogue int
	Offset   int
}

// MassList holds one bucket per sentence: the ordered cuts mapping that
// sentence onto the dialogue entries it spans.
type MassList [][]Cut

// Flatten joins the entry texts into one plain-text string, normalizing
// embedded line breaks to spaces, and records the cumulative end offset of
// each entry (in runes, including the separating space).
//
// The trailing whitespace trim does not adjust already-recorded offsets;
// downstream index walks tolerate the final text length being at most the
// last recorded offset.
func Flatten(entries []subtitle.Entry) (string, []int) {
	indexes := make([]int, 0, len(entries))
	current := 0
	var sb strings.Builder

	for _, e := range entries {
		content := strings.ReplaceAll(e.Content, "\n", " ") + " "
		current += len([]rune(content))
		indexes = append(indexes, current)
		sb.WriteString(content)
	}

	return strings.TrimRightFunc(sb.String(), unicode.IsSpace), indexes
}

// ComputeMassList walks the dialogue and sentence offset arrays with two
// ascending pointers and produces the per-sentence dialogue buckets.
func ComputeMassList(dialogIdx, senIdx []int) MassList {
	i := 0
	j := 1
	var mass MassList
	var bucket []Cut

	for i < len(dialogIdx) {
		if j < len(senIdx) && dialogIdx[i] > senIdx[j] {
			mass = append(mass, bucket)
			bucket = nil
			j++
			continue
		}
		// j only advances while j < len(senIdx), so j-1 stays in range.
		bucket = append(bucket, Cut{Dialogue: i + 1, Offset: dialogIdx[i] - senIdx[j-1]})
		i++
	}

	if len(bucket) > 0 {
		mass = append(mass, bucket)
	}

	return mass
}

// Realigner re-cuts translated sentences onto the original dialogue slots.
type Realigner struct {
	SpaceDelimited bool
	Chinese        bool
	Scope          int       // rune window around a candidate cut for segmentation
	Segmenter      Segmenter // used for the Chinese policy; nil falls back to raw cuts
	logger         *log.Logger
}

// NewRealigner builds a realigner for the given target-language policy.
func NewRealigner(spaceDelimited, chinese bool, seg Segmenter, logger *log.Logger) *Realigner {
	if logger == nil {
		logger = log.Default()
	}
	return &Realigner{
		SpaceDelimited: spaceDelimited,
		Chinese:        chinese,
		Scope:          6,
		Segmenter:      seg,
		logger:         logger,
	}
}

// Realign produces one output string per original dialogue entry. For every
// sentence the concatenation of the fragments it contributes, in dialogue
// order, is exactly the translated sentence.
func (r *Realigner) Realign(translated []string, mass MassList) []string {
	if len(translated) == 0 || len(mass) == 0 {
		return nil
	}

	last := mass[len(mass)-1]
	if len(last) == 0 {
		r.logger.Warn("mass list has empty trailing bucket")
		return nil
	}
	dialogs := make([]string, last[len(last)-1].Dialogue)

	for sIdx, sentence := range translated {
		if sIdx >= len(mass) {
			r.logger.Warn("sentence %d has no dialogue mapping (%d buckets)", sIdx, len(mass))
			break
		}
		bucket := mass[sIdx]
		if len(bucket) == 0 {
			r.logger.Warn("empty dialogue bucket for sentence %d", sIdx)
			continue
		}

		if len(bucket) == 1 {
			d := bucket[0].Dialogue - 1
			if d >= 0 && d < len(dialogs) {
				dialogs[d] += sentence
			}
			continue
		}

		runes := []rune(sentence)
		originalSpan := bucket[len(bucket)-1].Offset
		translatedLen := len(runes)

		lastCut := 0
		for _, cut := range bucket[:len(bucket)-1] {
			candidate := 0
			if originalSpan > 0 {
				candidate = translatedLen * cut.Offset / originalSpan
			}

			switch {
			case r.Chinese:
				candidate = r.nearestSegmentCut(runes, candidate, lastCut)
			case r.SpaceDelimited:
				candidate = nearestSpace(runes, candidate)
			}

			// keep cuts monotonic and in range so reconstruction stays exact
			if candidate < lastCut {
				candidate = lastCut
			}
			if candidate > translatedLen {
				candidate = translatedLen
			}

			d := cut.Dialogue - 1
			if d >= 0 && d < len(dialogs) {
				dialogs[d] += string(runes[lastCut:candidate])
			}
			lastCut = candidate
		}

		d := bucket[len(bucket)-1].Dialogue - 1
		if d >= 0 && d < len(dialogs) {
			dialogs[d] += string(runes[lastCut:])
		}
	}

	return dialogs
}

// nearestSpace snaps a candidate cut to the closer of the spaces on either
// side of it. If only one side has a space that side wins; with none the raw
// candidate stands.
func nearestSpace(runes []rune, idx int) int {
	if len(runes) == 0 {
		return 0
	}
	if idx > len(runes) {
		idx = len(runes)
	}

	left := -1
	for i := idx - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			left = i
			break
		}
	}
	right := -1
	for i := idx; i < len(runes); i++ {
		if runes[i] == ' ' {
			right = i - idx
			break
		}
	}

	switch {
	case left == -1 && right == -1:
		return idx
	case left == -1:
		return right + idx + 1
	case right == -1:
		return left + 1
	case idx-left > right:
		return right + idx + 1
	default:
		return left + 1
	}
}

// nearestSegmentCut adjusts a candidate cut to a word boundary by segmenting
// a bounded window around it. A trailing full-width comma is pulled into the
// fragment so it is not stranded at the start of the next one. Segmentation
// failure falls back to the raw candidate.
func (r *Realigner) nearestSegmentCut(runes []rune, currentIdx, lastIdx int) int {
	if r.Segmenter == nil {
		return currentIdx
	}
	if len(runes) == 0 {
		return 0
	}

	scope := r.Scope
	if scope <= 0 {
		scope = 6
	}
	if lastIdx < currentIdx-scope {
		lastIdx = currentIdx - scope
	}
	if lastIdx < 0 {
		lastIdx = 0
	}
	next := currentIdx + scope
	if next > len(runes) {
		next = len(runes)
	}
	if lastIdx >= next {
		return currentIdx
	}

	words := r.Segmenter.Cut(string(runes[lastIdx:next]))
	if len(words) == 0 {
		return currentIdx
	}

	totalLen := 0
	wordIdx := 0
	target := currentIdx - lastIdx
	for _, word := range words {
		totalLen += len([]rune(word))
		wordIdx++
		if totalLen >= target {
			break
		}
	}

	if wordIdx < len(words) && words[wordIdx] == "，" {
		totalLen += len([]rune(words[wordIdx]))
	}

	return totalLen + lastIdx
}

// PadOrTruncate fixes up a translated list whose length drifted from the
// expected count (the backend dropped or merged lines). Logged, never fatal.
func PadOrTruncate(list []string, want int, logger *log.Logger) []string {
	if len(list) == want {
		return list
	}
	if logger == nil {
		logger = log.Default()
	}
	logger.Warn("translated line count mismatch: got %d, want %d", len(list), want)

	if len(list) < want {
		padded := make([]string, want)
		copy(padded, list)
		return padded
	}
	return list[:want]
}

// ApplyTranslations produces new entries carrying the translated dialogue
// texts. With keepBoth the original text follows on a second line, its own
// line breaks collapsed to spaces.
func ApplyTranslations(entries []subtitle.Entry, dialogs []string, keepBoth bool) ([]subtitle.Entry, error) {
	if len(entries) != len(dialogs) {
		return nil, fmt.Errorf("dialogue count mismatch: %d entries vs %d translations", len(entries), len(dialogs))
	}

	result := make([]subtitle.Entry, 0, len(entries))
	for i, e := range entries {
		content := dialogs[i]
		if keepBoth {
			content += "\n" + strings.ReplaceAll(e.Content, "\n", " ")
		}
		result = append(result, e.WithContent(content))
	}
	return result, nil
}
