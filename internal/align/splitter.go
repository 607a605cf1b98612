package align

import (
	"strings"
	"unicode"
)

// Splitter divides flattened text into sentences at terminal punctuation
// followed by whitespace, with best-effort suppression of false boundaries
// after abbreviations ("Mr.", "U.S.") and single-letter initials. Known
// failure modes (decimals, ellipses, unlisted abbreviations) are accepted;
// only the index bookkeeping downstream is load-bearing.
type Splitter struct{}

func NewSplitter() *Splitter {
	return &Splitter{}
}

// Split returns the sentences of text. Fragments are not trimmed, so the
// cumulative length arithmetic in SplitAndRecord stays aligned with the
// flattened text; whitespace-only fragments are dropped.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var sentences []string

	start := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) {
			continue
		}
		switch runes[i-1] {
		case '.', '?', '!':
		default:
			continue
		}
		if suppressBoundary(runes, i) {
			continue
		}

		frag := string(runes[start:i])
		if strings.TrimSpace(frag) != "" {
			sentences = append(sentences, frag)
		}
		start = i + 1
	}

	if start < len(runes) {
		frag := string(runes[start:])
		if strings.TrimSpace(frag) != "" {
			sentences = append(sentences, frag)
		}
	}

	return sentences
}

// SplitAndRecord splits text and records the cumulative end offset of each
// sentence, counted in runes. Offsets include one rune for the separating
// space, and the first element is always 0.
func (s *Splitter) SplitAndRecord(text string) ([]string, []int) {
	sentences := s.Split(text)

	indexes := make([]int, 1, len(sentences)+1)
	current := 0
	for _, sen := range sentences {
		current += len([]rune(sen)) + 1 // +1 for the separating space
		indexes = append(indexes, current)
	}

	return sentences, indexes
}

// suppressBoundary reports whether the whitespace at position i should not
// end a sentence because the preceding text looks like an abbreviation.
func suppressBoundary(runes []rune, i int) bool {
	// dotted acronym such as "U.S.": word, dot, word, punct
	if i >= 4 && isWordRune(runes[i-4]) && runes[i-3] == '.' && isWordRune(runes[i-2]) {
		return true
	}
	// two-letter title such as "Mr."
	if i >= 3 && runes[i-1] == '.' && unicode.IsUpper(runes[i-3]) && unicode.IsLower(runes[i-2]) {
		return true
	}
	// single-letter initial such as "J. Smith"
	if i >= 2 && runes[i-1] == '.' && unicode.IsLetter(runes[i-2]) {
		if i == 2 || !isWordRune(runes[i-3]) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
