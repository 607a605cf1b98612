package subtitle

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage guesses the dominant language of the entries by majority
// vote over per-entry detection.
func DetectLanguage(entries []Entry) language.Tag {
	if len(entries) == 0 {
		return language.Und
	}

	votes := make(map[string]int)
	for _, e := range entries {
		iso := whatlanggo.DetectLang(e.Content).Iso6391()
		if iso == "" {
			continue
		}
		votes[iso]++
	}

	var topLang string
	var topCount int
	for lang, count := range votes {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}

	if topLang == "" {
		return language.Und
	}
	return language.Make(topLang)
}

// IsSpaceDelimited reports whether a language code uses spaces between
// words. Languages written without word spaces get proportional realignment
// cuts at raw rune offsets instead of space boundaries.
func IsSpaceDelimited(langCode string) bool {
	base, _, _ := strings.Cut(langCode, "-")
	switch strings.ToLower(base) {
	case "zh", "ja", "th", "km", "lo", "my":
		return false
	}
	return true
}

// IsChinese reports whether the language code selects the Chinese
// word-segmentation realignment policy.
func IsChinese(langCode string) bool {
	base, _, _ := strings.Cut(langCode, "-")
	return strings.EqualFold(base, "zh")
}
