package geodict

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lower lowercases s with full Unicode case mapping.
//
// A cases.Caser keeps state between calls and must not be shared between
// goroutines, so one is created per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// NormalizeCase lowercases text, collapses every run of Unicode whitespace
// to a single ASCII space and trims both ends.
//
//	NormalizeCase("  San   Francisco\t") == "san francisco"
func NormalizeCase(text string) string {
	if text == "" {
		return ""
	}
	// strings.Fields does not split on the U+001C-U+001F separators.
	return strings.Join(strings.Fields(lower(text)), " ")
}

// Compact lowercases text and keeps only ASCII letters and digits.
// Whitespace, punctuation and non-Latin scripts are all removed.
//
//	Compact("Hong Kong") == "hongkong"
//	Compact("纽约") == ""
func Compact(text string) string {
	if text == "" {
		return ""
	}
	l := lower(text)
	var b strings.Builder
	b.Grow(len(l))
	for i := 0; i < len(l); i++ {
		ch := l[i]
		if ('a' <= ch && ch <= 'z') || ('0' <= ch && ch <= '9') {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// isLatin reports whether every letter in s belongs to the Latin script.
// Compaction is only meaningful for such strings; anything else is kept
// verbatim when used as an identity alias.
func isLatin(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

// toUpper uppercases a code such as a country code.
func toUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
