// Package textutil holds the small text helpers shared by source resolution,
// gate policy and question generation.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Editorial control markers. Order matters: comments first so a marker
	// inside a comment disappears with it.
	markerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)<!--.*?-->`),
		regexp.MustCompile(`\[SOURCE:[^\]]*\]`),
		regexp.MustCompile(`\[\[[^\]]*\]\]`),
		regexp.MustCompile(`\{\{[^}]*\}\}`),
	}
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize returns s in NFC form with runs of whitespace collapsed to a
// single space and surrounding space trimmed.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// WordCount counts whitespace-separated tokens that contain at least one
// letter or digit. Punctuation-only tokens ("--", "...") are not words.
func WordCount(s string) int {
	n := 0
	for _, tok := range strings.Fields(norm.NFC.String(s)) {
		if hasAlnum(tok) {
			n++
		}
	}
	return n
}

// StripMarkers removes editorial control markers and returns the trimmed,
// whitespace-normalised remainder.
func StripMarkers(s string) string {
	for _, p := range markerPatterns {
		s = p.ReplaceAllString(s, " ")
	}
	return Normalize(s)
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// Truncate shortens s to at most max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

func hasAlnum(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
