// Package match implements the release identification engine: text
// normalization, identifier extraction, fuzzy token matching, the weighted
// multi-signal scorer, and the candidate resolver. Everything here is pure
// computation over already-fetched data; collaborators own all I/O.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText canonicalizes free text for comparison: diacritics folded,
// lower-cased, everything outside [a-z0-9] stripped. Empty input yields "".
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = foldMarks(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeDigits strips everything except decimal digits. Used for barcode
// comparison, where OCR output tends to gain spacing and separators.
func NormalizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// foldMarks decomposes the string and removes combining marks, so that
// "Björk" and "Bjork" normalize identically. Falls back to the input when
// the transform fails.
func foldMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
