// Package textutil provides the text comparison primitives shared by the
// equivalence reconciler and the fuzzy ingredient search: case and
// diacritic folding, similarity scoring, and slug candidates.
package textutil

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform decomposes to NFD, strips combining marks, and
// recomposes, so "σμύρνη" and "σμυρνη" fold to the same string.
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold normalizes text for insensitive comparison: lowercase, diacritics
// stripped, punctuation dropped, whitespace collapsed.
func Fold(s string) string {
	stripped, _, err := transform.String(foldTransform, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the input.
		stripped = s
	}
	var b strings.Builder
	b.Grow(len(stripped))
	lastSpace := true
	for _, r := range strings.ToLower(stripped) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Similarity scores two strings in [0, 1] after folding both sides.
func Similarity(a, b string) float64 {
	fa, fb := Fold(a), Fold(b)
	if fa == "" || fb == "" {
		return 0
	}
	if fa == fb {
		return 1
	}
	return levenshtein.Match(fa, fb, nil)
}

// SuggestSlug proposes a slug candidate for a label: the folded form with
// spaces replaced by hyphens, suffixed with the language code when one is
// given. Proper transliteration tables live outside this repository; this
// is only a starting point shown to the operator.
func SuggestSlug(label, language string) string {
	slug := strings.ReplaceAll(Fold(label), " ", "-")
	if slug == "" {
		return ""
	}
	if language != "" && language != "en" {
		return slug + "-" + strings.ToLower(language)
	}
	return slug
}
