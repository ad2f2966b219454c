// Package views derives the displayed subset and order of lead and member
// lists. Functions never modify their input slices.
package views

import (
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s and strips combining marks so "Müller" matches "muller".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func matches(needle string, haystack ...string) bool {
	if needle == "" {
		return true
	}
	for _, h := range haystack {
		if strings.Contains(fold(h), needle) {
			return true
		}
	}
	return false
}

// newCollator returns a German collator. Collators keep internal buffers, so
// each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.German, collate.IgnoreCase)
}
