package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// strips spaces, uppercase first letters, remove trailing period
func CleanupString(s string) string {
	s = strings.TrimSpace(s)
	s = cases.Title(language.Spanish).String(s)
	s = strings.TrimSuffix(s, ".")
	return s
}

// NormalizeSearch folds a keyword for client-side search: trim, lower
// case, strip diacritics. "Camión" and "camion" compare equal.
// The transformer chain is stateful, so it is built per call.
func NormalizeSearch(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		return s
	}
	return folded
}
