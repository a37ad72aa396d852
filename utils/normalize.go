package utils

import (
	"strings"
	"unicode"
)

// NormalizeIdent folds an identifier for loose name matching: case is
// folded and separators (underscore, dash, space) are dropped, so that
// "first_name", "FirstName" and "firstName" all compare equal.
func NormalizeIdent(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// SameIdent reports whether a and b name the same thing after
// normalisation.
func SameIdent(a, b string) bool {
	return a == b || NormalizeIdent(a) == NormalizeIdent(b)
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || unicode.IsSpace(r)
}
