package strutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// FoldKey reduces s to a comparison key that ignores case and any
// non-alphanumeric separators, so "Linear B", "linear-b" and "LinearB"
// compare equal.
func FoldKey(s string) string {
	// A Caser is stateful, so each call gets its own.
	folded := cases.Fold().String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, folded)
}
