package detect

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
)

// DefaultThreshold is the similarity above which two names are treated as
// the same tool.
const DefaultThreshold = 0.85

// Key folds case and collapses whitespace so "ChatGPT" and " chatgpt " compare equal.
func Key(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// Similarity returns 1 - editDistance(a, b) / max(len(a), len(b)) over the
// folded names, measured in runes. It is symmetric and lies in [0, 1]; two
// empty names are identical.
func Similarity(a, b string) float64 {
	return similarity(Key(a), Key(b))
}

// similarity expects keys that are already folded.
func similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.Distance(a, b, nil)
	return 1 - float64(dist)/float64(longest)
}
