package catalog

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 100

var (
	nonSlugRe   = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDashRe = regexp.MustCompile(`-+`)
)

// Slugify creates a URL-safe slug from a tool name: lowercase ASCII,
// diacritics folded, words joined by hyphens, at most 100 characters.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	s = foldDiacritics(s)
	s = strings.NewReplacer("&", " and ", "+", " plus ", "_", " ", ".", " ").Replace(s)
	s = strings.Join(strings.Fields(s), "-")
	s = nonSlugRe.ReplaceAllString(s, "")
	s = multiDashRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s
}

// foldDiacritics maps "é" to "e" by decomposing and dropping nonspacing marks.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// uniqueSlug returns base, or base-2, base-3, ... whichever is not taken.
func uniqueSlug(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}
