package detect

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aitools-hub/catalog-cli/internal/normalize"
)

// DefaultDenylist holds navigation and UI labels that scrapers pick up as tool names.
var DefaultDenylist = []string{
	"login", "log in", "sign in", "sign up", "signup", "register", "logout", "log out",
	"home", "homepage", "view all", "see all", "show all", "show more", "load more",
	"read more", "learn more", "next", "previous", "prev", "back", "back to top", "go to top",
	"menu", "search", "privacy policy", "terms of service", "terms of use", "terms and conditions",
	"cookie policy", "contact", "contact us", "about", "about us", "faq", "help", "support",
	"blog", "newsletter", "subscribe", "submit a tool", "submit tool", "all tools", "all categories",
	"categories", "featured", "trending", "popular", "sort by", "filter", "filters",
	"get started", "try for free", "try it free", "visit website", "visit site", "open in new tab",
}

// DefaultGenericWords are single words too generic to name a tool.
var DefaultGenericWords = []string{
	"tool", "tools", "ai", "app", "apps", "website", "free", "freemium", "paid", "click", "here",
	"more", "link", "links", "download", "share", "copy", "details", "category", "product",
	"products", "feature", "features", "page", "button", "sponsored", "advertisement", "ad", "ads",
	"cookie", "cookies", "close", "open", "undefined", "null", "untitled", "unknown", "test", "n/a",
}

var (
	paginationRe = regexp.MustCompile(`^(?:page\s*\d+(?:\s*of\s*\d+)?|p\.?\s*\d+|\d+)$`)
	// Trailing arrows and separators on link labels such as "View All →".
	labelTrim = " .:;,!?|-–—>»›→←<«‹…*•"
)

// artifactReason returns why name looks like a scraped UI fragment rather
// than a tool, or "" when it looks like a real name.
func (d *Detector) artifactReason(name string) string {
	clean := normalize.Text(name)
	if clean == "" {
		return "empty name"
	}

	key := strings.Trim(Key(clean), labelTrim)
	if key == "" {
		return "name is only punctuation"
	}
	if d.denylist[key] {
		return fmt.Sprintf("denylisted label %q", key)
	}
	if paginationRe.MatchString(key) {
		return fmt.Sprintf("pagination label %q", key)
	}

	words := strings.Fields(key)
	if len(words) == 1 && d.generic[key] {
		return fmt.Sprintf("generic word %q", key)
	}
	if d.opts.MaxWords > 0 && len(words) > d.opts.MaxWords {
		return fmt.Sprintf("%d words exceeds %d", len(words), d.opts.MaxWords)
	}

	n := utf8.RuneCountInString(clean)
	if n < d.opts.MinNameLen {
		return fmt.Sprintf("name shorter than %d characters", d.opts.MinNameLen)
	}
	if d.opts.MaxNameLen > 0 && n > d.opts.MaxNameLen {
		return fmt.Sprintf("name longer than %d characters", d.opts.MaxNameLen)
	}

	if d.opts.MaxCapsLen > 0 && allCaps(clean) > d.opts.MaxCapsLen {
		return fmt.Sprintf("all-caps label longer than %d letters", d.opts.MaxCapsLen)
	}
	return ""
}

// allCaps returns the letter count when every letter in s is uppercase, else 0.
func allCaps(s string) int {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return 0
		}
		letters++
	}
	return letters
}

func keySet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		if k := strings.Trim(Key(s), labelTrim); k != "" {
			set[k] = true
		}
	}
	return set
}
