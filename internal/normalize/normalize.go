// Package normalize strips markdown artifacts, broken links and scraping
// debris from tool record text fields.
package normalize

import (
	"regexp"
	"strings"

	"github.com/aitools-hub/catalog-cli/internal/model"
)

// maxPasses bounds the fixed-point loop in Text.
const maxPasses = 8

// Cleaning patterns, applied in this order.
var (
	// ![alt](src)
	imageRe = regexp.MustCompile(`!\[[^\[\]]*\]\([^()]*\)`)
	// [text](href) -> text
	linkRe = regexp.MustCompile(`\[([^\[\]]*)\]\([^()]*\)`)
	// http(s)://... and www.... up to whitespace or a closing bracket.
	bareURLRe = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s()\[\]<>]+`)
	// (2)](...) and the "](" stubs left behind once the URL is gone.
	brokenLinkRe = regexp.MustCompile(`\(\d+\)\]\([^()\s]*\)?|\]\([^()\s]*\)?`)
	emptyPairRe  = regexp.MustCompile(`\(\s*\)|\[\s*\]`)

	spaceRe          = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([,.;:!?])`)
	repeatedPunctRe  = regexp.MustCompile(`([,.;:!?])[,.;:!?]+`)
	// Separators and bullets left at the front once a leading link is gone.
	leadingPunctRe = regexp.MustCompile(`^(?:[,;:!?|•]+|[-*–—]\s)+\s*`)
)

// Text cleans one string. It is idempotent: Text(Text(s)) == Text(s).
func Text(s string) string {
	for i := 0; i < maxPasses; i++ {
		next := clean(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func clean(s string) string {
	s = replaceStable(imageRe, s, "")
	s = replaceStable(linkRe, s, "$1")
	s = bareURLRe.ReplaceAllString(s, "")
	s = brokenLinkRe.ReplaceAllString(s, "")
	s = emptyPairRe.ReplaceAllString(s, "")

	s = spaceRe.ReplaceAllString(s, " ")
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = repeatedPunctRe.ReplaceAllString(s, "$1")
	s = leadingPunctRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// replaceStable applies re until nothing matches, so a link nested inside
// another link's text unwraps fully before the URL steps run.
func replaceStable(re *regexp.Regexp, s, repl string) string {
	for re.MatchString(s) {
		s = re.ReplaceAllString(s, repl)
	}
	return s
}

// List cleans every entry, drops entries left empty and removes
// case-insensitive duplicates, keeping the first spelling.
func List(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, item := range in {
		item = Text(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// Result is a normalized record plus the warnings raised while cleaning it.
type Result struct {
	Record   model.ToolRecord
	Changed  bool
	Warnings []model.Warning
}

// Record cleans name, description, features, pros, cons and pricing plan
// text. The slug is never touched. A name that would be cleaned to nothing
// keeps its trimmed original; an empty description gets a generated one.
func Record(index int, r model.ToolRecord) Result {
	out := r.Clone()
	var warnings []model.Warning

	warn := func(field, msg string) {
		warnings = append(warnings, model.Warning{
			Kind:    model.WarningNormalization,
			Index:   index,
			ID:      r.ID,
			Field:   field,
			Message: msg,
		})
	}

	if name := Text(r.Name); name != "" {
		out.Name = name
	} else {
		out.Name = strings.TrimSpace(r.Name)
		if out.Name != "" {
			warn("name", "name is only markup; kept as-is")
		}
	}

	out.Description = Text(r.Description)
	if out.Description == "" && out.Name != "" {
		out.Description = Text(DefaultDescription(out.Name))
		warn("description", "description empty after cleaning; generated from name")
	}

	out.Features = List(r.Features)
	out.Pros = List(r.Pros)
	out.Cons = List(r.Cons)

	for i := range out.Pricing {
		if name := Text(out.Pricing[i].PlanName); name != "" {
			out.Pricing[i].PlanName = name
		}
		out.Pricing[i].Features = List(out.Pricing[i].Features)
	}

	return Result{
		Record:   out,
		Changed:  !equalRecords(r, out),
		Warnings: warnings,
	}
}

// DefaultDescription is the placeholder written for tools without any
// usable description.
func DefaultDescription(name string) string {
	return name + " is an AI-powered tool."
}

func equalRecords(a, b model.ToolRecord) bool {
	if a.Name != b.Name || a.Description != b.Description {
		return false
	}
	if !equalStrings(a.Features, b.Features) || !equalStrings(a.Pros, b.Pros) || !equalStrings(a.Cons, b.Cons) {
		return false
	}
	if len(a.Pricing) != len(b.Pricing) {
		return false
	}
	for i := range a.Pricing {
		if a.Pricing[i].PlanName != b.Pricing[i].PlanName || !equalStrings(a.Pricing[i].Features, b.Pricing[i].Features) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
