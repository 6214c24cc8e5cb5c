// Package taxonomy loads the closed, ordered set of catalog categories and
// the keyword rules used to classify tools into them.
package taxonomy

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalidTaxonomy is returned for unreadable or inconsistent taxonomy files.
var ErrInvalidTaxonomy = eris.New("invalid taxonomy")

// Category is one taxonomy member and its classification keywords.
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Taxonomy is the ordered category list. Slice order is the classification
// priority order.
type Taxonomy struct {
	Categories []Category
	Default    string
	// Overrides maps a record id or slug to a hand-picked category. Consulted
	// before keyword rules.
	Overrides map[string]string
}

// file is the on-disk shape. Either Categories, or Priority plus Keywords,
// must be set. JSON files parse too since JSON is valid YAML.
type file struct {
	Default    string              `yaml:"default"`
	Categories []Category          `yaml:"categories"`
	Priority   []string            `yaml:"priority"`
	Keywords   map[string][]string `yaml:"keywords"`
	Overrides  map[string]string   `yaml:"overrides"`
}

// Load reads a taxonomy file. An empty path returns the embedded default.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidTaxonomy, "taxonomy: read %s: %v", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: %s", path)
	}
	return t, nil
}

// Default returns the embedded AI-tools taxonomy.
func Default() (*Taxonomy, error) {
	return Parse(defaultYAML)
}

// Parse decodes and validates taxonomy YAML or JSON.
func Parse(data []byte) (*Taxonomy, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(ErrInvalidTaxonomy, "taxonomy: parse: %v", err)
	}

	var cats []Category
	switch {
	case len(f.Categories) > 0 && (len(f.Priority) > 0 || len(f.Keywords) > 0):
		return nil, eris.Wrap(ErrInvalidTaxonomy, "taxonomy: use either categories or priority+keywords, not both")
	case len(f.Categories) > 0:
		cats = f.Categories
	case len(f.Priority) > 0:
		for name := range f.Keywords {
			if !contains(f.Priority, name) {
				return nil, eris.Wrapf(ErrInvalidTaxonomy, "taxonomy: keywords for %q but it is missing from priority", name)
			}
		}
		for _, name := range f.Priority {
			cats = append(cats, Category{Name: name, Keywords: f.Keywords[name]})
		}
	default:
		return nil, eris.Wrap(ErrInvalidTaxonomy, "taxonomy: no categories defined")
	}

	t := &Taxonomy{
		Categories: make([]Category, 0, len(cats)),
		Default:    strings.TrimSpace(f.Default),
		Overrides:  make(map[string]string, len(f.Overrides)),
	}
	for _, c := range cats {
		t.Categories = append(t.Categories, Category{
			Name:     strings.TrimSpace(c.Name),
			Keywords: cleanKeywords(c.Keywords),
		})
	}
	for k, v := range f.Overrides {
		t.Overrides[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the closed-set invariants: unique non-empty names, a
// default that is a member, and overrides that target members.
func (t *Taxonomy) Validate() error {
	if len(t.Categories) == 0 {
		return eris.Wrap(ErrInvalidTaxonomy, "taxonomy: no categories defined")
	}
	seen := make(map[string]bool, len(t.Categories))
	for i, c := range t.Categories {
		if c.Name == "" {
			return eris.Wrapf(ErrInvalidTaxonomy, "taxonomy: category %d has no name", i)
		}
		if seen[c.Name] {
			return eris.Wrapf(ErrInvalidTaxonomy, "taxonomy: duplicate category %q", c.Name)
		}
		seen[c.Name] = true
	}
	if t.Default == "" {
		return eris.Wrap(ErrInvalidTaxonomy, "taxonomy: default category is required")
	}
	if !seen[t.Default] {
		return eris.Wrapf(ErrInvalidTaxonomy, "taxonomy: default %q is not a category", t.Default)
	}
	for key, cat := range t.Overrides {
		if !seen[cat] {
			return eris.Wrapf(ErrInvalidTaxonomy, "taxonomy: override %q targets unknown category %q", key, cat)
		}
	}
	return nil
}

// Names returns category names in priority order.
func (t *Taxonomy) Names() []string {
	names := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		names[i] = c.Name
	}
	return names
}

// Contains reports whether name is a taxonomy member.
func (t *Taxonomy) Contains(name string) bool {
	for _, c := range t.Categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Override returns the manual category for a record, checking id then slug.
func (t *Taxonomy) Override(id, slug string) (string, bool) {
	if len(t.Overrides) == 0 {
		return "", false
	}
	for _, key := range []string{id, slug} {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if cat, ok := t.Overrides[key]; ok {
			return cat, true
		}
	}
	return "", false
}

// cleanKeywords lowercases, trims and drops empty keywords. An empty keyword
// would match every haystack.
func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || contains(out, kw) {
			continue
		}
		out = append(out, kw)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
