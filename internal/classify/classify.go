// Package classify assigns each tool record to one taxonomy category.
package classify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aitools-hub/catalog-cli/internal/model"
	"github.com/aitools-hub/catalog-cli/internal/taxonomy"
)

// Options tunes classification.
type Options struct {
	// KeepExisting keeps a record's current category when it is already a
	// taxonomy member. Overrides still apply.
	KeepExisting bool
}

// Classifier applies manual overrides, then keyword rules in taxonomy
// priority order, then the default category. It holds no mutable state.
type Classifier struct {
	tax  *taxonomy.Taxonomy
	opts Options
}

// New creates a Classifier over a validated taxonomy.
func New(tax *taxonomy.Taxonomy, opts Options) *Classifier {
	return &Classifier{tax: tax, opts: opts}
}

// Haystack is the lowercase text searched for keywords.
func Haystack(r model.ToolRecord) string {
	parts := make([]string, 0, 2+len(r.Features))
	parts = append(parts, r.Name, r.Description)
	parts = append(parts, r.Features...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Classify returns the category for r. The same record always yields the
// same result.
func (c *Classifier) Classify(r model.ToolRecord) model.Classification {
	if cat, ok := c.tax.Override(r.ID, r.Slug); ok {
		return model.Classification{Category: cat, Source: model.ClassifiedByOverride}
	}

	if c.opts.KeepExisting && r.Category != "" && c.tax.Contains(r.Category) {
		return model.Classification{Category: r.Category, Source: model.ClassifiedByExisting}
	}

	hay := Haystack(r)
	if strings.TrimSpace(hay) != "" {
		for _, cat := range c.tax.Categories {
			for _, kw := range cat.Keywords {
				if strings.Contains(hay, kw) {
					return model.Classification{Category: cat.Name, Source: model.ClassifiedByKeyword, Keyword: kw}
				}
			}
		}
	}

	return model.Classification{Category: c.tax.Default, Source: model.ClassifiedByDefault}
}

// All classifies every record in order. Records that fell back to the
// default category produce an ambiguous-classification warning.
func (c *Classifier) All(cat model.Catalog) ([]model.Classification, []model.Warning) {
	results := make([]model.Classification, len(cat))
	var warnings []model.Warning

	for i, r := range cat {
		cl := c.Classify(r)
		results[i] = cl
		if cl.Source != model.ClassifiedByDefault {
			continue
		}
		w := model.Warning{
			Kind:    model.WarningAmbiguousClassification,
			Index:   i,
			ID:      r.ID,
			Field:   "category",
			Message: fmt.Sprintf("no keyword matched %q; using default %q", r.Name, cl.Category),
		}
		warnings = append(warnings, w)
		zap.L().Warn("classify: ambiguous",
			zap.Int("index", i),
			zap.String("id", r.ID),
			zap.String("name", r.Name),
			zap.String("category", cl.Category),
		)
	}
	return results, warnings
}
