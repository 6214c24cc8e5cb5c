package catalog

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/aitools-hub/catalog-cli/internal/model"
	"github.com/aitools-hub/catalog-cli/internal/tabular"
)

// columnFields maps folded header names to record fields.
var columnFields = map[string]string{
	"id":          "id",
	"name":        "name",
	"toolname":    "name",
	"title":       "name",
	"slug":        "slug",
	"description": "description",
	"summary":     "description",
	"category":    "category",
	"features":    "features",
	"pros":        "pros",
	"cons":        "cons",
	"pricing":     "pricing",
	"plans":       "pricing",
	"rating":      "rating",
	"source":      "source",
	"scrapedat":   "scrapedAt",
}

var listFields = map[string]bool{"features": true, "pros": true, "cons": true}

// FromTable converts spreadsheet rows into catalog records. Known columns
// are matched case- and punctuation-insensitively; other columns are kept
// as extra string fields. Cells go through the same coercion as Parse.
func (l *Loader) FromTable(t *tabular.Table) (model.Catalog, []model.Warning, error) {
	fields := make([]string, len(t.Header))
	hasName := false
	for i, h := range t.Header {
		h = strings.TrimSpace(h)
		if f, ok := columnFields[foldHeader(h)]; ok {
			fields[i] = f
			hasName = hasName || f == "name"
			continue
		}
		fields[i] = h
	}
	if !hasName {
		return nil, nil, eris.Wrap(ErrMalformedInput, "catalog: table has no name column")
	}

	objs := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		obj := make(map[string]any, len(fields))
		for i, cell := range row {
			if i >= len(fields) || fields[i] == "" || strings.TrimSpace(cell) == "" {
				continue
			}
			if _, dup := obj[fields[i]]; dup {
				continue
			}
			obj[fields[i]] = cellValue(fields[i], cell)
		}
		objs = append(objs, obj)
	}

	data, err := json.Marshal(objs)
	if err != nil {
		return nil, nil, eris.Wrap(err, "catalog: encode table")
	}
	return l.Parse(data)
}

func cellValue(field, cell string) any {
	cell = strings.TrimSpace(cell)
	switch {
	case listFields[field]:
		return splitList(cell)
	case field == "pricing":
		return pricingCell(cell)
	}
	return cell
}

// splitList splits "a; b | c" or one item per line.
func splitList(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ';' || r == '|' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// pricingCell accepts embedded JSON or "Free; Pro: $20/mo" style plan lists.
func pricingCell(cell string) any {
	if strings.HasPrefix(cell, "[") || strings.HasPrefix(cell, "{") {
		var raw json.RawMessage
		if json.Unmarshal([]byte(cell), &raw) == nil {
			return raw
		}
	}
	var plans []map[string]string
	for _, item := range splitList(cell) {
		name, price, ok := strings.Cut(item, ":")
		if !ok {
			price = item
		}
		plans = append(plans, map[string]string{
			"planName":      strings.TrimSpace(name),
			"pricePerMonth": strings.TrimSpace(price),
		})
	}
	return plans
}

func foldHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
