// Package catalog loads the tool catalog JSON into canonical records and
// writes it back atomically.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/aitools-hub/catalog-cli/internal/model"
)

// ErrMalformedInput is returned when the catalog is not a JSON array of objects.
var ErrMalformedInput = eris.New("malformed catalog input")

// Defaults holds the schema defaults applied during coercion.
type Defaults struct {
	Rating   float64
	PlanName string
}

// DefaultDefaults returns the defaults used when config leaves them unset.
func DefaultDefaults() Defaults {
	return Defaults{Rating: 4.0, PlanName: "Standard"}
}

const (
	minRating = 1.0
	maxRating = 5.0
)

// Loader reads catalog files through an afero filesystem.
type Loader struct {
	fs       afero.Fs
	defaults Defaults
	newID    func() string
}

// NewLoader creates a Loader. Zero-valued defaults fall back to DefaultDefaults.
func NewLoader(fs afero.Fs, d Defaults) *Loader {
	def := DefaultDefaults()
	if d.Rating < minRating || d.Rating > maxRating {
		d.Rating = def.Rating
	}
	if strings.TrimSpace(d.PlanName) == "" {
		d.PlanName = def.PlanName
	}
	return &Loader{fs: fs, defaults: d, newID: uuid.NewString}
}

// Load reads and coerces the catalog at path. Per-record problems are
// repaired and returned as warnings; a non-array document is fatal.
func (l *Loader) Load(path string) (model.Catalog, []model.Warning, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	cat, warnings, err := l.Parse(data)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "catalog: %s", path)
	}
	zap.L().Info("catalog: loaded",
		zap.String("path", path),
		zap.Int("records", len(cat)),
		zap.Int("warnings", len(warnings)),
	)
	return cat, warnings, nil
}

// Parse coerces raw catalog JSON.
func (l *Loader) Parse(data []byte) (model.Catalog, []model.Warning, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil, eris.Wrap(ErrMalformedInput, "catalog: top-level JSON is not an array")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, nil, eris.Wrapf(ErrMalformedInput, "catalog: parse: %v", err)
	}

	c := &coercer{defaults: l.defaults, newID: l.newID}
	cat := make(model.Catalog, 0, len(elems))
	for i, elem := range elems {
		fields := map[string]json.RawMessage{}
		if kindOf(elem) != kindObject {
			return nil, nil, eris.Wrapf(ErrMalformedInput, "catalog: element %d is not an object", i)
		}
		if err := json.Unmarshal(elem, &fields); err != nil {
			return nil, nil, eris.Wrapf(ErrMalformedInput, "catalog: element %d: %v", i, err)
		}
		cat = append(cat, c.record(i, fields))
	}

	c.assignSlugs(cat)

	for _, w := range c.warnings {
		zap.L().Warn("catalog: schema coercion",
			zap.Int("index", w.Index),
			zap.String("id", w.ID),
			zap.String("field", w.Field),
			zap.String("message", w.Message),
		)
	}
	return cat, c.warnings, nil
}

type jsonKind int

const (
	kindMissing jsonKind = iota
	kindNull
	kindString
	kindNumber
	kindBool
	kindArray
	kindObject
)

func kindOf(raw json.RawMessage) jsonKind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return kindMissing
	}
	switch raw[0] {
	case 'n':
		return kindNull
	case '"':
		return kindString
	case 't', 'f':
		return kindBool
	case '[':
		return kindArray
	case '{':
		return kindObject
	default:
		return kindNumber
	}
}

// coercer carries per-load state: accumulated warnings and records that
// still need a derived slug.
type coercer struct {
	defaults Defaults
	newID    func() string
	warnings []model.Warning
	needSlug []int
}

func (c *coercer) warn(index int, id, field, format string, args ...any) {
	c.warnings = append(c.warnings, model.Warning{
		Kind:    model.WarningSchemaCoercion,
		Index:   index,
		ID:      id,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

var knownFields = map[string]bool{
	"id": true, "name": true, "slug": true, "description": true, "category": true,
	"features": true, "pricing": true, "pros": true, "cons": true, "rating": true,
	"source": true, "scrapedAt": true,
}

func (c *coercer) record(index int, f map[string]json.RawMessage) model.ToolRecord {
	var r model.ToolRecord

	r.ID, r.NumericID = c.id(index, f["id"])

	var ok bool
	if r.Name, ok = scalarString(f["name"]); !ok || strings.TrimSpace(r.Name) == "" {
		c.warn(index, r.ID, "name", "missing or non-string name")
	}
	r.Name = strings.TrimSpace(r.Name)

	if r.Slug, ok = scalarString(f["slug"]); !ok || strings.TrimSpace(r.Slug) == "" {
		c.needSlug = append(c.needSlug, index)
	}
	r.Slug = strings.TrimSpace(r.Slug)

	if r.Description, ok = scalarString(f["description"]); !ok {
		c.warn(index, r.ID, "description", "missing or non-string description")
	}
	r.Category, _ = scalarString(f["category"])
	r.Category = strings.TrimSpace(r.Category)

	r.Features = c.stringList(index, r.ID, "features", f["features"])
	r.Pros = c.stringList(index, r.ID, "pros", f["pros"])
	r.Cons = c.stringList(index, r.ID, "cons", f["cons"])
	r.Pricing = c.pricing(index, r.ID, f["pricing"])
	r.Rating = c.rating(index, r.ID, f["rating"])
	r.Source, _ = scalarString(f["source"])

	for k, v := range f {
		if knownFields[k] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[k] = v
	}

	// Unparseable timestamps are provenance only; keep them verbatim.
	if raw, present := f["scrapedAt"]; present && kindOf(raw) != kindNull {
		if ts, ok := parseTime(raw); ok {
			r.ScrapedAt = &ts
			r.ScrapedAtRaw = append(json.RawMessage(nil), bytes.TrimSpace(raw)...)
		} else {
			if r.Extra == nil {
				r.Extra = make(map[string]json.RawMessage)
			}
			r.Extra["scrapedAt"] = raw
		}
	}

	return r
}

func (c *coercer) id(index int, raw json.RawMessage) (string, bool) {
	switch kindOf(raw) {
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), false
		}
	case kindNumber:
		return string(bytes.TrimSpace(raw)), true
	}
	id := c.newID()
	c.warn(index, id, "id", "missing or invalid id; assigned %s", id)
	return id, false
}

// assignSlugs derives slugs for records that lack one, avoiding every slug
// already present in the catalog.
func (c *coercer) assignSlugs(cat model.Catalog) {
	taken := make(map[string]bool, len(cat))
	for _, r := range cat {
		if r.Slug != "" {
			taken[strings.ToLower(r.Slug)] = true
		}
	}
	for _, i := range c.needSlug {
		base := Slugify(cat[i].Name)
		if base == "" {
			base = Slugify(cat[i].ID)
		}
		if base == "" {
			base = "tool"
		}
		slug := uniqueSlug(base, taken)
		taken[slug] = true
		cat[i].Slug = slug
		c.warn(i, cat[i].ID, "slug", "missing slug; derived %q", slug)
	}
}

func (c *coercer) stringList(index int, id, field string, raw json.RawMessage) []string {
	switch kindOf(raw) {
	case kindMissing, kindNull:
		c.warn(index, id, field, "missing %s; using empty list", field)
		return []string{}
	case kindString, kindNumber, kindBool:
		s, _ := scalarString(raw)
		c.warn(index, id, field, "%s is a scalar; wrapped into a list", field)
		if strings.TrimSpace(s) == "" {
			return []string{}
		}
		return []string{s}
	case kindArray:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			c.warn(index, id, field, "unreadable %s: %v", field, err)
			return []string{}
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := scalarString(item)
			if !ok {
				c.warn(index, id, field, "dropped non-string %s entry", field)
				continue
			}
			out = append(out, s)
		}
		return out
	default:
		c.warn(index, id, field, "%s is not a list; using empty list", field)
		return []string{}
	}
}

func (c *coercer) pricing(index int, id string, raw json.RawMessage) []model.PricingPlan {
	var rawPlans []json.RawMessage
	switch kindOf(raw) {
	case kindArray:
		if err := json.Unmarshal(raw, &rawPlans); err != nil {
			c.warn(index, id, "pricing", "unreadable pricing: %v", err)
		}
	case kindObject:
		rawPlans = []json.RawMessage{raw}
		c.warn(index, id, "pricing", "pricing is a single object; wrapped into a list")
	case kindMissing, kindNull:
	default:
		c.warn(index, id, "pricing", "pricing is not a list")
	}

	plans := make([]model.PricingPlan, 0, len(rawPlans))
	for n, rp := range rawPlans {
		pf := map[string]json.RawMessage{}
		if kindOf(rp) != kindObject || json.Unmarshal(rp, &pf) != nil {
			c.warn(index, id, "pricing", "dropped non-object plan %d", n)
			continue
		}
		plans = append(plans, c.plan(index, id, n, pf))
	}

	if len(plans) == 0 {
		c.warn(index, id, "pricing", "no pricing plans; added default %q plan", c.defaults.PlanName)
		plans = append(plans, model.PricingPlan{
			PlanName:      c.defaults.PlanName,
			PricePerMonth: model.CustomPrice(),
			Features:      []string{},
		})
	}
	return plans
}

func (c *coercer) plan(index int, id string, n int, f map[string]json.RawMessage) model.PricingPlan {
	var p model.PricingPlan

	name, ok := "", false
	for _, key := range []string{"planName", "name", "plan"} {
		if name, ok = scalarString(f[key]); ok && strings.TrimSpace(name) != "" {
			break
		}
	}
	p.PlanName = strings.TrimSpace(name)
	if p.PlanName == "" {
		p.PlanName = "Plan " + strconv.Itoa(n+1)
		c.warn(index, id, "pricing", "plan %d has no name; using %q", n, p.PlanName)
	}

	priceRaw, present := f["pricePerMonth"]
	if !present {
		priceRaw, present = f["price"]
	}
	price, ok := coercePrice(priceRaw)
	if !ok {
		if present {
			c.warn(index, id, "pricing", "plan %q has unreadable price %s; using %q", p.PlanName, string(priceRaw), model.PriceCustom)
		} else {
			c.warn(index, id, "pricing", "plan %q has no price; using %q", p.PlanName, model.PriceCustom)
		}
	}
	p.PricePerMonth = price

	// A plan without a feature list is common and not reported.
	p.Features = []string{}
	if raw, present := f["features"]; present && kindOf(raw) != kindNull {
		p.Features = c.stringList(index, id, "pricing.features", raw)
	}
	return p
}

var priceNumberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// coercePrice reads numbers, "Custom", "Free" and strings such as "$29/mo".
// Anything else becomes Custom and reports false.
func coercePrice(raw json.RawMessage) (model.Price, bool) {
	switch kindOf(raw) {
	case kindNumber:
		f, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
		if err != nil || f < 0 {
			return model.CustomPrice(), false
		}
		return model.MonthlyPrice(f), true
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.CustomPrice(), false
		}
		lower := strings.ToLower(strings.TrimSpace(s))
		switch {
		case lower == "custom" || strings.Contains(lower, "contact"):
			return model.CustomPrice(), true
		case lower == "free":
			return model.MonthlyPrice(0), true
		}
		if m := priceNumberRe.FindString(lower); m != "" {
			f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
			if err == nil {
				return model.MonthlyPrice(f), true
			}
		}
	}
	return model.CustomPrice(), false
}

func (c *coercer) rating(index int, id string, raw json.RawMessage) float64 {
	var v float64
	switch kindOf(raw) {
	case kindMissing, kindNull:
		c.warn(index, id, "rating", "missing rating; using %.1f", c.defaults.Rating)
		return c.defaults.Rating
	case kindNumber:
		f, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
		if err != nil {
			c.warn(index, id, "rating", "unreadable rating; using %.1f", c.defaults.Rating)
			return c.defaults.Rating
		}
		v = f
	case kindString:
		s, _ := scalarString(raw)
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			c.warn(index, id, "rating", "unreadable rating %q; using %.1f", s, c.defaults.Rating)
			return c.defaults.Rating
		}
		v = f
	default:
		c.warn(index, id, "rating", "rating is not a number; using %.1f", c.defaults.Rating)
		return c.defaults.Rating
	}

	switch {
	case v == 0:
		c.warn(index, id, "rating", "zero rating; using %.1f", c.defaults.Rating)
		return c.defaults.Rating
	case v < minRating:
		c.warn(index, id, "rating", "rating %g below %.1f; clamped", v, minRating)
		return minRating
	case v > maxRating:
		c.warn(index, id, "rating", "rating %g above %.1f; clamped", v, maxRating)
		return maxRating
	}
	return v
}

// scalarString returns strings as-is and numbers/bools in their JSON text
// form. ok is false for missing, null, arrays and objects.
func scalarString(raw json.RawMessage) (string, bool) {
	switch kindOf(raw) {
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case kindNumber, kindBool:
		return string(bytes.TrimSpace(raw)), true
	default:
		return "", false
	}
}

func parseTime(raw json.RawMessage) (time.Time, bool) {
	s, ok := scalarString(raw)
	if !ok || kindOf(raw) != kindString {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
