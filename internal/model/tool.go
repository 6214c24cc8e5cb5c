package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PriceCustom is the literal used in the catalog for plans without a list price.
const PriceCustom = "Custom"

// Price is a plan's monthly price: a number, or the literal "Custom".
type Price struct {
	Amount float64
	Custom bool
}

// CustomPrice returns a Price that serializes as "Custom".
func CustomPrice() Price {
	return Price{Custom: true}
}

// MonthlyPrice returns a numeric Price.
func MonthlyPrice(amount float64) Price {
	return Price{Amount: amount}
}

// String renders the price for reports.
func (p Price) String() string {
	if p.Custom {
		return PriceCustom
	}
	return strconv.FormatFloat(p.Amount, 'f', -1, 64)
}

// MarshalJSON emits a JSON number or the string "Custom".
func (p Price) MarshalJSON() ([]byte, error) {
	if p.Custom {
		return json.Marshal(PriceCustom)
	}
	return json.Marshal(p.Amount)
}

// UnmarshalJSON accepts a JSON number or the string "Custom" (any case).
func (p *Price) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if !strings.EqualFold(strings.TrimSpace(s), PriceCustom) {
			return fmt.Errorf("model: price %q is neither a number nor %q", s, PriceCustom)
		}
		*p = CustomPrice()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = MonthlyPrice(f)
	return nil
}

// PricingPlan is one entry of a tool's pricing table.
type PricingPlan struct {
	PlanName      string   `json:"planName"`
	PricePerMonth Price    `json:"pricePerMonth"`
	Features      []string `json:"features"`
}

// ToolRecord is the canonical unit of the catalog.
type ToolRecord struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Features    []string      `json:"features"`
	Pricing     []PricingPlan `json:"pricing"`
	Pros        []string      `json:"pros"`
	Cons        []string      `json:"cons"`
	Rating      float64       `json:"rating"`
	Source      string        `json:"source,omitempty"`
	ScrapedAt   *time.Time    `json:"scrapedAt,omitempty"`

	// ScrapedAtRaw is the scrapedAt value as read, written back unchanged so
	// date-only or offset timestamps keep their original spelling.
	ScrapedAtRaw json.RawMessage `json:"-"`

	// NumericID is set when the input carried the id as a JSON number, so the
	// rewrite keeps the same JSON type.
	NumericID bool `json:"-"`

	// Extra holds keys this tool does not model (website, logo, tags, ...),
	// re-emitted verbatim after the known fields.
	Extra map[string]json.RawMessage `json:"-"`
}

// toolRecordJSON mirrors ToolRecord with a raw id so numeric ids round-trip.
type toolRecordJSON struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Features    []string        `json:"features"`
	Pricing     []PricingPlan   `json:"pricing"`
	Pros        []string        `json:"pros"`
	Cons        []string        `json:"cons"`
	Rating      float64         `json:"rating"`
	Source      string          `json:"source,omitempty"`
	ScrapedAt   json.RawMessage `json:"scrapedAt,omitempty"`
}

// MarshalJSON writes known fields in schema order followed by Extra keys in
// sorted order. Nil sequences are written as empty arrays.
func (r ToolRecord) MarshalJSON() ([]byte, error) {
	id := json.RawMessage(strconv.Quote(r.ID))
	if r.NumericID {
		if _, err := strconv.ParseFloat(r.ID, 64); err == nil {
			id = json.RawMessage(r.ID)
		}
	}

	scraped := r.ScrapedAtRaw
	if len(scraped) == 0 && r.ScrapedAt != nil {
		b, err := json.Marshal(r.ScrapedAt)
		if err != nil {
			return nil, err
		}
		scraped = b
	}

	body, err := marshalNoEscape(toolRecordJSON{
		ID:          id,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Category:    r.Category,
		Features:    nonNil(r.Features),
		Pricing:     nonNilPlans(r.Pricing),
		Pros:        nonNil(r.Pros),
		Cons:        nonNil(r.Cons),
		Rating:      r.Rating,
		Source:      r.Source,
		ScrapedAt:   scraped,
	})
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return body, nil
	}

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(body[:len(body)-1])
	for _, k := range keys {
		kb, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(r.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Clone returns a deep copy so pipeline stages never alias the loaded record.
func (r ToolRecord) Clone() ToolRecord {
	out := r
	out.Features = cloneStrings(r.Features)
	out.Pros = cloneStrings(r.Pros)
	out.Cons = cloneStrings(r.Cons)
	if r.Pricing != nil {
		out.Pricing = make([]PricingPlan, len(r.Pricing))
		for i, p := range r.Pricing {
			p.Features = cloneStrings(p.Features)
			out.Pricing[i] = p
		}
	}
	if r.ScrapedAt != nil {
		t := *r.ScrapedAt
		out.ScrapedAt = &t
	}
	if r.ScrapedAtRaw != nil {
		out.ScrapedAtRaw = append(json.RawMessage(nil), r.ScrapedAtRaw...)
	}
	if r.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// Catalog is the ordered sequence of all tool records.
type Catalog []ToolRecord

// Clone deep-copies every record.
func (c Catalog) Clone() Catalog {
	if c == nil {
		return nil
	}
	out := make(Catalog, len(c))
	for i, r := range c {
		out[i] = r.Clone()
	}
	return out
}

// marshalNoEscape encodes v without HTML escaping so names such as
// "SEO & Optimization" are written as-is.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilPlans(in []PricingPlan) []PricingPlan {
	if in == nil {
		return []PricingPlan{}
	}
	out := make([]PricingPlan, len(in))
	for i, p := range in {
		p.Features = nonNil(p.Features)
		out[i] = p
	}
	return out
}
