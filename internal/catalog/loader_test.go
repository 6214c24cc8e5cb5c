package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitools-hub/catalog-cli/internal/model"
)

func newTestLoader(fs afero.Fs) *Loader {
	l := NewLoader(fs, Defaults{})
	n := 0
	l.newID = func() string {
		n++
		return "gen-" + string(rune('0'+n))
	}
	return l
}

func warningFields(ws []model.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Field)
	}
	return out
}

func TestParse_CompleteRecord(t *testing.T) {
	data := []byte(`[{
		"id": "surfer",
		"name": "Surfer SEO",
		"slug": "surfer-seo",
		"description": "Optimize content.",
		"category": "Content Creation",
		"features": ["Audit"],
		"pricing": [{"planName": "Basic", "pricePerMonth": 59, "features": ["1 site"]}],
		"pros": ["Fast"],
		"cons": ["Pricey"],
		"rating": 4.6,
		"source": "futurepedia",
		"scrapedAt": "2024-03-01T10:00:00Z"
	}]`)

	cat, warnings, err := newTestLoader(afero.NewMemMapFs()).Parse(data)
	require.NoError(t, err)
	require.Len(t, cat, 1)
	assert.Empty(t, warnings)

	r := cat[0]
	assert.Equal(t, "surfer", r.ID)
	assert.False(t, r.NumericID)
	assert.Equal(t, "surfer-seo", r.Slug)
	assert.Equal(t, "Content Creation", r.Category)
	assert.Equal(t, 4.6, r.Rating)
	assert.Equal(t, "futurepedia", r.Source)
	require.NotNil(t, r.ScrapedAt)
	assert.Equal(t, 2024, r.ScrapedAt.Year())
	require.Len(t, r.Pricing, 1)
	assert.Equal(t, model.MonthlyPrice(59), r.Pricing[0].PricePerMonth)
	assert.Equal(t, []string{"1 site"}, r.Pricing[0].Features)
	assert.Nil(t, r.Extra)
}

func TestParse_MissingFieldsAreCoerced(t *testing.T) {
	data := []byte(`[{"name": "Otter AI", "description": "Meeting notes."}]`)

	cat, warnings, err := newTestLoader(afero.NewMemMapFs()).Parse(data)
	require.NoError(t, err)
	require.Len(t, cat, 1)

	r := cat[0]
	assert.Equal(t, "gen-1", r.ID)
	assert.Equal(t, "otter-ai", r.Slug)
	assert.Equal(t, 4.0, r.Rating)
	assert.Equal(t, []string{}, r.Features)
	assert.Equal(t, []string{}, r.Pros)
	assert.Equal(t, []string{}, r.Cons)
	require.Len(t, r.Pricing, 1)
	assert.Equal(t, "Standard", r.Pricing[0].PlanName)
	assert.True(t, r.Pricing[0].PricePerMonth.Custom)

	fields := warningFields(warnings)
	for _, f := range []string{"id", "slug", "rating", "features", "pros", "cons", "pricing"} {
		assert.Contains(t, fields, f)
	}
	for _, w := range warnings {
		assert.Equal(t, model.WarningSchemaCoercion, w.Kind)
		assert.Equal(t, 0, w.Index)
	}
}

func TestParse_NumericIDAndExtras(t *testing.T) {
	data := []byte(`[{"id": 42, "name": "Jasper", "slug": "jasper", "website": "https://jasper.ai", "tags": ["a"],
		"description": "d", "features": [], "pros": [], "cons": [], "rating": 4, "pricing": [{"planName": "Pro", "pricePerMonth": "Custom"}]}]`)

	cat, warnings, err := newTestLoader(afero.NewMemMapFs()).Parse(data)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	r := cat[0]
	assert.Equal(t, "42", r.ID)
	assert.True(t, r.NumericID)
	assert.JSONEq(t, `"https://jasper.ai"`, string(r.Extra["website"]))
	assert.JSONEq(t, `["a"]`, string(r.Extra["tags"]))

	out, err := r.MarshalJSON()
	require.NoError(t, err)
	var back map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "42", string(back["id"]))
	assert.Contains(t, back, "website")
}

func TestParse_DerivedSlugsAvoidCollisions(t *testing.T) {
	data := []byte(`[
		{"id": "a", "name": "Jasper", "slug": "jasper"},
		{"id": "b", "name": "Jasper"},
		{"id": "c", "name": "Jasper"},
		{"id": "d", "name": "!!!"}
	]`)

	cat, _, err := newTestLoader(afero.NewMemMapFs()).Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "jasper", cat[0].Slug)
	assert.Equal(t, "jasper-2", cat[1].Slug)
	assert.Equal(t, "jasper-3", cat[2].Slug)
	assert.Equal(t, "d", cat[3].Slug)
}

func TestParse_RatingRules(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
		warn bool
	}{
		{"in range", `4.5`, 4.5, false},
		{"zero uses default", `0`, 4.0, true},
		{"null uses default", `null`, 4.0, true},
		{"too high clamps", `9`, 5.0, true},
		{"too low clamps", `0.2`, 1.0, true},
		{"numeric string", `"3.5"`, 3.5, false},
		{"garbage string", `"great"`, 4.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(`[{"id":"x","name":"X","slug":"x","description":"d","features":[],"pros":[],"cons":[],
				"pricing":[{"planName":"Free","pricePerMonth":0}],"rating":` + tt.raw + `}]`)
			cat, warnings, err := newTestLoader(afero.NewMemMapFs()).Parse(data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cat[0].Rating)
			assert.Equal(t, tt.warn, len(warnings) > 0)
		})
	}
}

func TestCoercePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Price
		ok   bool
	}{
		{`29`, model.MonthlyPrice(29), true},
		{`"Custom"`, model.CustomPrice(), true},
		{`"custom"`, model.CustomPrice(), true},
		{`"Contact sales"`, model.CustomPrice(), true},
		{`"Free"`, model.MonthlyPrice(0), true},
		{`"$29/mo"`, model.MonthlyPrice(29), true},
		{`"€9,99"`, model.MonthlyPrice(9.99), true},
		{`"varies"`, model.CustomPrice(), false},
		{`-5`, model.CustomPrice(), false},
		{`{}`, model.CustomPrice(), false},
		{``, model.CustomPrice(), false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := coercePrice(json.RawMessage(tt.raw))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestParse_PricingShapes(t *testing.T) {
	data := []byte(`[{"id":"x","name":"X","slug":"x","pricing":{"name":"Team","price":"$10"}},
		{"id":"y","name":"Y","slug":"y","pricing":[{"pricePerMonth":5}, "junk"]}]`)

	cat, _, err := newTestLoader(afero.NewMemMapFs()).Parse(data)
	require.NoError(t, err)

	require.Len(t, cat[0].Pricing, 1)
	assert.Equal(t, "Team", cat[0].Pricing[0].PlanName)
	assert.Equal(t, model.MonthlyPrice(10), cat[0].Pricing[0].PricePerMonth)

	require.Len(t, cat[1].Pricing, 1)
	assert.Equal(t, "Plan 1", cat[1].Pricing[0].PlanName)
}

func TestParse_StringListCoercion(t *testing.T) {
	data := []byte(`[{"id":"x","name":"X","slug":"x","features":"Single feature","pros":["ok", 3, {"bad":1}],"cons":null}]`)

	cat, _, err := newTestLoader(afero.NewMemMapFs()).Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Single feature"}, cat[0].Features)
	assert.Equal(t, []string{"ok", "3"}, cat[0].Pros)
	assert.Equal(t, []string{}, cat[0].Cons)
}

func TestParse_UnparseableScrapedAtKeptVerbatim(t *testing.T) {
	data := []byte(`[{"id":"x","name":"X","slug":"x","scrapedAt":"last tuesday"}]`)

	cat, _, err := newTestLoader(afero.NewMemMapFs()).Parse(data)
	require.NoError(t, err)
	assert.Nil(t, cat[0].ScrapedAt)
	assert.JSONEq(t, `"last tuesday"`, string(cat[0].Extra["scrapedAt"]))
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"object", `{"id": "x"}`},
		{"empty", ``},
		{"truncated", `[{"id": "x"`},
		{"scalar element", `[{"id":"x"}, 3]`},
		{"null element", `[null]`},
		{"string", `"tools"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newTestLoader(afero.NewMemMapFs()).Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInput))
		})
	}
}

func TestParse_EmptyArray(t *testing.T) {
	cat, warnings, err := newTestLoader(afero.NewMemMapFs()).Parse([]byte(` [] `))
	require.NoError(t, err)
	assert.Empty(t, cat)
	assert.Empty(t, warnings)
}

func TestLoad_FromFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/tools.json", []byte(`[{"id":"a","name":"A","slug":"a"}]`), 0o644))

	cat, _, err := newTestLoader(fs).Load("/data/tools.json")
	require.NoError(t, err)
	assert.Len(t, cat, 1)

	_, _, err = newTestLoader(fs).Load("/data/missing.json")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedInput))
}

func TestNewLoader_FallbackDefaults(t *testing.T) {
	l := NewLoader(afero.NewMemMapFs(), Defaults{Rating: 12, PlanName: " "})
	assert.Equal(t, DefaultDefaults(), l.defaults)

	l = NewLoader(afero.NewMemMapFs(), Defaults{Rating: 3, PlanName: "Starter"})
	assert.Equal(t, Defaults{Rating: 3, PlanName: "Starter"}, l.defaults)
}

func TestParse_ScrapedAtSpellingPreserved(t *testing.T) {
	for _, in := range []string{`"2024-01-15"`, `"2024-01-15T10:00:00"`, `"2024-03-01T10:00:00.000+02:00"`} {
		data := []byte(`[{"id":"x","name":"X","slug":"x","scrapedAt":` + in + `}]`)
		cat, _, err := newTestLoader(afero.NewMemMapFs()).Parse(data)
		require.NoError(t, err)
		require.NotNil(t, cat[0].ScrapedAt, in)

		out, err := Encode(cat)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"scrapedAt": `+in, in)
	}
}
