package detect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitools-hub/catalog-cli/internal/model"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"ChatGPT", "Chatgpt", 1},
		{"Jasper", "Jasper AI", 1 - 3.0/9.0},
		{"kitten", "sitting", 1 - 3.0/7.0},
		{"", "", 1},
		{"abc", "", 0},
		{"  Otter   AI ", "otter ai", 1},
		{"Café", "cafe", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	names := []string{"ChatGPT", "Chat GPT", "Jasper", "Jasper AI", "Copy.ai", "Copyai", "Midjourney", "Mid Journey", "", "日本語ツール"}
	for _, a := range names {
		for _, b := range names {
			sab, sba := Similarity(a, b), Similarity(b, a)
			assert.Equal(t, sab, sba, "%q vs %q", a, b)
			assert.True(t, sab >= 0 && sab <= 1 && !math.IsNaN(sab))
		}
	}
}

func TestDetect_CaseVariantIsExactDuplicate(t *testing.T) {
	cat := model.Catalog{
		{ID: "1", Name: "ChatGPT", Slug: "chatgpt"},
		{ID: "2", Name: "Chatgpt", Slug: "chatgpt-2"},
	}
	report := New(DefaultOptions()).Detect(cat)

	require.Len(t, report.Duplicates, 1)
	pair := report.Duplicates[0]
	assert.Equal(t, "1", pair.KeptID)
	assert.Equal(t, "2", pair.DroppedID)
	assert.Equal(t, model.MatchExactName, pair.Match)
	assert.Equal(t, 1.0, pair.Similarity)
	assert.Empty(t, report.Artifacts)
}

func TestDetect_ViewAllIsArtifact(t *testing.T) {
	cat := model.Catalog{
		{ID: "1", Name: "Jasper", Slug: "jasper"},
		{ID: "2", Name: "View All", Slug: "view-all", Description: ""},
	}
	report := New(DefaultOptions()).Detect(cat)

	require.Len(t, report.Artifacts, 1)
	assert.Equal(t, 1, report.Artifacts[0].Index)
	assert.Equal(t, "2", report.Artifacts[0].ID)
	assert.Contains(t, report.Artifacts[0].Reason, "view all")
	assert.Empty(t, report.Duplicates)
}

func TestDetect_JasperVariantsBelowThreshold(t *testing.T) {
	cat := model.Catalog{
		{ID: "1", Name: "Jasper", Slug: "jasper"},
		{ID: "2", Name: "Jasper AI", Slug: "jasper-ai"},
	}
	report := New(DefaultOptions()).Detect(cat)
	assert.Empty(t, report.Duplicates)

	low := DefaultOptions()
	low.Threshold = 0.6
	report = New(low).Detect(cat)
	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, model.MatchFuzzyName, report.Duplicates[0].Match)
	assert.InDelta(t, 0.6667, report.Duplicates[0].Similarity, 0.001)
}

func TestDetect_FuzzyPicksBestEarlierMatch(t *testing.T) {
	cat := model.Catalog{
		{ID: "a", Name: "Midjourney Pro", Slug: "a"},
		{ID: "b", Name: "Midjourney", Slug: "b"},
		{ID: "c", Name: "Midjourny", Slug: "c"},
	}
	opts := DefaultOptions()
	opts.Threshold = 0.6
	report := New(opts).Detect(cat)

	// b (0.71) is dropped against a; c then only sees a (0.64), not b.
	require.Len(t, report.Duplicates, 2)
	assert.Equal(t, "a", report.Duplicates[0].KeptID)
	assert.Equal(t, "b", report.Duplicates[0].DroppedID)
	assert.Equal(t, "a", report.Duplicates[1].KeptID)
	assert.Equal(t, "c", report.Duplicates[1].DroppedID)
}

func TestDetect_ExactIDAndSlug(t *testing.T) {
	cat := model.Catalog{
		{ID: "x", Name: "Notion AI", Slug: "notion"},
		{ID: "X", Name: "Different Tool", Slug: "different"},
		{ID: "y", Name: "Another Thing", Slug: "Notion"},
	}
	report := New(DefaultOptions()).Detect(cat)

	require.Len(t, report.Duplicates, 2)
	assert.Equal(t, model.MatchExactID, report.Duplicates[0].Match)
	assert.Equal(t, 1, report.Duplicates[0].DroppedIndex)
	assert.Equal(t, model.MatchExactSlug, report.Duplicates[1].Match)
	assert.Equal(t, 2, report.Duplicates[1].DroppedIndex)
}

func TestDetect_ArtifactNeverKept(t *testing.T) {
	cat := model.Catalog{
		{ID: "1", Name: "Login", Slug: "login"},
		{ID: "2", Name: "Login", Slug: "login-2"},
	}
	report := New(DefaultOptions()).Detect(cat)
	assert.Len(t, report.Artifacts, 2)
	assert.Empty(t, report.Duplicates)
}

func TestDetect_FuzzyDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.Fuzzy = false
	cat := model.Catalog{
		{ID: "1", Name: "Midjourney", Slug: "a"},
		{ID: "2", Name: "Midjourny", Slug: "b"},
	}
	assert.Empty(t, New(opts).Detect(cat).Duplicates)
}

func TestDetect_ReadOnly(t *testing.T) {
	cat := model.Catalog{
		{ID: "1", Name: "ChatGPT", Slug: "chatgpt", Features: []string{"a"}},
		{ID: "2", Name: "chatgpt", Slug: "chatgpt"},
		{ID: "3", Name: "Home", Slug: "home"},
	}
	before := cat.Clone()
	New(DefaultOptions()).Detect(cat)
	assert.Equal(t, before, cat)
}

func TestArtifactReason(t *testing.T) {
	d := New(DefaultOptions())

	tests := []struct {
		name     string
		artifact bool
	}{
		{"View All →", true},
		{"READ MORE", true},
		{"Sign In", true},
		{"Page 2", true},
		{"page 3 of 10", true},
		{"42", true},
		{"Tools", true},
		{"![x](y)", true},
		{"A", true},
		{"This is clearly a sentence scraped from the page body text", true},
		{"CLICK HERE TO SUBSCRIBE NOW", true},
		{"Surfer SEO", false},
		{"ChatGPT", false},
		{"NVIDIA Canvas", false},
		{"Jasper AI", false},
		{"Otter.ai", false},
		{"DALL·E 3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := d.artifactReason(tt.name)
			assert.Equal(t, tt.artifact, reason != "", "reason %q", reason)
		})
	}
}

func TestNew_FallbackThreshold(t *testing.T) {
	assert.Equal(t, DefaultThreshold, New(Options{Threshold: 0}).Threshold())
	assert.Equal(t, DefaultThreshold, New(Options{Threshold: 1.5}).Threshold())
	assert.Equal(t, 0.9, New(Options{Threshold: 0.9}).Threshold())
}

func TestIsDuplicate(t *testing.T) {
	d := New(DefaultOptions())

	sim, dup := d.IsDuplicate("ChatGPT", "chatgpt")
	assert.True(t, dup)
	assert.Equal(t, 1.0, sim)

	_, dup = d.IsDuplicate("Jasper", "Jasper AI")
	assert.False(t, dup)

	_, dup = d.IsDuplicate("", "")
	assert.False(t, dup)
}
