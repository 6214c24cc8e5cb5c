package catalog

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitools-hub/catalog-cli/internal/model"
)

// renameFailFs fails every rename so the atomic swap never happens.
type renameFailFs struct {
	afero.Fs
}

func (renameFailFs) Rename(string, string) error {
	return errors.New("disk full")
}

func sampleCatalog() model.Catalog {
	return model.Catalog{{
		ID:          "surfer",
		Name:        "Surfer SEO",
		Slug:        "surfer-seo",
		Description: "Optimize content.",
		Category:    "SEO & Optimization",
		Pricing:     []model.PricingPlan{{PlanName: "Basic", PricePerMonth: model.MonthlyPrice(59)}},
		Rating:      4.6,
	}}
}

func TestEncode(t *testing.T) {
	data, err := Encode(sampleCatalog())
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"category": "SEO & Optimization"`)
	assert.Contains(t, s, "\n  {\n    \"id\": \"surfer\"")
	assert.True(t, strings.HasSuffix(s, "]\n"))

	empty, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(empty))
}

func TestWriteAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/tools.json", []byte("old"), 0o600))

	require.NoError(t, WriteAtomic(fs, "/data/tools.json", sampleCatalog()))

	got, err := afero.ReadFile(fs, "/data/tools.json")
	require.NoError(t, err)
	want, err := Encode(sampleCatalog())
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	info, err := fs.Stat("/data/tools.json")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not linger")
}

func TestWriteAtomic_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0o755))
	require.NoError(t, WriteAtomic(fs, "/out/tools.json", sampleCatalog()))

	cat, warnings, err := NewLoader(fs, Defaults{}).Load("/out/tools.json")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, sampleCatalog()[0].Name, cat[0].Name)
	assert.Equal(t, sampleCatalog()[0].Category, cat[0].Category)
}

func TestWriteAtomic_FailureLeavesOriginal(t *testing.T) {
	original := []byte(`[{"id":"keep"}]`)

	tests := []struct {
		name string
		fs   func(base afero.Fs) afero.Fs
	}{
		{"read-only filesystem", func(base afero.Fs) afero.Fs { return afero.NewReadOnlyFs(base) }},
		{"rename fails", func(base afero.Fs) afero.Fs { return renameFailFs{Fs: base} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(base, "/data/tools.json", original, 0o644))

			err := WriteAtomic(tt.fs(base), "/data/tools.json", sampleCatalog())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrWriteFailure))

			got, err := afero.ReadFile(base, "/data/tools.json")
			require.NoError(t, err)
			assert.Equal(t, original, got)

			entries, err := afero.ReadDir(base, "/data")
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}
