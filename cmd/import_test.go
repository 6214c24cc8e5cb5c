package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitools-hub/catalog-cli/internal/catalog"
	"github.com/aitools-hub/catalog-cli/internal/reconcile"
	"github.com/aitools-hub/catalog-cli/internal/tabular"
)

const testCSV = `Name,Description,Category,Features,Pricing,Rating
ChatGPT,Conversational chatbot.,Writing,Chat; Code,Free; Plus: $20/mo,4.8
Surfer SEO,Optimize articles for keywords.,,Audit,Basic: 59,
`

func TestImportCmd_Metadata(t *testing.T) {
	assert.Equal(t, "import <tools.csv|tools.tsv|tools.xlsx>", importCmd.Use)
	assert.NotEmpty(t, importCmd.Short)
	assert.NotNil(t, importCmd.Flags().Lookup("output"))
	assert.NotNil(t, importCmd.Flags().Lookup("sheet"))
	assert.NotNil(t, importCmd.Flags().Lookup("force"))
}

func TestRunImport_CSV(t *testing.T) {
	setTestConfig(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/export/tools.csv", []byte(testCSV), 0o644))

	var out bytes.Buffer
	require.NoError(t, runImport(context.Background(), &out, fs, "/export/tools.csv", "", "", false))
	assert.Contains(t, out.String(), "imported 2 records")
	assert.Contains(t, out.String(), "/export/tools.json")

	cat, _, err := catalog.NewLoader(fs, catalog.DefaultDefaults()).Load("/export/tools.json")
	require.NoError(t, err)
	require.Len(t, cat, 2)
	assert.Equal(t, "ChatGPT", cat[0].Name)
	assert.Equal(t, []string{"Chat", "Code"}, cat[0].Features)
	assert.Equal(t, "surfer-seo", cat[1].Slug)
	assert.Equal(t, 4.0, cat[1].Rating)
}

func TestRunImport_ThenReconcile(t *testing.T) {
	setTestConfig(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tools.csv", []byte(testCSV), 0o644))

	var out bytes.Buffer
	require.NoError(t, runImport(context.Background(), &out, fs, "/tools.csv", "/catalog.json", "", false))

	out.Reset()
	require.NoError(t, runReconcile(context.Background(), &out, fs, reconcileOptions{
		Pipeline:  reconcile.Options{InputPath: "/catalog.json"},
		Threshold: cfg.Detect.SimilarityThreshold,
	}))
	assert.Contains(t, out.String(), "records: 2 in, 2 out")
}

func TestRunImport_Errors(t *testing.T) {
	setTestConfig(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tools.txt", []byte("name\nx\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/noname.csv", []byte("id,category\n1,Writing\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/empty.csv", []byte("\n\n"), 0o644))

	var out bytes.Buffer
	err := runImport(context.Background(), &out, fs, "/tools.txt", "", "", false)
	assert.True(t, errors.Is(err, tabular.ErrUnsupportedFormat))

	err = runImport(context.Background(), &out, fs, "/noname.csv", "", "", false)
	assert.True(t, errors.Is(err, catalog.ErrMalformedInput))

	err = runImport(context.Background(), &out, fs, "/empty.csv", "", "", false)
	assert.True(t, errors.Is(err, tabular.ErrEmpty))

	ok, err := afero.Exists(fs, "/noname.json")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, out.String())
}

func TestRunImport_ExistingOutput(t *testing.T) {
	setTestConfig(t)
	fs := afero.NewMemMapFs()
	existing := []byte(`[{"id":"keep","name":"Hand curated","slug":"hand-curated"}]`)
	require.NoError(t, afero.WriteFile(fs, "/tools.csv", []byte(testCSV), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/tools.json", existing, 0o644))

	var out bytes.Buffer
	err := runImport(context.Background(), &out, fs, "/tools.csv", "", "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Contains(t, err.Error(), "--force")
	got, err := afero.ReadFile(fs, "/tools.json")
	require.NoError(t, err)
	assert.Equal(t, existing, got)
	assert.Empty(t, out.String())

	require.NoError(t, runImport(context.Background(), &out, fs, "/tools.csv", "", "", true))
	cat, _, err := catalog.NewLoader(fs, catalog.DefaultDefaults()).Load("/tools.json")
	require.NoError(t, err)
	require.Len(t, cat, 2)
	assert.Equal(t, "ChatGPT", cat[0].Name)
}
