package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Taxonomy.Path)
	assert.False(t, cfg.Taxonomy.KeepExisting)
	assert.InDelta(t, 0.85, cfg.Detect.SimilarityThreshold, 0.001)
	assert.True(t, cfg.Detect.Fuzzy)
	assert.Equal(t, 2, cfg.Detect.MinNameLen)
	assert.Equal(t, 60, cfg.Detect.MaxNameLen)
	assert.Equal(t, 8, cfg.Detect.MaxWords)
	assert.Equal(t, 15, cfg.Detect.MaxCapsLen)
	assert.InDelta(t, 4.0, cfg.Catalog.DefaultRating, 0.001)
	assert.Equal(t, "Standard", cfg.Catalog.DefaultPlanName)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "catalog-runs.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 3, cfg.Store.RetryAttempts)
	assert.Empty(t, cfg.Report.Path)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: json
taxonomy:
  path: ./taxonomy.yaml
  keep_existing: true
detect:
  similarity_threshold: 0.9
  fuzzy: false
  denylist:
    - "see more"
store:
  driver: none
report:
  path: changes.json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "./taxonomy.yaml", cfg.Taxonomy.Path)
	assert.True(t, cfg.Taxonomy.KeepExisting)
	assert.InDelta(t, 0.9, cfg.Detect.SimilarityThreshold, 0.001)
	assert.False(t, cfg.Detect.Fuzzy)
	assert.Equal(t, []string{"see more"}, cfg.Detect.Denylist)
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "changes.json", cfg.Report.Path)
	// Defaults still apply for unset values
	assert.Equal(t, 60, cfg.Detect.MaxNameLen)
	assert.Equal(t, "Standard", cfg.Catalog.DefaultPlanName)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: none
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CATALOG_STORE_DRIVER", "sqlite")
	t.Setenv("CATALOG_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CATALOG_DETECT_SIMILARITY_THRESHOLD", "0.7")
	t.Setenv("CATALOG_CATALOG_DEFAULT_RATING", "3.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.7, cfg.Detect.SimilarityThreshold, 0.001)
	assert.InDelta(t, 3.5, cfg.Catalog.DefaultRating, 0.001)
}

func TestLoadInvalidValues(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CATALOG_DETECT_SIMILARITY_THRESHOLD", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "similarity_threshold")
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Detect.SimilarityThreshold = 0.85
	cfg.Detect.MinNameLen = 2
	cfg.Detect.MaxNameLen = 60
	cfg.Catalog.DefaultRating = 4
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "runs.db"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "threshold one", mutate: func(c *Config) { c.Detect.SimilarityThreshold = 1 }},
		{name: "threshold zero", mutate: func(c *Config) { c.Detect.SimilarityThreshold = 0 }, wantErr: "similarity_threshold"},
		{name: "threshold above one", mutate: func(c *Config) { c.Detect.SimilarityThreshold = 1.01 }, wantErr: "similarity_threshold"},
		{name: "name bounds inverted", mutate: func(c *Config) { c.Detect.MinNameLen = 70 }, wantErr: "min_name_len"},
		{name: "rating low", mutate: func(c *Config) { c.Catalog.DefaultRating = 0.5 }, wantErr: "default_rating"},
		{name: "rating high", mutate: func(c *Config) { c.Catalog.DefaultRating = 6 }, wantErr: "default_rating"},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }, wantErr: "store.driver"},
		{name: "missing url", mutate: func(c *Config) { c.Store.DatabaseURL = "" }, wantErr: "store.database_url is required"},
		{name: "negative retries", mutate: func(c *Config) { c.Store.RetryAttempts = -1 }, wantErr: "retry_attempts"},
		{name: "none needs no url", mutate: func(c *Config) { c.Store.Driver = "none"; c.Store.DatabaseURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Detect.SimilarityThreshold = 2
	cfg.Catalog.DefaultRating = 0
	cfg.Store.Driver = "mysql"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "similarity_threshold")
	assert.Contains(t, err.Error(), "default_rating")
	assert.Contains(t, err.Error(), "store.driver")
}

func TestConversions(t *testing.T) {
	cfg := validDefaults()
	cfg.Detect.Fuzzy = true
	cfg.Detect.Denylist = []string{"menu"}
	cfg.Taxonomy.KeepExisting = true
	cfg.Catalog.DefaultPlanName = "Basic"

	d := cfg.DetectOptions()
	assert.InDelta(t, 0.85, d.Threshold, 0.001)
	assert.True(t, d.Fuzzy)
	assert.Equal(t, []string{"menu"}, d.Denylist)

	assert.True(t, cfg.ClassifyOptions().KeepExisting)

	c := cfg.CatalogDefaults()
	assert.InDelta(t, 4.0, c.Rating, 0.001)
	assert.Equal(t, "Basic", c.PlanName)

	assert.Equal(t, 3, cfg.StoreRetry().MaxAttempts)
	cfg.Store.RetryAttempts = 5
	assert.Equal(t, 5, cfg.StoreRetry().MaxAttempts)
}
