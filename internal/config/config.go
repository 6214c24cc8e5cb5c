package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aitools-hub/catalog-cli/internal/catalog"
	"github.com/aitools-hub/catalog-cli/internal/classify"
	"github.com/aitools-hub/catalog-cli/internal/detect"
	"github.com/aitools-hub/catalog-cli/internal/resilience"
	"github.com/aitools-hub/catalog-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Taxonomy TaxonomyConfig `yaml:"taxonomy" mapstructure:"taxonomy"`
	Detect   DetectConfig   `yaml:"detect" mapstructure:"detect"`
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TaxonomyConfig selects the taxonomy file and classification mode.
type TaxonomyConfig struct {
	// Path to a YAML/JSON taxonomy. Empty uses the embedded default.
	Path         string `yaml:"path" mapstructure:"path"`
	KeepExisting bool   `yaml:"keep_existing" mapstructure:"keep_existing"`
}

// DetectConfig tunes duplicate and artifact detection.
type DetectConfig struct {
	SimilarityThreshold float64  `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	Fuzzy               bool     `yaml:"fuzzy" mapstructure:"fuzzy"`
	MinNameLen          int      `yaml:"min_name_len" mapstructure:"min_name_len"`
	MaxNameLen          int      `yaml:"max_name_len" mapstructure:"max_name_len"`
	MaxWords            int      `yaml:"max_words" mapstructure:"max_words"`
	MaxCapsLen          int      `yaml:"max_caps_len" mapstructure:"max_caps_len"`
	Denylist            []string `yaml:"denylist" mapstructure:"denylist"`
	GenericWords        []string `yaml:"generic_words" mapstructure:"generic_words"`
}

// CatalogConfig holds schema defaults applied while loading.
type CatalogConfig struct {
	DefaultRating   float64 `yaml:"default_rating" mapstructure:"default_rating"`
	DefaultPlanName string  `yaml:"default_plan_name" mapstructure:"default_plan_name"`
}

// StoreConfig configures run history. Driver is sqlite, postgres or none.
type StoreConfig struct {
	Driver        string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string           `yaml:"database_url" mapstructure:"database_url"`
	RetryAttempts int              `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	Pool          store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ReportConfig sets the default change report destination.
type ReportConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	d := detect.DefaultOptions()
	c := catalog.DefaultDefaults()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("taxonomy.path", "")
	v.SetDefault("taxonomy.keep_existing", false)
	v.SetDefault("detect.similarity_threshold", d.Threshold)
	v.SetDefault("detect.fuzzy", d.Fuzzy)
	v.SetDefault("detect.min_name_len", d.MinNameLen)
	v.SetDefault("detect.max_name_len", d.MaxNameLen)
	v.SetDefault("detect.max_words", d.MaxWords)
	v.SetDefault("detect.max_caps_len", d.MaxCapsLen)
	v.SetDefault("detect.denylist", []string{})
	v.SetDefault("detect.generic_words", []string{})
	v.SetDefault("catalog.default_rating", c.Rating)
	v.SetDefault("catalog.default_plan_name", c.PlanName)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "catalog-runs.db")
	v.SetDefault("store.retry_attempts", 3)
	v.SetDefault("report.path", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no run could use. All problems are reported
// in a single error.
func (c *Config) Validate() error {
	var errs []string

	if t := c.Detect.SimilarityThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Sprintf("detect.similarity_threshold must be in (0, 1], got %g", t))
	}
	if c.Detect.MinNameLen < 0 || (c.Detect.MaxNameLen > 0 && c.Detect.MaxNameLen < c.Detect.MinNameLen) {
		errs = append(errs, "detect.min_name_len must be >= 0 and <= detect.max_name_len")
	}
	if r := c.Catalog.DefaultRating; r < 1 || r > 5 {
		errs = append(errs, fmt.Sprintf("catalog.default_rating must be in [1, 5], got %g", r))
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "none":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of sqlite, postgres, none", c.Store.Driver))
	}
	if c.Store.RetryAttempts < 0 {
		errs = append(errs, "store.retry_attempts must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DetectOptions converts the detect section to detector options. Empty
// lists keep the built-in defaults.
func (c *Config) DetectOptions() detect.Options {
	return detect.Options{
		Threshold:    c.Detect.SimilarityThreshold,
		Fuzzy:        c.Detect.Fuzzy,
		MinNameLen:   c.Detect.MinNameLen,
		MaxNameLen:   c.Detect.MaxNameLen,
		MaxWords:     c.Detect.MaxWords,
		MaxCapsLen:   c.Detect.MaxCapsLen,
		Denylist:     c.Detect.Denylist,
		GenericWords: c.Detect.GenericWords,
	}
}

// ClassifyOptions converts the taxonomy section to classifier options.
func (c *Config) ClassifyOptions() classify.Options {
	return classify.Options{KeepExisting: c.Taxonomy.KeepExisting}
}

// CatalogDefaults converts the catalog section to loader defaults.
func (c *Config) CatalogDefaults() catalog.Defaults {
	return catalog.Defaults{Rating: c.Catalog.DefaultRating, PlanName: c.Catalog.DefaultPlanName}
}

// StoreRetry returns the retry policy applied to run-history calls. Zero
// attempts keeps the package default.
func (c *Config) StoreRetry() resilience.RetryConfig {
	r := resilience.DefaultRetryConfig()
	if c.Store.RetryAttempts > 0 {
		r.MaxAttempts = c.Store.RetryAttempts
	}
	return r
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
