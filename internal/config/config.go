package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultCollection     = "sentinel-2-l2a"
	DefaultTimeout        = 30 * time.Second
	DefaultPageLimit      = 100
	DefaultMaxPages       = 10
	DefaultCloudThreshold = 20.0

	// Scene filter defaults, matching the workshop's filter parameters.
	DefaultValidityThreshold = 0.6
	DefaultCoverageThreshold = 0.8

	DefaultOutputDir  = "out"
	DefaultSeriesFile = "vegetation_series.csv"
)

// Series value modes.
const (
	ValuePercent = "percent"
	ValueArea    = "area"
)

// Config is the top-level workflow configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Search  SearchConfig  `yaml:"search"`
	Filter  FilterConfig  `yaml:"filter"`
	Extract ExtractConfig `yaml:"extract"`
	Output  OutputConfig  `yaml:"output"`
}

// CatalogConfig describes the STAC API endpoint to query.
type CatalogConfig struct {
	// URL is the root of the STAC API (e.g. https://earth-search.aws.element84.com/v1).
	URL string `yaml:"url"`

	// Collection is the STAC collection identifier to search.
	Collection string `yaml:"collection"`

	// Timeout bounds each HTTP request to the catalog.
	Timeout time.Duration `yaml:"timeout"`

	// PageLimit is the number of items requested per search page.
	PageLimit int `yaml:"page_limit"`

	// MaxPages caps how many result pages a single search will follow.
	MaxPages int `yaml:"max_pages"`

	// Auth configures how requests to the catalog authenticate.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig specifies the authentication mode for the catalog.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | none.
	Mode string `yaml:"mode"`

	// API key fields — used when Mode == "apikey".
	// Header is the HTTP header name to send the key in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// Bearer token fields — used when Mode == "bearer".
	// TokenEnv is the name of the environment variable that holds the token.
	TokenEnv string `yaml:"token_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// TLSConfig holds TLS dial options for the catalog connection.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this against internal mirrors in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// SearchConfig is the spatiotemporal search window.
type SearchConfig struct {
	// BBox is the bounding box [min_lon, min_lat, max_lon, max_lat].
	BBox []float64 `yaml:"bbox"`

	// DateRange is an ISO 8601 interval, e.g. "2020-06-01/2020-12-30".
	DateRange string `yaml:"date_range"`

	// CloudCoverThreshold is the maximum scene cloud cover percentage (0-100).
	CloudCoverThreshold float64 `yaml:"cloud_cover_threshold"`
}

// FilterConfig holds the scene quality thresholds.
type FilterConfig struct {
	// ValidityThreshold is the minimum valid-pixel ratio (0-1) to keep a scene.
	ValidityThreshold float64 `yaml:"validity_threshold"`

	// CoverageThreshold is the minimum clear spatial coverage (0-1) to keep a scene.
	CoverageThreshold float64 `yaml:"coverage_threshold"`
}

// ExtractConfig controls how the vegetation series is derived.
type ExtractConfig struct {
	// Value selects the series unit: "percent" (vegetation percentage as-is)
	// or "area" (km², vegetation fraction times the bbox surface area).
	Value string `yaml:"value"`

	// AggregateDaily averages multiple scenes that fall on the same date.
	AggregateDaily bool `yaml:"aggregate_daily"`
}

// OutputConfig names the files a run writes.
type OutputConfig struct {
	// Directory is created if missing; all outputs land under it.
	Directory string `yaml:"directory"`

	// SeriesFile is the CSV the extracted series is written to.
	SeriesFile string `yaml:"series_file"`

	// MetricsFile, when set, receives a Prometheus textfile run summary.
	MetricsFile string `yaml:"metrics_file"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Collection: DefaultCollection,
			Timeout:    DefaultTimeout,
			PageLimit:  DefaultPageLimit,
			MaxPages:   DefaultMaxPages,
		},
		Search: SearchConfig{
			CloudCoverThreshold: DefaultCloudThreshold,
		},
		Filter: FilterConfig{
			ValidityThreshold: DefaultValidityThreshold,
			CoverageThreshold: DefaultCoverageThreshold,
		},
		Extract: ExtractConfig{
			Value:          ValuePercent,
			AggregateDaily: true,
		},
		Output: OutputConfig{
			Directory:  DefaultOutputDir,
			SeriesFile: DefaultSeriesFile,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Catalog.URL == "" {
		return fmt.Errorf("catalog.url is required")
	}
	if cfg.Catalog.Timeout <= 0 {
		return fmt.Errorf("catalog.timeout must be positive")
	}
	if cfg.Catalog.PageLimit <= 0 {
		return fmt.Errorf("catalog.page_limit must be positive")
	}
	switch cfg.Catalog.Auth.Mode {
	case "apikey", "bearer", "none", "":
	default:
		return fmt.Errorf("catalog.auth: unknown mode %q", cfg.Catalog.Auth.Mode)
	}
	if cfg.Catalog.Auth.Mode == "apikey" && cfg.Catalog.Auth.Header == "" {
		return fmt.Errorf("catalog.auth: apikey mode requires header")
	}

	if len(cfg.Search.BBox) != 4 {
		return fmt.Errorf("search.bbox must hold four numbers [min_lon, min_lat, max_lon, max_lat]")
	}
	if cfg.Search.BBox[0] >= cfg.Search.BBox[2] || cfg.Search.BBox[1] >= cfg.Search.BBox[3] {
		return fmt.Errorf("search.bbox: min corner must be south-west of max corner")
	}
	if cfg.Search.DateRange == "" {
		return fmt.Errorf("search.date_range is required")
	}
	if !strings.Contains(cfg.Search.DateRange, "/") {
		return fmt.Errorf("search.date_range must be an ISO 8601 interval like 2020-06-01/2020-12-30")
	}
	if cfg.Search.CloudCoverThreshold < 0 || cfg.Search.CloudCoverThreshold > 100 {
		return fmt.Errorf("search.cloud_cover_threshold must be in [0, 100]")
	}

	if cfg.Filter.ValidityThreshold < 0 || cfg.Filter.ValidityThreshold > 1 {
		return fmt.Errorf("filter.validity_threshold must be in [0, 1]")
	}
	if cfg.Filter.CoverageThreshold < 0 || cfg.Filter.CoverageThreshold > 1 {
		return fmt.Errorf("filter.coverage_threshold must be in [0, 1]")
	}

	switch cfg.Extract.Value {
	case ValuePercent, ValueArea:
	default:
		return fmt.Errorf("extract.value must be %q or %q", ValuePercent, ValueArea)
	}

	if cfg.Output.Directory == "" {
		return fmt.Errorf("output.directory is required")
	}
	if cfg.Output.SeriesFile == "" {
		return fmt.Errorf("output.series_file is required")
	}
	return nil
}
