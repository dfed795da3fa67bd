package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/panbanda/trendline/pkg/graph"
	"github.com/panbanda/trendline/pkg/history"
)

// Config holds all configuration options for trendline.
type Config struct {
	// Default graph settings
	Graph GraphConfig `koanf:"graph" toml:"graph"`

	// Where run histories are read from
	History HistoryConfig `koanf:"history" toml:"history"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// GraphConfig holds the graph configuration used when none is given on the
// command line, and the health thresholds of the HEALTH graph.
type GraphConfig struct {
	Default      string `koanf:"default" toml:"default"` // serialized, e.g. 500!200!0!0!PRIORITY!0!!
	DefaultsFile string `koanf:"defaults_file" toml:"defaults_file"`
	Healthy      int    `koanf:"healthy" toml:"healthy"` // negative disables
	Unhealthy    int    `koanf:"unhealthy" toml:"unhealthy"`
	Threshold    int    `koanf:"threshold" toml:"threshold"`
}

// HistoryConfig controls how run histories are opened.
type HistoryConfig struct {
	Source     string `koanf:"source" toml:"source"` // dir, git
	ResultFile string `koanf:"result_file" toml:"result_file"`
	TimeZone   string `koanf:"time_zone" toml:"time_zone"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon, yaml
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "markdown", "toon", "yaml"}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			Healthy:   -1,
			Unhealthy: -1,
			Threshold: -1,
		},
		History: HistoryConfig{
			Source:     string(history.SourceDir),
			ResultFile: history.DefaultResultFile,
			TimeZone:   "Local",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".trendline/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is the config file path, or empty when the defaults were used.
	Source string
}

type loadOptions struct {
	path string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads the given file instead of searching the standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// searchPaths returns the standard config file locations in lookup order.
func searchPaths() []string {
	configNames := []string{
		"trendline.toml",
		"trendline.yaml",
		"trendline.yml",
		"trendline.json",
		".trendline.toml",
		".trendline.yaml",
		".trendline.yml",
		".trendline.json",
	}
	searchDirs := []string{".", ".trendline"}

	paths := make([]string, 0, len(configNames)*len(searchDirs))
	for _, dir := range searchDirs {
		for _, name := range configNames {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths
}

// LoadConfig loads and validates the configuration. Without WithPath the
// standard locations are searched and the defaults are used if none exists.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	source := o.path
	if source == "" {
		for _, path := range searchPaths() {
			if _, err := os.Stat(path); err == nil {
				source = path
				break
			}
		}
	}

	cfg := DefaultConfig()
	if source != "" {
		loaded, err := Load(source)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", source, err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", describeSource(source), err)
	}
	return &LoadResult{Config: cfg, Source: source}, nil
}

func describeSource(source string) string {
	if source == "" {
		return "(defaults)"
	}
	return source
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	switch history.Source(c.History.Source) {
	case history.SourceDir, history.SourceGit:
	default:
		errs = append(errs, fmt.Errorf("history.source: %w: %q", history.ErrUnknownSource, c.History.Source))
	}
	if c.History.ResultFile == "" {
		errs = append(errs, errors.New("history.result_file: must not be empty"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("history.time_zone: %w", err))
	}

	if !slices.Contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl: must not be negative, got %d", c.Cache.TTL))
	}

	if c.Graph.Healthy >= 0 && c.Graph.Unhealthy >= 0 && c.Graph.Unhealthy <= c.Graph.Healthy {
		errs = append(errs, fmt.Errorf("graph.unhealthy (%d) must be greater than graph.healthy (%d)", c.Graph.Unhealthy, c.Graph.Healthy))
	}
	if c.Graph.Default != "" {
		if _, err := graph.Parse(c.Registry(), c.Graph.Default); err != nil {
			errs = append(errs, fmt.Errorf("graph.default: %w", err))
		}
	}
	return errors.Join(errs...)
}

// HealthDescriptor returns the thresholds of the HEALTH graph.
func (c *Config) HealthDescriptor() graph.HealthDescriptor {
	return graph.HealthDescriptor{
		Healthy:   c.Graph.Healthy,
		Unhealthy: c.Graph.Unhealthy,
		Threshold: c.Graph.Threshold,
	}
}

// Registry returns the built-in graph types using the configured thresholds.
func (c *Config) Registry() *graph.Registry {
	return graph.DefaultRegistry(c.HealthDescriptor())
}

// GraphConfiguration resolves value like a graph configuration parameter:
// an invalid or empty value falls back to graph.default, then to the
// defaults file, then to the built-in defaults.
func (c *Config) GraphConfiguration(value string) *graph.Configuration {
	registry := c.Registry()
	cfg := graph.New(registry)
	if value != "" && cfg.InitializeFrom(value) {
		return cfg
	}
	return graph.NewConfiguration(registry, c.Graph.Default, c.Graph.DefaultsFile)
}

// Location returns the time zone used to derive calendar dates.
func (c *Config) Location() (*time.Location, error) {
	if c.History.TimeZone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.History.TimeZone)
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Hour
}
