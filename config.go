package geodict

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable holding the config file path.
const ConfigEnv = "GEODICT_CONFIG"

// Config configures a Builder. The exported, tagged fields can be loaded
// from a YAML file; the rest are set with options.
type Config struct {
	SourcesDir       string             `yaml:"sources"`
	OutputDir        string             `yaml:"output"`
	Version          string             `yaml:"version"`
	Bundle           bool               `yaml:"bundle"`
	Compression      string             `yaml:"compression"`
	Lock             bool               `yaml:"lock"`
	NearMissDistance int                `yaml:"near_miss_distance"`
	Reference        ReferenceLocations `yaml:"reference"`

	Logger      *slog.Logger      `yaml:"-"`
	HTTPClient  *http.Client      `yaml:"-"`
	CountryData *CountryReference `yaml:"-"` // preloaded reference; skips fetching
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		SourcesDir:  "./dict/sources",
		OutputDir:   "./dict/generated",
		Version:     "1.0.0",
		Compression: CompressionZstd.String(),
		Reference:   DefaultReferenceLocations(),
	}
}

// LoadConfig reads a YAML config file over DefaultConfig. Keys absent from
// the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigFromEnv loads the file named by GEODICT_CONFIG, or returns
// DefaultConfig when the variable is unset.
func LoadConfigFromEnv() (*Config, error) {
	path := os.Getenv(ConfigEnv)
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

func (c *Config) validate() error {
	if c.SourcesDir == "" {
		return fmt.Errorf("sources directory is empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is empty")
	}
	if c.Version == "" {
		return fmt.Errorf("version is empty")
	}
	if c.NearMissDistance < 0 {
		return fmt.Errorf("near_miss_distance must not be negative")
	}
	if _, err := ParseCompression(c.Compression); err != nil {
		return err
	}
	return nil
}

// Option is a functional option for configuring a Builder.
type Option func(*Config)

// WithConfig replaces the whole configuration; later options still apply.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithSourcesDir sets the directory holding source and patch documents.
func WithSourcesDir(dir string) Option {
	return func(c *Config) {
		c.SourcesDir = dir
	}
}

// WithOutputDir sets the directory artifacts and version.json are written to.
func WithOutputDir(dir string) Option {
	return func(c *Config) {
		c.OutputDir = dir
	}
}

// WithVersion sets the dictionary version recorded by this run.
func WithVersion(v string) Option {
	return func(c *Config) {
		c.Version = v
	}
}

// WithLogger sets the logger build summaries are written to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithBundle enables the binary bundle artifact with the given compression.
func WithBundle(comp Compression) Option {
	return func(c *Config) {
		c.Bundle = true
		c.Compression = comp.String()
	}
}

// WithLocking enables the advisory lock around version.json updates.
func WithLocking(lock bool) Option {
	return func(c *Config) {
		c.Lock = lock
	}
}

// WithReference supplies country reference data instead of fetching it.
func WithReference(ref *CountryReference) Option {
	return func(c *Config) {
		c.CountryData = ref
	}
}

// WithReferenceLocations sets where country reference data is fetched from.
func WithReferenceLocations(locs ReferenceLocations) Option {
	return func(c *Config) {
		c.Reference = locs
	}
}

// WithHTTPClient sets the client used to fetch reference data.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithNearMissDistance enables the near-miss alias report. 0 disables it.
func WithNearMissDistance(d int) Option {
	return func(c *Config) {
		c.NearMissDistance = d
	}
}
