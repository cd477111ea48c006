package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its configuration
const DefaultPath = "~/.filmfinder/config.yaml"

// Config represents the application configuration
type Config struct {
	TMDB    TMDBConfig    `yaml:"tmdb"`
	OMDB    OMDBConfig    `yaml:"omdb"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Options OptionsConfig `yaml:"options"`
}

// TMDBConfig holds TMDB API configuration
type TMDBConfig struct {
	APIKey       string `yaml:"api_key" validate:"required"`
	Language     string `yaml:"language"`
	BaseURL      string `yaml:"base_url" validate:"omitempty,url"`
	ImageBaseURL string `yaml:"image_base_url" validate:"omitempty,url"`
}

// OMDBConfig holds OMDb API configuration. OMDb is optional; without it
// details keep their "N/A" ratings.
type OMDBConfig struct {
	APIKey  string `yaml:"api_key" validate:"required_if=Enabled true"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	Enabled bool   `yaml:"enabled"`
}

// StorageConfig selects where the watchlist and history are kept
type StorageConfig struct {
	Backend             string `yaml:"backend" validate:"oneof=memory file sqlite badger"`
	Path                string `yaml:"path" validate:"required_unless=Backend memory"`
	WatchlistKey        string `yaml:"watchlist_key"`
	RecentlyViewedKey   string `yaml:"recently_viewed_key"`
	RecentlyViewedLimit int    `yaml:"recently_viewed_limit" validate:"min=1,max=100"`
}

// CacheConfig holds provider response cache settings
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Backend string `yaml:"backend" validate:"oneof=sqlite memory"`
	Path    string `yaml:"path" validate:"required_if=Enabled true Backend sqlite"`
	TTLDays int    `yaml:"ttl_days" validate:"min=1,max=365"`
	Size    int    `yaml:"size" validate:"min=1"`
}

// OptionsConfig holds additional options
type OptionsConfig struct {
	RateLimitDelay   int `yaml:"rate_limit_delay" validate:"min=0"`
	MaxAttempts      int `yaml:"max_attempts" validate:"min=1,max=10"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" validate:"min=1"`
	TimeoutSeconds   int `yaml:"timeout_seconds" validate:"min=1,max=300"`
}

var validate = validator.New()

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	// Read the config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding environment variables and
// applying defaults before validation
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.TMDB.APIKey == "your_api_key_here" {
		cfg.TMDB.APIKey = ""
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.TMDB.Language == "" {
		c.TMDB.Language = "en-US"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Path == "" && c.Storage.Backend != "memory" {
		c.Storage.Path = "~/.filmfinder/" + c.Storage.Backend
	}
	if c.Storage.RecentlyViewedLimit == 0 {
		c.Storage.RecentlyViewedLimit = 10
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "sqlite"
	}
	if c.Cache.Path == "" && c.Cache.Backend == "sqlite" {
		c.Cache.Path = "~/.filmfinder/cache.db"
	}
	if c.Cache.TTLDays == 0 {
		c.Cache.TTLDays = 1
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 512
	}
	if c.Options.MaxAttempts == 0 {
		c.Options.MaxAttempts = 3
	}
	if c.Options.InitialBackoffMs == 0 {
		c.Options.InitialBackoffMs = 1000
	}
	if c.Options.TimeoutSeconds == 0 {
		c.Options.TimeoutSeconds = 30
	}

	var err error
	if c.Storage.Path, err = ExpandHome(c.Storage.Path); err != nil {
		return err
	}
	if c.Cache.Path, err = ExpandHome(c.Cache.Path); err != nil {
		return err
	}
	return nil
}

// Validate checks field constraints and reports them one per line
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.StructNamespace() == "Config.TMDB.APIKey" {
			msgs = append(msgs, "TMDB API key is required. Get one from https://www.themoviedb.org/settings/api")
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config:\n  %s", strings.Join(msgs, "\n  "))
}

// OMDBActive reports whether OMDb lookups should be made
func (c *Config) OMDBActive() bool {
	return c.OMDB.Enabled && c.OMDB.APIKey != ""
}
