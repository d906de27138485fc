// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG subdirectories and the environment prefix.
const AppName = "notionat"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NOTIONAT_"

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// Config represents the application configuration
type Config struct {
	Notion       NotionConfig  `yaml:"notion" envPrefix:"NOTION_"`
	Store        StoreConfig   `yaml:"store" envPrefix:"STORE_"`
	Cache        CacheConfig   `yaml:"cache"`
	Repos        ReposConfig   `yaml:"repos"`
	OutputFormat string        `yaml:"output_format" env:"OUTPUT_FORMAT"`
	Logging      LoggingConfig `yaml:"logging"`
}

// NotionConfig holds Notion API connection settings
type NotionConfig struct {
	Token      string `yaml:"token" env:"TOKEN"`
	BaseURL    string `yaml:"base_url,omitempty" env:"BASE_URL"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`
}

// StoreConfig selects the local cache store
type StoreConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	Path   string `yaml:"path,omitempty" env:"PATH"`
}

// CacheConfig holds cache behaviour settings
type CacheConfig struct {
	GuardStaleFetches bool `yaml:"guard_stale_fetches"`
}

// ReposConfig holds Git repository picker settings
type ReposConfig struct {
	Roots         []string `yaml:"roots"`
	MaxDepth      int      `yaml:"max_depth"`
	WatchDebounce string   `yaml:"watch_debounce"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	File string `yaml:"file"`
}

var validDrivers = map[string]bool{"sqlite": true, "bolt": true, "memory": true}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Notion: NotionConfig{
			Timeout:    "30s",
			MaxRetries: 3,
			RetryDelay: "1s",
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Repos: ReposConfig{
			Roots:         []string{"~/Developer", "~/code"},
			MaxDepth:      3,
			WatchDebounce: "1s",
		},
		OutputFormat: "text",
	}
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, the sample is written there and defaults are used.
// Environment overrides are applied last.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = GetConfigPath()
	}

	var cfg *Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
		if err := cfg.save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.expandPaths()
	return cfg, nil
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from NOTIONAT_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) expandPaths() {
	c.Store.Path = ExpandPath(c.Store.Path)
	c.Logging.File = ExpandPath(c.Logging.File)
	for i, root := range c.Repos.Roots {
		c.Repos.Roots[i] = ExpandPath(root)
	}
}

// save writes the sample configuration to the specified path
func (c *Config) save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}

	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("unknown store.driver: %q (must be sqlite, bolt or memory)", c.Store.Driver)
	}

	if c.Repos.MaxDepth < 0 {
		return fmt.Errorf("repos.max_depth must not be negative, got %d", c.Repos.MaxDepth)
	}
	if c.Notion.MaxRetries < 0 {
		return fmt.Errorf("notion.max_retries must not be negative, got %d", c.Notion.MaxRetries)
	}

	durations := []struct{ name, value string }{
		{"notion.timeout", c.Notion.Timeout},
		{"notion.retry_delay", c.Notion.RetryDelay},
		{"repos.watch_debounce", c.Repos.WatchDebounce},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", d.name, d.value)
		}
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %q", d.name, d.value)
		}
	}

	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(jsonOutput bool) {
	if jsonOutput {
		c.OutputFormat = "json"
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// NotionTimeout returns the per-request timeout, 30s when unset.
func (c *Config) NotionTimeout() time.Duration {
	return parseDuration(c.Notion.Timeout, 30*time.Second)
}

// NotionRetryDelay returns the initial backoff after a 429, 1s when unset.
func (c *Config) NotionRetryDelay() time.Duration {
	return parseDuration(c.Notion.RetryDelay, time.Second)
}

// WatchDebounce returns the rescan debounce for repos --watch.
func (c *Config) WatchDebounce() time.Duration {
	return parseDuration(c.Repos.WatchDebounce, time.Second)
}

// StorePath returns the store file, defaulting into the XDG cache directory.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	name := "cache.db"
	if c.Store.Driver == "bolt" {
		name = "cache.bolt"
	}
	return filepath.Join(GetCacheDir(), name)
}

// Redacted returns a copy safe to print, with the token masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Repos.Roots = append([]string(nil), c.Repos.Roots...)
	if out.Notion.Token != "" {
		out.Notion.Token = "********"
	}
	return &out
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// GetCacheDir returns the cache directory following XDG spec
func GetCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	return os.ExpandEnv(path)
}
