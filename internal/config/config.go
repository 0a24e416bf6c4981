// Package config provides configuration loading for the desk tools.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// MaxBookTimeout caps how long a single book fetch may take.
const MaxBookTimeout = 5 * time.Second

// Config represents the desk configuration.
type Config struct {
	// Discovery API settings
	Gamma GammaConfig `yaml:"gamma"`

	// Trading API settings
	Clob ClobConfig `yaml:"clob"`

	// WebSocket settings
	WebSocket WebSocketConfig `yaml:"websocket"`

	// Market resolution settings
	Resolver ResolverConfig `yaml:"resolver"`

	// Order validation limits
	Order OrderConfig `yaml:"order"`

	// Dashboard loop settings
	Dashboard DashboardConfig `yaml:"dashboard"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// GammaConfig contains discovery API settings.
type GammaConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ClobConfig contains trading API settings.
type ClobConfig struct {
	BaseURL string `yaml:"base_url"`

	// Per-call book fetch timeout, at most 5s
	BookTimeout time.Duration `yaml:"book_timeout"`
}

// ResolverConfig contains market resolution settings.
type ResolverConfig struct {
	// Keep inactive and closed markets in resolutions
	IncludeInactive bool `yaml:"include_inactive"`

	// Template for generated hourly slugs
	Hourly HourlyConfig `yaml:"hourly"`
}

// HourlyConfig describes generated slugs such as
// "bitcoin-up-or-down-january-18-4am-et".
type HourlyConfig struct {
	Prefix   string `yaml:"prefix"`
	Timezone string `yaml:"timezone"`
	Suffix   string `yaml:"suffix"`
}

// OrderConfig contains order validation limits. Prices are exclusive
// bounds.
type OrderConfig struct {
	MinPrice decimal.Decimal `yaml:"min_price"`
	MaxPrice decimal.Decimal `yaml:"max_price"`
	TickSize decimal.Decimal `yaml:"tick_size"`
	MinSize  decimal.Decimal `yaml:"min_size"`
}

// DashboardConfig contains settings for the dashboard loop.
type DashboardConfig struct {
	// URL, slug or search keyword; ignored when Hourly is set
	Reference string `yaml:"reference"`

	// Follow the generated hourly slug instead of a fixed reference
	Hourly bool `yaml:"hourly"`

	// Which outcome to watch: "yes" (first token) or "no" (complement)
	Outcome string `yaml:"outcome"`

	// How often to refresh in poll mode, between 1s and 5s
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// "poll" fetches the book each interval, "stream" uses the websocket
	Mode string `yaml:"mode"`

	// Levels per side to render
	Depth int `yaml:"depth"`
}

// StorageConfig contains storage settings.
type StorageConfig struct {
	// Storage type: "file" or "none"
	Type string `yaml:"type"`

	// Output directory for file storage
	OutputDir string `yaml:"output_dir"`

	// File rotation interval
	RotationInterval time.Duration `yaml:"rotation_interval"`
}

// WebSocketConfig contains WebSocket settings.
type WebSocketConfig struct {
	// Custom WebSocket URL (optional)
	URL string `yaml:"url"`

	// Initial reconnection backoff
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// Maximum reconnection backoff
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// Backoff multiplier
	BackoffFactor float64 `yaml:"backoff_factor"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `yaml:"level"`

	// Log format: text or json
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Gamma: GammaConfig{
			BaseURL: "https://gamma-api.polymarket.com",
			Timeout: 10 * time.Second,
		},
		Clob: ClobConfig{
			BaseURL:     "https://clob.polymarket.com",
			BookTimeout: MaxBookTimeout,
		},
		Resolver: ResolverConfig{
			Hourly: HourlyConfig{
				Prefix:   "bitcoin-up-or-down",
				Timezone: "America/New_York",
				Suffix:   "et",
			},
		},
		Order: OrderConfig{
			MinPrice: decimal.Zero,
			MaxPrice: decimal.NewFromInt(1),
			TickSize: decimal.RequireFromString("0.01"),
			MinSize:  decimal.Zero,
		},
		Dashboard: DashboardConfig{
			Outcome:         "yes",
			RefreshInterval: 2 * time.Second,
			Mode:            "poll",
			Depth:           10,
		},
		Storage: StorageConfig{
			Type:             "none",
			OutputDir:        "data",
			RotationInterval: 1 * time.Hour,
		},
		WebSocket: WebSocketConfig{
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     30 * time.Second,
			BackoffFactor:  2.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.ApplyEnv(os.LookupEnv)
	return config, nil
}

// ApplyEnv overrides fields from PMDESK_* variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("PMDESK_GAMMA_URL", &c.Gamma.BaseURL)
	set("PMDESK_CLOB_URL", &c.Clob.BaseURL)
	set("PMDESK_WS_URL", &c.WebSocket.URL)
	set("PMDESK_REFERENCE", &c.Dashboard.Reference)
	set("PMDESK_LOG_LEVEL", &c.Logging.Level)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Gamma.BaseURL == "" {
		return fmt.Errorf("gamma.base_url is required")
	}
	if c.Clob.BaseURL == "" {
		return fmt.Errorf("clob.base_url is required")
	}
	if c.Clob.BookTimeout <= 0 || c.Clob.BookTimeout > MaxBookTimeout {
		return fmt.Errorf("clob.book_timeout must be in (0, %s], got %s", MaxBookTimeout, c.Clob.BookTimeout)
	}

	if c.Order.MaxPrice.LessThanOrEqual(c.Order.MinPrice) {
		return fmt.Errorf("order.max_price %s must exceed order.min_price %s", c.Order.MaxPrice, c.Order.MinPrice)
	}
	if c.Order.TickSize.IsNegative() || c.Order.MinSize.IsNegative() {
		return fmt.Errorf("order.tick_size and order.min_size must not be negative")
	}

	d := c.Dashboard
	if d.RefreshInterval < time.Second || d.RefreshInterval > 5*time.Second {
		return fmt.Errorf("dashboard.refresh_interval must be between 1s and 5s, got %s", d.RefreshInterval)
	}
	if d.Mode != "poll" && d.Mode != "stream" {
		return fmt.Errorf("invalid dashboard mode: %s", d.Mode)
	}
	if d.Outcome != "yes" && d.Outcome != "no" {
		return fmt.Errorf("invalid dashboard outcome: %s", d.Outcome)
	}
	if d.Depth <= 0 {
		return fmt.Errorf("dashboard.depth must be positive")
	}
	if d.Hourly && c.Resolver.Hourly.Prefix == "" {
		return fmt.Errorf("resolver.hourly.prefix required for hourly dashboard")
	}

	if c.Storage.Type != "file" && c.Storage.Type != "none" {
		return fmt.Errorf("invalid storage type: %s", c.Storage.Type)
	}
	if c.Storage.Type == "file" && c.Storage.OutputDir == "" {
		return fmt.Errorf("output_dir required for file storage")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}
	return nil
}
