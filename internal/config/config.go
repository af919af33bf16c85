// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	DB      DBConfig      `mapstructure:"db"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DBConfig controls access to the relational catalog store.
type DBConfig struct {
	Provider        string `mapstructure:"provider"`
	DSN             string `mapstructure:"dsn"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// ScraperConfig governs browser behavior and page interaction budgets.
// The wait fields bound the condition polls that replaced the original
// fixed pauses; their defaults are the original pause durations.
type ScraperConfig struct {
	MoviesURL    string `mapstructure:"movies_url"`
	ShowsURL     string `mapstructure:"shows_url"`
	UserAgent    string `mapstructure:"user_agent"`
	Headless     bool   `mapstructure:"headless"`
	WindowWidth  int    `mapstructure:"window_width"`
	WindowHeight int    `mapstructure:"window_height"`

	ScrollPasses int `mapstructure:"scroll_passes"`
	ScrollStep   int `mapstructure:"scroll_step"`

	NavigateWait     time.Duration `mapstructure:"navigate_wait"`
	ScrollWait       time.Duration `mapstructure:"scroll_wait"`
	ScrollIntoWait   time.Duration `mapstructure:"scroll_into_view_wait"`
	DetailOpenWait   time.Duration `mapstructure:"detail_open_wait"`
	DetailCloseWait  time.Duration `mapstructure:"detail_close_wait"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	SessionLifeLimit time.Duration `mapstructure:"session_life_limit"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HOTSTAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)

	v.SetDefault("db.provider", "postgres")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.conn_lifetime_minutes", 30)

	v.SetDefault("scraper.movies_url", "https://www.hotstar.com/in/movies")
	v.SetDefault("scraper.shows_url", "https://www.hotstar.com/in/shows")
	v.SetDefault("scraper.user_agent", "")
	v.SetDefault("scraper.headless", true)
	v.SetDefault("scraper.window_width", 1920)
	v.SetDefault("scraper.window_height", 1080)
	v.SetDefault("scraper.scroll_passes", 3)
	v.SetDefault("scraper.scroll_step", 2000)

	// Interaction budgets carried over from the original pause durations.
	v.SetDefault("scraper.navigate_wait", "3s")
	v.SetDefault("scraper.scroll_wait", "800ms")
	v.SetDefault("scraper.scroll_into_view_wait", "200ms")
	v.SetDefault("scraper.detail_open_wait", "1500ms")
	v.SetDefault("scraper.detail_close_wait", "500ms")
	v.SetDefault("scraper.poll_interval", "100ms")
	v.SetDefault("scraper.session_life_limit", "30m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required when db.provider is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown db provider: %s", c.DB.Provider)
	}
	if c.Scraper.MoviesURL == "" || c.Scraper.ShowsURL == "" {
		return fmt.Errorf("scraper.movies_url and scraper.shows_url must be set")
	}
	if c.Scraper.ScrollPasses < 0 {
		return fmt.Errorf("scraper.scroll_passes must be >= 0")
	}
	if c.Scraper.PollInterval <= 0 {
		return fmt.Errorf("scraper.poll_interval must be > 0")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// ConnLifetime converts the configured connection lifetime into a duration.
func (c DBConfig) ConnLifetime() time.Duration {
	return time.Duration(c.ConnLifetimeMin) * time.Minute
}
