package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:newshub.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Cache struct {
		CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval" jsonschema:"default=1m,description=Expired cache entry sweep interval"`
	} `yaml:"cache" json:"cache" jsonschema:"description=Cache configuration"`

	Schedule struct {
		UpdateInterval int `yaml:"update_interval" json:"update_interval" jsonschema:"default=30,description=News fetch interval in minutes"`
		MaxWorkers     int `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,description=Maximum concurrent provider fetches"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Providers ProvidersConfig `yaml:"providers" json:"providers" jsonschema:"description=News provider configuration"`

	Fetch struct {
		Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=15s,description=HTTP timeout per provider request"`
		MaxArticles int           `yaml:"max_articles" json:"max_articles" jsonschema:"default=20,minimum=1,description=Maximum articles fetched per provider per cycle"`
	} `yaml:"fetch" json:"fetch" jsonschema:"description=Provider fetch settings"`
}

// ProviderConfig holds credentials and endpoint of one API provider
type ProviderConfig struct {
	APIKey  string `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	BaseURL string `yaml:"base_url" json:"base_url" jsonschema:"description=API base URL override (optional)"`
}

// RSSConfig holds RSS provider settings
type RSSConfig struct {
	Feeds     []string `yaml:"feeds" json:"feeds" jsonschema:"description=RSS/Atom feed URLs"`
	UserAgent string   `yaml:"user_agent" json:"user_agent" jsonschema:"default=NewsHub/1.0,description=User agent for feed requests"`
}

// ProvidersConfig holds all provider sections; a provider without an api
// key (or feeds, for rss) is simply skipped at startup
type ProvidersConfig struct {
	Guardian ProviderConfig `yaml:"guardian" json:"guardian" jsonschema:"description=The Guardian content API"`
	NYTimes  ProviderConfig `yaml:"nytimes" json:"nytimes" jsonschema:"description=New York Times article search API"`
	NewsAPI  ProviderConfig `yaml:"newsapi" json:"newsapi" jsonschema:"description=NewsAPI top headlines"`
	RSS      RSSConfig      `yaml:"rss" json:"rss" jsonschema:"description=Plain RSS/Atom feeds"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// set defaults for database
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:newshub.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	// set defaults for cache
	if cfg.Cache.CleanupInterval == 0 {
		cfg.Cache.CleanupInterval = time.Minute
	}

	// set defaults for schedule
	if cfg.Schedule.UpdateInterval == 0 {
		cfg.Schedule.UpdateInterval = 30
	}
	if cfg.Schedule.MaxWorkers == 0 {
		cfg.Schedule.MaxWorkers = 5
	}

	// set defaults for fetch
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 15 * time.Second
	}
	if cfg.Fetch.MaxArticles == 0 {
		cfg.Fetch.MaxArticles = 20
	}
	if cfg.Providers.RSS.UserAgent == "" {
		cfg.Providers.RSS.UserAgent = "NewsHub/1.0"
	}

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Schedule.UpdateInterval < 1 {
		return fmt.Errorf("schedule.update_interval must be at least 1 minute")
	}
	if cfg.Schedule.MaxWorkers < 1 {
		return fmt.Errorf("schedule.max_workers must be at least 1")
	}
	if cfg.Fetch.Timeout < time.Second {
		return fmt.Errorf("fetch.timeout must be at least 1 second")
	}
	if cfg.Fetch.MaxArticles < 1 {
		return fmt.Errorf("fetch.max_articles must be at least 1")
	}

	if !cfg.HasProviders() {
		return fmt.Errorf("no providers configured, set at least one api key or rss feed")
	}
	return nil
}

// HasProviders reports whether at least one news provider is configured
func (c *Config) HasProviders() bool {
	return c.Providers.Guardian.APIKey != "" ||
		c.Providers.NYTimes.APIKey != "" ||
		c.Providers.NewsAPI.APIKey != "" ||
		len(c.Providers.RSS.Feeds) > 0
}

// UpdateInterval returns the schedule interval as a duration
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.Schedule.UpdateInterval) * time.Minute
}

// GetServerConfig returns the HTTP server listen address and timeout
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}
