// Package config loads and validates extractor configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CATALOG_SCRAPER_BASE_URL.
const EnvPrefix = "CATALOG"

// Storage backends.
const (
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendGCS    = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Proxy   ProxyConfig   `mapstructure:"proxy"`
	Storage StorageConfig `mapstructure:"storage"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ScraperConfig governs fetching, extraction and the run driver.
type ScraperConfig struct {
	BaseURL             string `mapstructure:"base_url"`
	UserAgent           string `mapstructure:"user_agent"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	MaxRetries          int    `mapstructure:"max_retries"`
	RetryDelayMs        int    `mapstructure:"retry_delay_ms"`
	DelayMs             int    `mapstructure:"delay_ms"`
	MinProducts         int    `mapstructure:"min_products"`
	MinContainerMatches int    `mapstructure:"min_container_matches"`
	MaxCandidates       int    `mapstructure:"max_candidates"`
	MaxSubPages         int    `mapstructure:"max_subpages"`
	FallbackEnabled     bool   `mapstructure:"fallback_enabled"`
	RespectRobots       bool   `mapstructure:"respect_robots"`
}

// ProxyConfig configures the passthrough handler.
type ProxyConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Upstream       string  `mapstructure:"upstream"`
	Prefix         string  `mapstructure:"prefix"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	Burst          int     `mapstructure:"burst"`
}

// StorageConfig selects where exports are written.
type StorageConfig struct {
	Backend      string `mapstructure:"backend"`
	BaseDir      string `mapstructure:"base_dir"`
	GCSBucket    string `mapstructure:"gcs_bucket"`
	Prefix       string `mapstructure:"prefix"`
	CacheControl string `mapstructure:"cache_control"`
}

// DBConfig controls access to the product table. An empty DSN disables persistence.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// PubSubConfig holds metadata for run notifications. An empty topic disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from an optional .env file, an optional config file and the environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 300)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("scraper.base_url", "https://othoba.com/electronics-appliances")
	v.SetDefault("scraper.user_agent", "")
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.retry_delay_ms", 5000)
	v.SetDefault("scraper.delay_ms", 2000)
	v.SetDefault("scraper.min_products", 10)
	v.SetDefault("scraper.min_container_matches", 4)
	v.SetDefault("scraper.max_candidates", 50)
	v.SetDefault("scraper.max_subpages", 3)
	v.SetDefault("scraper.fallback_enabled", true)
	v.SetDefault("scraper.respect_robots", false)
	v.SetDefault("proxy.enabled", false)
	v.SetDefault("proxy.upstream", "https://perchance.org/zahid-aistudio")
	v.SetDefault("proxy.prefix", "/proxy")
	v.SetDefault("proxy.timeout_seconds", 30)
	v.SetDefault("proxy.rate_per_second", 2.0)
	v.SetDefault("proxy.burst", 4)
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.base_dir", "output")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "catalog")
	v.SetDefault("storage.cache_control", "no-cache")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "products")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if !isHTTPURL(c.Scraper.BaseURL) {
		return fmt.Errorf("scraper.base_url must be an absolute http(s) URL")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Scraper.MaxRetries < 0 {
		return fmt.Errorf("scraper.max_retries must be >= 0")
	}
	if c.Scraper.RetryDelayMs < 0 || c.Scraper.DelayMs < 0 {
		return fmt.Errorf("scraper delays must be >= 0")
	}
	if c.Scraper.MinProducts <= 0 {
		return fmt.Errorf("scraper.min_products must be > 0")
	}
	if c.Scraper.MinContainerMatches <= 0 {
		return fmt.Errorf("scraper.min_container_matches must be > 0")
	}
	if c.Scraper.MaxSubPages < 0 {
		return fmt.Errorf("scraper.max_subpages must be >= 0")
	}
	if c.Proxy.Enabled {
		if !isHTTPURL(c.Proxy.Upstream) {
			return fmt.Errorf("proxy.upstream must be an absolute http(s) URL when the proxy is enabled")
		}
		if !strings.HasPrefix(c.Proxy.Prefix, "/") || c.Proxy.Prefix == "/" {
			return fmt.Errorf("proxy.prefix must start with / and not be the root")
		}
		if c.Proxy.RatePerSecond < 0 {
			return fmt.Errorf("proxy.rate_per_second must be >= 0")
		}
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required for the local backend")
		}
	case BackendMemory:
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// FetchTimeout is the per-request fetch timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// RetryDelay is the fixed pause between fetch attempts.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Scraper.RetryDelayMs) * time.Millisecond
}

// SubPageDelay is the politeness pause between sub-page fetches.
func (c Config) SubPageDelay() time.Duration {
	return time.Duration(c.Scraper.DelayMs) * time.Millisecond
}

// RequestTimeout bounds a single API request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
