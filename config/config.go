// Package config loads sitemapcheck settings from defaults, an optional .env
// file, an optional YAML config file, and SITEMAPCHECK_* environment
// variables, in increasing order of precedence. Command-line flags bound to
// the same viper instance override all of them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lukemcguire/sitemapcheck/checker"
	"github.com/lukemcguire/sitemapcheck/sitemap"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SITEMAPCHECK"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// Config holds every setting of a validation run.
type Config struct {
	Concurrency      int           `mapstructure:"concurrency"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	MaxDepth         int           `mapstructure:"max_depth"`
	MaxDocuments     int           `mapstructure:"max_documents"`
	MaxDocumentBytes int64         `mapstructure:"max_document_bytes"`
	Dedupe           bool          `mapstructure:"dedupe"`
	RateLimit        int           `mapstructure:"rate_limit"`
	TargetRTT        time.Duration `mapstructure:"target_rtt"`
	Retries          int           `mapstructure:"retries"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	UserAgent        string        `mapstructure:"user_agent"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFormat        string        `mapstructure:"log_format"`
	Format           string        `mapstructure:"format"`
	NoTUI            bool          `mapstructure:"no_tui"`
	Discover         bool          `mapstructure:"discover"`
	Server           ServerConfig  `mapstructure:"server"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	checkerDefaults := checker.DefaultConfig()
	resolverDefaults := sitemap.DefaultConfig()

	v.SetDefault("concurrency", checkerDefaults.Concurrency)
	v.SetDefault("request_timeout", checkerDefaults.RequestTimeout)
	v.SetDefault("fetch_timeout", 30*time.Second)
	v.SetDefault("max_depth", resolverDefaults.MaxDepth)
	v.SetDefault("max_documents", resolverDefaults.MaxDocuments)
	v.SetDefault("max_document_bytes", int64(sitemap.DefaultMaxBytes))
	v.SetDefault("dedupe", false)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("target_rtt", time.Duration(0))
	v.SetDefault("retries", 0)
	v.SetDefault("retry_delay", time.Second)
	v.SetDefault("user_agent", checkerDefaults.UserAgent)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("format", FormatText)
	v.SetDefault("no_tui", false)
	v.SetDefault("discover", false)
	v.SetDefault("server.addr", ":8080")
}

// Load reads configuration into a Config. configFile may be empty, in which
// case ./sitemapcheck.yaml is used when present.
func Load(v *viper.Viper, configFile string) (Config, error) {
	// A missing .env is normal; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("sitemapcheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no run could use.
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatCSV, FormatYAML:
	default:
		return fmt.Errorf("invalid format %q: must be text, json, csv or yaml", c.Format)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency %d: must be at least 1", c.Concurrency)
	}
	if c.MaxDepth < 1 || c.MaxDocuments < 1 {
		return fmt.Errorf("invalid max_depth %d / max_documents %d: both must be at least 1", c.MaxDepth, c.MaxDocuments)
	}
	if c.RateLimit < 0 || c.Retries < 0 {
		return errors.New("rate_limit and retries must not be negative")
	}
	return nil
}

// Checker converts the settings for checker.New.
func (c Config) Checker() checker.Config {
	cfg := checker.Config{
		Concurrency:    c.Concurrency,
		RequestTimeout: c.RequestTimeout,
		RateLimit:      c.RateLimit,
		TargetRTT:      c.TargetRTT,
		UserAgent:      c.UserAgent,
	}
	if c.Retries > 0 {
		cfg.RetryPolicy = checker.RetryPolicy{
			MaxRetries: c.Retries,
			BaseDelay:  c.RetryDelay,
			MaxDelay:   30 * time.Second,
		}
	}
	return cfg
}

// Resolver converts the settings for sitemap.New.
func (c Config) Resolver() sitemap.Config {
	return sitemap.Config{
		MaxDepth:     c.MaxDepth,
		MaxDocuments: c.MaxDocuments,
		Dedupe:       c.Dedupe,
	}
}

// Default returns the configuration used when nothing overrides a default.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}
