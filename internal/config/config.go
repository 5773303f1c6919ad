// Package config loads application configuration from config.yaml and
// CAPTRADES_* environment variables, and owns the global logger.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Disclosure UpstreamConfig `yaml:"disclosure" mapstructure:"disclosure"`
	Prices     PricesConfig   `yaml:"prices" mapstructure:"prices"`
	FEC        UpstreamConfig `yaml:"fec" mapstructure:"fec"`
	Cache      CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Retry      RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Server     ServerConfig   `yaml:"server" mapstructure:"server"`
	Log        LogConfig      `yaml:"log" mapstructure:"log"`
	UserAgent  string         `yaml:"user_agent" mapstructure:"user_agent"`
}

// UpstreamConfig holds one upstream's endpoint and credentials.
type UpstreamConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
}

// Timeout returns the upstream timeout as a duration.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSecs) * time.Second
}

// PricesConfig holds both price vendors.
type PricesConfig struct {
	Primary  UpstreamConfig `yaml:"primary" mapstructure:"primary"`
	Fallback UpstreamConfig `yaml:"fallback" mapstructure:"fallback"`
}

// CacheConfig configures the on-disk response cache.
type CacheConfig struct {
	Root             string `yaml:"root" mapstructure:"root"`
	MemoryMaxEntries int    `yaml:"memory_max_entries" mapstructure:"memory_max_entries"`
	DiskMaxMB        int64  `yaml:"disk_max_mb" mapstructure:"disk_max_mb"`
}

// RetryConfig configures the retry policy between the client and the
// adapters.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// ServerConfig configures the HTTP server run by `captrades serve`.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

func defaultCacheRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "captrades")
	}
	return ".captrades-cache"
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CAPTRADES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("user_agent", "captrades/1.0")
	v.SetDefault("disclosure.base_url", "https://api.capitoltrades.example")
	v.SetDefault("disclosure.timeout_secs", 30)
	v.SetDefault("disclosure.rps", 10)
	v.SetDefault("prices.primary.base_url", "https://api.eodprices.example")
	v.SetDefault("prices.primary.timeout_secs", 30)
	v.SetDefault("prices.primary.rps", 10)
	v.SetDefault("prices.fallback.base_url", "https://api.eodbackup.example")
	v.SetDefault("prices.fallback.timeout_secs", 30)
	v.SetDefault("prices.fallback.rps", 5)
	v.SetDefault("fec.base_url", "https://api.open.fec.gov/v1")
	v.SetDefault("fec.timeout_secs", 30)
	v.SetDefault("fec.rps", 2)
	v.SetDefault("cache.root", defaultCacheRoot())
	v.SetDefault("cache.memory_max_entries", 10000)
	v.SetDefault("cache.disk_max_mb", 2048)
	v.SetDefault("retry.max_attempts", 4)
	v.SetDefault("retry.initial_backoff_ms", 250)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.2)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
