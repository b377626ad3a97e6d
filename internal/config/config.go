// Package config loads service settings from defaults, an optional YAML file and
// the environment, in increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/liamcoop/spinecheck/scoring"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SPINECHECK_SERVER_PORT
const EnvPrefix = "SPINECHECK"

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Catalog  CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	Scoring  ScoringConfig  `mapstructure:"scoring" yaml:"scoring"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-" yaml:"-"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port" yaml:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// RateLimit is requests per second per server; 0 disables limiting
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

type DatabaseConfig struct {
	// URL of the appointments database; empty keeps appointments in memory
	URL string `mapstructure:"url" yaml:"url"`
}

type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl" yaml:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

type CatalogConfig struct {
	// Path to a YAML catalog; empty uses the built-in one
	Path string `mapstructure:"path" yaml:"path"`
}

type ScoringConfig struct {
	scoring.Options `mapstructure:",squash" yaml:",inline"`

	// Adjustments replace the built-in ones when set
	Adjustments []scoring.Adjustment `mapstructure:"adjustments" yaml:"adjustments,omitempty"`
}

type LogConfig struct {
	// Level overrides LOG_LEVEL when set
	Level string `mapstructure:"level" yaml:"level,omitempty"`
}

func setDefaults(v *viper.Viper) {
	opts := scoring.DefaultOptions()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("database.url", "")
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.cleanup_interval", 5*time.Minute)
	v.SetDefault("catalog.path", "")
	v.SetDefault("scoring.location_weight", opts.LocationWeight)
	v.SetDefault("scoring.symptom_weight", opts.SymptomWeight)
	v.SetDefault("scoring.trigger_weight", opts.TriggerWeight)
	v.SetDefault("scoring.min_matches", opts.MinMatches)
	v.SetDefault("scoring.limit", opts.Limit)
	v.SetDefault("log.level", "")
}

// Load reads the configuration. With an empty path, ./spinecheck.yaml is used
// when present; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("spinecheck")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// SPINECHECK_SERVER_PORT etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare names used by the deployment platform
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the engine and server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("invalid config: server.port is required")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid config: server timeouts must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid config: server.rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("invalid config: server.rate_burst must be at least 1")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("invalid config: session.ttl must be positive")
	}
	if c.Scoring.MinMatches < 1 || c.Scoring.Limit < 1 {
		return fmt.Errorf("invalid config: scoring.min_matches and scoring.limit must be at least 1")
	}
	return nil
}
