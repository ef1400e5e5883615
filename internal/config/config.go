// Package config loads the service configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides.
// Nested keys are separated by a double underscore: HOOKRELAY_DATABASE__URL.
const EnvPrefix = "HOOKRELAY_"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	JWT      JWTConfig      `koanf:"jwt"`
	Dispatch DispatchConfig `koanf:"dispatch"`
	Redis    RedisConfig    `koanf:"redis"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectAttempts int           `koanf:"connect_attempts"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// JWTConfig configures bearer token validation.
type JWTConfig struct {
	SecretKey     string        `koanf:"secret_key"`
	TokenDuration time.Duration `koanf:"token_duration"`
}

// DispatchConfig configures webhook delivery.
type DispatchConfig struct {
	Timeout     time.Duration `koanf:"timeout"`
	Concurrency int           `koanf:"concurrency"`
	QueueSize   int           `koanf:"queue_size"`
	RateLimit   float64       `koanf:"rate_limit"` // deliveries per second, 0 disables
	RateBurst   int           `koanf:"rate_burst"`
	UserAgent   string        `koanf:"user_agent"`
	FailureLog  string        `koanf:"failure_log"`
}

// RedisConfig configures the optional Pub/Sub mutation source.
type RedisConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	Channel string `koanf:"channel"`
}

// Default returns the configuration used for keys that are not set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectAttempts: 5,
			ConnectTimeout:  60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		JWT: JWTConfig{
			TokenDuration: 24 * time.Hour,
		},
		Dispatch: DispatchConfig{
			Timeout:     15 * time.Second,
			Concurrency: 8,
			QueueSize:   64,
			RateBurst:   1,
			UserAgent:   "hookrelay",
		},
		Redis: RedisConfig{
			Channel: "hookrelay:mutations",
		},
	}
}

// Load reads the YAML file at path (skipped when empty), applies environment
// overrides on top and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if len(c.JWT.SecretKey) < 32 {
		errs = append(errs, errors.New("jwt.secret_key must be at least 32 characters"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", c.Log.Format))
	}
	if c.Dispatch.Timeout <= 0 {
		errs = append(errs, errors.New("dispatch.timeout must be positive"))
	}
	if c.Dispatch.Concurrency <= 0 {
		errs = append(errs, errors.New("dispatch.concurrency must be positive"))
	}
	if c.Dispatch.QueueSize <= 0 {
		errs = append(errs, errors.New("dispatch.queue_size must be positive"))
	}
	if c.Dispatch.RateLimit < 0 {
		errs = append(errs, errors.New("dispatch.rate_limit must not be negative"))
	}
	if c.Redis.Enabled {
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required when redis is enabled"))
		}
		if c.Redis.Channel == "" {
			errs = append(errs, errors.New("redis.channel is required when redis is enabled"))
		}
	}

	return errors.Join(errs...)
}
