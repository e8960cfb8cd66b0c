// Package config loads gymroster settings from an optional config.yaml and GYMROSTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. GYMROSTER_SERVER_ADDR.
const EnvPrefix = "GYMROSTER"

type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Email    EmailConfig
	Security SecurityConfig
	Log      LogConfig
	Client   ClientConfig
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Path          string        `mapstructure:"path"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// RedisConfig leaves Address empty to run without a search cache.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// EmailConfig drives the expiry digest. An empty ResendKey selects the logging sender.
type EmailConfig struct {
	ResendKey      string        `mapstructure:"resend_key"`
	From           string        `mapstructure:"from"`
	DigestTo       []string      `mapstructure:"digest_to"`
	DigestInterval time.Duration `mapstructure:"digest_interval"`
	GymName        string        `mapstructure:"gym_name"`
}

type SecurityConfig struct {
	CSRFKey         string `mapstructure:"csrf_key"`
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClientConfig is read by the terminal roster browser.
type ClientConfig struct {
	Server    string        `mapstructure:"server"`
	Debounce  time.Duration `mapstructure:"debounce"`
	Timeout   time.Duration `mapstructure:"timeout"`
	LogOutput string        `mapstructure:"log_output"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads config.yaml from . or ./config when present, then applies environment overrides.
// PRE: none
// POST: Returned config has every default applied; a missing file is not an error
func Load() (*Config, error) {
	return load(viper.New(), ".", "./config")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	// Env values for list keys arrive as one comma separated string.
	cfg.Email.DigestTo = splitList(strings.Join(cfg.Email.DigestTo, ","))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "gymroster.db")
	v.SetDefault("database.slow_threshold", "50ms")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.prefix", "gymroster:search")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("email.resend_key", "")
	v.SetDefault("email.from", "Gym Roster <noreply@example.com>")
	v.SetDefault("email.digest_to", []string{})
	v.SetDefault("email.digest_interval", "24h")
	v.SetDefault("email.gym_name", "")
	v.SetDefault("security.csrf_key", "")
	v.SetDefault("security.rate_limit_per_min", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("client.server", "http://localhost:8080")
	v.SetDefault("client.debounce", "400ms")
	v.SetDefault("client.timeout", "10s")
	v.SetDefault("client.log_output", "")
}

func (c *Config) validate() error {
	if c.Client.Debounce < 0 {
		return fmt.Errorf("client.debounce must not be negative, got %s", c.Client.Debounce)
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive, got %s", c.Client.Timeout)
	}
	if c.Email.DigestInterval <= 0 {
		return fmt.Errorf("email.digest_interval must be positive, got %s", c.Email.DigestInterval)
	}
	if c.Security.RateLimitPerMin < 0 {
		return fmt.Errorf("security.rate_limit_per_min must not be negative, got %d", c.Security.RateLimitPerMin)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
