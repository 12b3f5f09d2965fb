// Package config loads the minichain daemon configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds daemon configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Router    RouterConfig    `mapstructure:"router"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds gRPC listener settings.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// RouterConfig holds cross-chain delivery settings.
type RouterConfig struct {
	DeliveryDelay time.Duration `mapstructure:"delivery_delay"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateLimitConfig holds per-peer request limits.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// RuntimeConfig holds runtime bootstrap settings.
type RuntimeConfig struct {
	SeedDemoChain bool   `mapstructure:"seed_demo_chain"`
	DefaultOwner  string `mapstructure:"default_owner"`
}

// MetricsConfig holds the Prometheus endpoint settings. An empty
// ListenAddr disables the endpoint.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load reads configuration from file and env. Env var overrides use
// prefix MINICHAIN_, e.g. MINICHAIN_ROUTER_DELIVERY_DELAY=250ms.
// The file is $MINICHAIN_CONFIG if set, otherwise an optional
// ~/.config/minichain/config.toml.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.listen_addr", "127.0.0.1:7070")
	v.SetDefault("router.delivery_delay", "1s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.rps", 30)
	v.SetDefault("ratelimit.burst", 60)
	v.SetDefault("runtime.seed_demo_chain", false)
	v.SetDefault("runtime.default_owner", "current-user")
	v.SetDefault("metrics.listen_addr", "")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("MINICHAIN_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "minichain"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MINICHAIN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the daemon cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		return errors.New("config: server.listen_addr is required")
	}
	if c.Router.DeliveryDelay < 0 {
		return fmt.Errorf("config: router.delivery_delay must not be negative, got %s", c.Router.DeliveryDelay)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("config: ratelimit.rps and ratelimit.burst must be positive when enabled")
	}
	return nil
}
