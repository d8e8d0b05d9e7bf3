package config

import (
	"fmt"
	"strings"
	"time"
)

// Known runtime environments. Production forces all debug-only behavior off.
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 5000
	DefaultWorkers         = 4
	DefaultGracefulTimeout = 30 * time.Second
)

// Config is the single source of runtime configuration. It is built once at
// process start (from the config file and environment bindings in cmd) and
// passed down explicitly; nothing reads the process environment after that.
type Config struct {
	Env             string        `mapstructure:"env"`
	Debug           bool          `mapstructure:"debug"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Workers         int           `mapstructure:"workers"`
	GracefulTimeout time.Duration `mapstructure:"graceful-timeout"`
	Store           *StoreConfig  `mapstructure:"store"`
	AI              *AIConfig     `mapstructure:"ai"`
}

type StoreConfig struct {
	// RedisURL selects the shared redis store. Empty means the in-memory
	// store, which does not survive restarts and is not shared between
	// worker processes.
	RedisURL string        `mapstructure:"redis-url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Env:             EnvDevelopment,
		Host:            DefaultHost,
		Port:            DefaultPort,
		Workers:         DefaultWorkers,
		GracefulTimeout: DefaultGracefulTimeout,
		Store:           &StoreConfig{},
		AI:              &AIConfig{},
	}
}

// Normalize fills unset fields with defaults and reconciles fields that
// depend on each other. Production always runs with debug off.
func (c *Config) Normalize() {
	c.Env = strings.TrimSpace(strings.ToLower(c.Env))
	if c.Env == "" {
		c.Env = EnvDevelopment
	}

	if c.Host == "" {
		c.Host = DefaultHost
	}

	if c.Port == 0 {
		c.Port = DefaultPort
	}

	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}

	if c.GracefulTimeout == 0 {
		c.GracefulTimeout = DefaultGracefulTimeout
	}

	if c.Store == nil {
		c.Store = &StoreConfig{}
	}

	if c.AI == nil {
		c.AI = &AIConfig{}
	}

	if c.Env == EnvProduction {
		c.Debug = false
	}
}

// Validate reports the first problem that makes the configuration unusable.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unknown environment %q (expected %s, %s or %s)",
			c.Env, EnvDevelopment, EnvTesting, EnvProduction)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	if c.GracefulTimeout < 0 {
		return fmt.Errorf("graceful-timeout must not be negative")
	}

	if c.AI != nil && c.AI.Enabled {
		provider := strings.TrimSpace(strings.ToLower(c.AI.Provider))
		if provider != "" && provider != "gemini" {
			return fmt.Errorf("unsupported ai provider: %s", c.AI.Provider)
		}
		if c.AI.Gemini == nil {
			return fmt.Errorf("gemini configuration is required when ai is enabled")
		}
	}

	return nil
}

// Addr returns the host:port the server binds.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Production reports whether the service runs with production settings.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}
