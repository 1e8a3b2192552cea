// Package config loads the web frontend configuration from the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage types for the session cache
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config holds all frontend configuration
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Session SessionConfig
	Storage StorageConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	StaticDir       string
}

// BackendConfig points at the tournament backend
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// SessionConfig controls session lifetime and the cookies that carry it
type SessionConfig struct {
	TTL            time.Duration
	CookieSecure   bool
	ContextIdleTTL time.Duration
	RestoreWait    time.Duration
}

// StorageConfig selects the session cache
type StorageConfig struct {
	Type     string
	RedisURL string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables and a .env file in the
// working directory, if present
func Load() (*Config, error) {
	return load(".env", false)
}

// LoadWithPath loads configuration from a specific env file
func LoadWithPath(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil && required {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := bindConfig(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("SERVER_HOST", "")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "0s") // session event streams stay open
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("SERVER_STATIC_DIR", "")

	// Backend defaults
	v.SetDefault("BACKEND_URL", "http://localhost:8081")
	v.SetDefault("BACKEND_TIMEOUT", "10s")

	// Session defaults
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CONTEXT_IDLE_TTL", "1h")
	v.SetDefault("SESSION_RESTORE_WAIT", "250ms")

	// Storage defaults
	v.SetDefault("STORAGE_TYPE", StorageMemory)
	v.SetDefault("REDIS_URL", "")

	v.SetDefault("LOG_LEVEL", "info")
}

func bindConfig(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.ShutdownTimeout = v.GetDuration("SERVER_SHUTDOWN_TIMEOUT")
	cfg.Server.StaticDir = v.GetString("SERVER_STATIC_DIR")

	cfg.Backend.URL = strings.TrimSuffix(v.GetString("BACKEND_URL"), "/")
	cfg.Backend.Timeout = v.GetDuration("BACKEND_TIMEOUT")

	cfg.Session.TTL = v.GetDuration("SESSION_TTL")
	cfg.Session.CookieSecure = v.GetBool("COOKIE_SECURE")
	cfg.Session.ContextIdleTTL = v.GetDuration("CONTEXT_IDLE_TTL")
	cfg.Session.RestoreWait = v.GetDuration("SESSION_RESTORE_WAIT")

	cfg.Storage.Type = strings.ToLower(v.GetString("STORAGE_TYPE"))
	cfg.Storage.RedisURL = v.GetString("REDIS_URL")

	cfg.Log.Level = v.GetString("LOG_LEVEL")

	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend URL: %q", c.Backend.URL)
	}

	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("REDIS_URL is required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("unknown storage type: %q", c.Storage.Type)
	}

	return nil
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
