package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yndnr/adminctl/internal/auth"
	"github.com/yndnr/adminctl/internal/session"
	"github.com/yndnr/adminctl/internal/storage"
)

// Config is the configuration of adminctl.
type Config struct {
	// Server is the base URL of the administrative API.
	Server string `koanf:"server" yaml:"server"`

	// LoginPath is the login endpoint relative to Server.
	LoginPath string `koanf:"login_path" yaml:"login_path"`

	// Timeout bounds every HTTP call, e.g. "30s".
	Timeout string `koanf:"timeout" yaml:"timeout"`

	// Output is the default output format: table, json, yaml.
	Output string `koanf:"output" yaml:"output"`

	Log     LogConfig     `koanf:"log" yaml:"log"`
	Session SessionConfig `koanf:"session" yaml:"session"`
	Login   LoginConfig   `koanf:"login" yaml:"login"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// SessionConfig selects the durable session medium.
type SessionConfig struct {
	// Backend is badger, redis or memory.
	Backend string `koanf:"backend" yaml:"backend"`

	// Dir is the badger directory.
	Dir string `koanf:"dir" yaml:"dir"`

	KeyPrefix string `koanf:"key_prefix" yaml:"key_prefix"`

	// Passphrase seals the stored credential when set.
	Passphrase string `koanf:"passphrase" yaml:"passphrase,omitempty"`

	Redis RedisConfig `koanf:"redis" yaml:"redis"`
}

// RedisConfig addresses the redis backend.
type RedisConfig struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	Password string `koanf:"password" yaml:"password,omitempty"`
	DB       int    `koanf:"db" yaml:"db"`
}

// LoginConfig throttles login attempts. Rate 0 disables throttling.
type LoginConfig struct {
	Rate  float64 `koanf:"rate" yaml:"rate"`
	Burst int     `koanf:"burst" yaml:"burst"`
}

// HomeDir returns ~/.adminctl.
func HomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".adminctl")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server:    "http://localhost:8080",
		LoginPath: auth.DefaultLoginPath,
		Timeout:   "30s",
		Output:    "table",
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Session: SessionConfig{
			Backend:   "badger",
			Dir:       filepath.Join(HomeDir(), "session"),
			KeyPrefix: session.DefaultKeyPrefix,
			Redis:     RedisConfig{Addr: "localhost:6379"},
		},
		Login: LoginConfig{
			Rate:  0.2,
			Burst: 3,
		},
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server) == "" {
		return fmt.Errorf("server is required")
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q (table, json, yaml)", c.Output)
	}
	switch strings.ToLower(c.Session.Backend) {
	case "badger", "redis", "memory":
	default:
		return fmt.Errorf("invalid session backend %q (badger, redis, memory)", c.Session.Backend)
	}
	if c.Login.Rate < 0 {
		return fmt.Errorf("login.rate must not be negative")
	}
	return nil
}

// TimeoutDuration parses Timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive")
	}
	return d, nil
}

// KVConfig translates the session section into a storage configuration.
func (c *Config) KVConfig() storage.KVConfig {
	kv := storage.DefaultKVConfig(c.Session.Dir)
	kv.Engine = strings.ToLower(c.Session.Backend)
	kv.Redis = storage.RedisConfig{
		Addr:     c.Session.Redis.Addr,
		Password: c.Session.Redis.Password,
		DB:       c.Session.Redis.DB,
	}
	return kv
}

// AuthConfig translates the server and login sections for auth.Gateway.
func (c *Config) AuthConfig(userAgent string) auth.Config {
	return auth.Config{
		BaseURL:    c.Server,
		LoginPath:  c.LoginPath,
		LoginRate:  c.Login.Rate,
		LoginBurst: c.Login.Burst,
		UserAgent:  userAgent,
	}
}
