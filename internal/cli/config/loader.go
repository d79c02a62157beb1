package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/adminctl/internal/infra/confloader"
)

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// Load reads the configuration from defaults, the file at path (optional
// when it is the default path), the environment and overrides.
// overrides is keyed by dotted path, e.g. "server" or "log.level".
func Load(path string, overrides map[string]any) (*Config, error) {
	opts := []confloader.Option{
		confloader.WithDefaults(defaultsMap()),
		confloader.WithOverrides(overrides),
	}
	if path == "" {
		opts = append(opts, confloader.WithOptionalConfigFile(DefaultConfigPath()))
	} else {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	cfg := &Config{}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML with 0600 permissions, creating the directory.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Session.Passphrase != "" {
		out.Session.Passphrase = "***"
	}
	if out.Session.Redis.Password != "" {
		out.Session.Redis.Password = "***"
	}
	return &out
}

// defaultsMap flattens Default into the dotted form confloader expects.
func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"server":             d.Server,
		"login_path":         d.LoginPath,
		"timeout":            d.Timeout,
		"output":             d.Output,
		"log.level":          d.Log.Level,
		"log.format":         d.Log.Format,
		"session.backend":    d.Session.Backend,
		"session.dir":        d.Session.Dir,
		"session.key_prefix": d.Session.KeyPrefix,
		"session.redis.addr": d.Session.Redis.Addr,
		"session.redis.db":   d.Session.Redis.DB,
		"login.rate":         d.Login.Rate,
		"login.burst":        d.Login.Burst,
	}
}
