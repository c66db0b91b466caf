// Package config loads engine configuration from a YAML settings file
// and watches it for changes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP service settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path     string `yaml:"path"`
	MaxConns int    `yaml:"max_conns"`
}

// EngineConfig holds the tunables of the recommendation engine.
type EngineConfig struct {
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	DefaultLimit int           `yaml:"default_limit"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Config is the full engine configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Default returns the configuration used when no settings file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8420,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:     "solutions.db",
			MaxConns: 4,
		},
		Engine: EngineConfig{
			CacheTTL:     time.Hour,
			DefaultLimit: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// Load reads the settings file at path, layering it over the defaults.
// A missing file returns the defaults without error; a malformed file
// is an error so a typo never silently reverts the whole config.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8420
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 4
	}
	if c.Engine.CacheTTL <= 0 {
		c.Engine.CacheTTL = time.Hour
	}
	if c.Engine.DefaultLimit <= 0 {
		c.Engine.DefaultLimit = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Addr returns the host:port the service listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
