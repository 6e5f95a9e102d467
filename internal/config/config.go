// Package config handles configuration loading for the genotiles server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvPort        = "GENOTILES_PORT"
	EnvSeedPath    = "GENOTILES_SEED_PATH"
	EnvCatalogPath = "GENOTILES_CATALOG_PATH"
	EnvLogLevel    = "GENOTILES_LOG_LEVEL"
)

// Config represents the server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	Tiles  TilesConfig  `yaml:"tiles"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	Title       string   `yaml:"title"`
}

// DataConfig names where tileset registrations come from. Seed and catalog
// entries are merged, seed first; Demo adds the built-in fixtures.
type DataConfig struct {
	SeedPath    string `yaml:"seed_path"`
	CatalogPath string `yaml:"catalog_path"`
	Demo        bool   `yaml:"demo"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	TileSizeMB      int `yaml:"tile_size_mb"`
	TileTTLMinutes  int `yaml:"tile_ttl_minutes"`
	LookupCacheSize int `yaml:"lookup_cache_size"`
}

// TileTTL returns the tile cache lifetime.
func (c CacheConfig) TileTTL() time.Duration {
	return time.Duration(c.TileTTLMinutes) * time.Minute
}

// TilesConfig contains tile fetching and rendering settings.
type TilesConfig struct {
	MaxConcurrency  int    `yaml:"max_concurrency"`
	DefaultColormap string `yaml:"default_colormap"`
	ImageSize       int    `yaml:"image_size"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads configuration from a YAML file. A missing file yields the
// default configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"*"},
			Title:       "genotiles",
		},
		Cache: CacheConfig{
			TileSizeMB:      256,
			TileTTLMinutes:  10,
			LookupCacheSize: 128,
		},
		Tiles: TilesConfig{
			MaxConcurrency:  8,
			DefaultColormap: "fall",
			ImageSize:       256,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Server.Title == "" {
		cfg.Server.Title = defaults.Server.Title
	}
	if cfg.Cache.TileSizeMB == 0 {
		cfg.Cache.TileSizeMB = defaults.Cache.TileSizeMB
	}
	if cfg.Cache.TileTTLMinutes == 0 {
		cfg.Cache.TileTTLMinutes = defaults.Cache.TileTTLMinutes
	}
	if cfg.Cache.LookupCacheSize == 0 {
		cfg.Cache.LookupCacheSize = defaults.Cache.LookupCacheSize
	}
	if cfg.Tiles.MaxConcurrency == 0 {
		cfg.Tiles.MaxConcurrency = defaults.Tiles.MaxConcurrency
	}
	if cfg.Tiles.DefaultColormap == "" {
		cfg.Tiles.DefaultColormap = defaults.Tiles.DefaultColormap
	}
	if cfg.Tiles.ImageSize == 0 {
		cfg.Tiles.ImageSize = defaults.Tiles.ImageSize
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// ApplyEnv overrides file values with non-empty environment variables read
// through getenv (normally os.Getenv).
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s %q", EnvPort, v)
		}
		c.Server.Port = port
	}
	if v := getenv(EnvSeedPath); v != "" {
		c.Data.SeedPath = v
	}
	if v := getenv(EnvCatalogPath); v != "" {
		c.Data.CatalogPath = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}
