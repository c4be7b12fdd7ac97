// ABOUTME: Application configuration stored at XDG paths
// ABOUTME: Layers defaults, a YAML file, a .env file, and WORKLY_* environment overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/workly/charm"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const AppName = "workly"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
	BackendMemory = "memory"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Charm    charm.Config   `yaml:"charm"`
	Sales    SalesConfig    `yaml:"sales"`
	Geocode  GeocodeConfig  `yaml:"geocode"`
	Log      LogConfig      `yaml:"log"`
	Location LocationConfig `yaml:"location"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type SalesConfig struct {
	// CommissionRate is applied to the opportunity total of a visit session.
	CommissionRate float64 `yaml:"commission_rate"`
	Salesperson    string  `yaml:"salesperson"`
}

type GeocodeConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type LocationConfig struct {
	// Track is a JSON file of samples replayed while a session runs.
	Track    string `yaml:"track"`
	Interval string `yaml:"interval"`
}

// Dir returns the XDG config directory for workly.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultDatabasePath is where the sqlite backend lives by default.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, AppName, AppName+".db")
}

// DefaultLogPath is where rotated logs go when file logging is on.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, AppName, AppName+".log")
}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Path:    DefaultDatabasePath(),
		},
		Charm: *charm.DefaultConfig(),
		Sales: SalesConfig{CommissionRate: 0.10},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Location: LocationConfig{Interval: "1s"},
	}
}

// Load reads path (or the default path when empty). A missing file yields
// defaults. A .env file in the working directory is loaded into the
// environment before overrides are applied; variables already set win.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnvOverrides(cfg)
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies WORKLY_* variables:
// - WORKLY_STORAGE_BACKEND, WORKLY_STORAGE_PATH
// - WORKLY_CHARM_HOST, WORKLY_CHARM_AUTO_SYNC
// - WORKLY_COMMISSION_RATE, WORKLY_SALESPERSON
// - WORKLY_GEOCODE_API_KEY, WORKLY_GEOCODE_BASE_URL
// - WORKLY_LOG_LEVEL, WORKLY_LOG_FORMAT, WORKLY_LOG_FILE
// - WORKLY_LOCATION_TRACK, WORKLY_LOCATION_INTERVAL
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Storage.Backend, "WORKLY_STORAGE_BACKEND")
	setString(&cfg.Storage.Path, "WORKLY_STORAGE_PATH")
	setString(&cfg.Charm.Host, "WORKLY_CHARM_HOST")
	if v := os.Getenv("WORKLY_CHARM_AUTO_SYNC"); v != "" {
		cfg.Charm.AutoSync = v == "true" || v == "1"
	}
	if v := os.Getenv("WORKLY_COMMISSION_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sales.CommissionRate = rate
		}
	}
	setString(&cfg.Sales.Salesperson, "WORKLY_SALESPERSON")
	setString(&cfg.Geocode.APIKey, "WORKLY_GEOCODE_API_KEY")
	setString(&cfg.Geocode.BaseURL, "WORKLY_GEOCODE_BASE_URL")
	setString(&cfg.Log.Level, "WORKLY_LOG_LEVEL")
	setString(&cfg.Log.Format, "WORKLY_LOG_FORMAT")
	setString(&cfg.Log.File, "WORKLY_LOG_FILE")
	setString(&cfg.Location.Track, "WORKLY_LOCATION_TRACK")
	setString(&cfg.Location.Interval, "WORKLY_LOCATION_INTERVAL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendCharm, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Sales.CommissionRate < 0 || c.Sales.CommissionRate > 1 {
		return fmt.Errorf("commission rate %v out of range [0,1]", c.Sales.CommissionRate)
	}
	if c.Location.Interval != "" {
		if _, err := time.ParseDuration(c.Location.Interval); err != nil {
			return fmt.Errorf("invalid location interval: %w", err)
		}
	}
	return nil
}

// ReplayInterval is the pause between replayed track samples.
func (l LocationConfig) ReplayInterval() time.Duration {
	d, err := time.ParseDuration(l.Interval)
	if err != nil {
		return 0
	}
	return d
}

// Save writes cfg to path (or the default path when empty).
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
