// Package config loads chumo configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
	_ "time/tzdata" // report timezone must resolve without system zoneinfo

	"github.com/pelletier/go-toml/v2"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
)

// FileName is the configuration file name inside the chumo directory.
const FileName = "config.toml"

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration time.Duration

// UnmarshalText parses strings like "5s" or "10m".
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the time.Duration value.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full configuration.
type Config struct {
	SubBrandPartition string       `toml:"sub_brand_partition"`
	Partitions        []string     `toml:"partitions"`
	Report            ReportConfig `toml:"report"`
	Timer             TimerConfig  `toml:"timer"`
	Store             StoreConfig  `toml:"store"`
	Server            ServerConfig `toml:"server"`
	Log               LogConfig    `toml:"log"`
}

// ReportConfig configures the time report.
type ReportConfig struct {
	OperationsLabel  string   `toml:"operations_label"`
	Timezone         string   `toml:"timezone"`
	CacheTTL         Duration `toml:"cache_ttl"`
	OverThresholdSec int64    `toml:"over_threshold_sec"`
}

// TimerConfig configures the timer client and store calls.
type TimerConfig struct {
	UserID       string   `toml:"user_id"`
	PollInterval Duration `toml:"poll_interval"`
	StoreTimeout Duration `toml:"store_timeout"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Driver  string           `toml:"driver"`
	Path    string           `toml:"path"`
	Indexes docstore.Indexes `toml:"indexes,omitempty"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
	Env  string `toml:"env"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Partitions: []string{
			"REG2017", "BRGREG", "MONO", "MONO_ADMIN",
			"DES_FIN", "DesignSystem", "PRIVATE", "PORTAL",
		},
		SubBrandPartition: "BRGREG",
		Report: ReportConfig{
			OperationsLabel:  "運用",
			OverThresholdSec: 10800,
			Timezone:         "Asia/Tokyo",
			CacheTTL:         Duration(time.Minute),
		},
		Timer: TimerConfig{
			PollInterval: Duration(5 * time.Second),
			StoreTimeout: Duration(10 * time.Second),
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
		},
		Server: ServerConfig{
			Addr: ":8080",
			Env:  "development",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Dir returns ~/.chumo.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".chumo"), nil
}

// DefaultPath returns ~/.chumo/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if len(c.Partitions) == 0 {
		return errors.New("at least one partition is required")
	}
	if !slices.Contains(c.Partitions, c.SubBrandPartition) {
		return fmt.Errorf("sub_brand_partition %q is not in partitions", c.SubBrandPartition)
	}
	if c.Report.OverThresholdSec <= 0 {
		return errors.New("report.over_threshold_sec must be positive")
	}
	if c.Timer.PollInterval <= 0 || c.Timer.StoreTimeout <= 0 {
		return errors.New("timer intervals must be positive")
	}
	if c.Report.CacheTTL < 0 {
		return errors.New("report.cache_ttl cannot be negative")
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("report.timezone: %w", err)
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	return nil
}

// Location returns the report timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Production reports whether the server runs in production mode.
func (c *Config) Production() bool {
	return c.Server.Env == "production"
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
