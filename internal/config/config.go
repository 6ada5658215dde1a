// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file, a .env file and PIZARRA_* env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver selects the store backend: sqlite, postgres or memory.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is the driver-specific connection string.
	DBDSN string `koanf:"db_dsn"`

	// MarkerSize is the rendered player marker edge in pixels.
	MarkerSize float64 `koanf:"marker_size"`

	// MobileBreakpoint is the surface width below which the 2-column grid is used.
	MobileBreakpoint float64 `koanf:"mobile_breakpoint"`

	// MaxSelection caps the players selected per event.
	MaxSelection int `koanf:"max_selection"`

	// DefaultFormation is the label used for events without a saved board.
	DefaultFormation string `koanf:"default_formation"`

	// FeedBuffer bounds each change feed subscription channel.
	FeedBuffer int `koanf:"feed_buffer"`

	// DirectoryPreload is the number of profiles loaded into the directory at startup.
	DirectoryPreload int `koanf:"directory_preload"`

	// WSWriteTimeoutMS bounds a single websocket write.
	WSWriteTimeoutMS int `koanf:"ws_write_timeout_ms"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		DBDriver:         DriverSQLite,
		DBDSN:            "pizarra.db",
		MarkerSize:       60,
		MobileBreakpoint: 768,
		MaxSelection:     11,
		DefaultFormation: "4-4-2",
		FeedBuffer:       64,
		DirectoryPreload: 100,
		WSWriteTimeoutMS: 2000,
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.DBDriver) {
	case DriverSQLite, DriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("%w: db_dsn must be set for driver %q", ErrInvalidConfig, c.DBDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.MarkerSize <= 0 {
		return fmt.Errorf("%w: marker_size must be positive", ErrInvalidConfig)
	}
	if c.MobileBreakpoint <= 0 {
		return fmt.Errorf("%w: mobile_breakpoint must be positive", ErrInvalidConfig)
	}
	if c.MaxSelection <= 0 {
		return fmt.Errorf("%w: max_selection must be positive", ErrInvalidConfig)
	}
	if c.FeedBuffer <= 0 {
		return fmt.Errorf("%w: feed_buffer must be positive", ErrInvalidConfig)
	}
	if c.DirectoryPreload < 0 {
		return fmt.Errorf("%w: directory_preload must not be negative", ErrInvalidConfig)
	}
	if c.WSWriteTimeoutMS <= 0 {
		return fmt.Errorf("%w: ws_write_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
