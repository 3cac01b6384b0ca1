// Package config holds the runtime settings of a conversion run.
package config

import (
	"fmt"
	"strings"
)

// Config is the flat set of runtime settings. Column and item mappings are
// not part of it; those live in profiles.
type Config struct {
	Profile        string `koanf:"profile"`
	ProfileFile    string `koanf:"profile_file"`
	Sheet          string `koanf:"sheet"`
	StandardsSheet string `koanf:"standards_sheet"`
	Workers        int    `koanf:"workers"`
	LogLevel       string `koanf:"log_level"`
	Report         string `koanf:"report"`
	MetricsOut     string `koanf:"metrics_out"`
	CheckStandards bool   `koanf:"check_standards"`
}

const (
	defaultProfile  = "standard"
	defaultWorkers  = 1
	defaultLogLevel = "info"
	maxWorkers      = 256
)

// New returns the default configuration.
func New() *Config {
	return &Config{
		Profile:  defaultProfile,
		Workers:  defaultWorkers,
		LogLevel: defaultLogLevel,
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Profile == "" && c.ProfileFile == "" {
		return fmt.Errorf("%w: profile or profile_file must be set", ErrInvalidConfig)
	}
	if c.Workers < 1 || c.Workers > maxWorkers {
		return fmt.Errorf("%w: workers must be between 1 and %d, got %d", ErrInvalidConfig, maxWorkers, c.Workers)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
