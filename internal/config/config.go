// Package config loads callscope configuration from an optional YAML file
// layered with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/callscope/callscope/profiler"
)

// Environment variables recognized as overrides. They win over the config
// file, which wins over defaults.
const (
	EnvConfigPath    = "CALLSCOPE_CONFIG"
	EnvReportPath    = "CALLSCOPE_REPORT_PATH"
	EnvReportSort    = "CALLSCOPE_REPORT_SORT"
	EnvHookFrequency = "CALLSCOPE_HOOK_FREQUENCY"
	EnvStoragePath   = "CALLSCOPE_DB_PATH"
	EnvLogLevel      = "CALLSCOPE_LOG_LEVEL"
)

// Config is the top-level configuration.
type Config struct {
	Report  ReportConfig  `yaml:"report"`
	Hook    HookConfig    `yaml:"hook"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ReportConfig controls report emission.
type ReportConfig struct {
	// Path is the report file location.
	Path string `yaml:"path"`
	// Sort selects the report ordering: "duration" or "count".
	Sort string `yaml:"sort"`
}

// HookConfig controls the instrumentation mechanism.
type HookConfig struct {
	// Frequency is the sampling divisor: 0 delivers every event, N every
	// Nth.
	Frequency int `yaml:"frequency"`
}

// StorageConfig controls the optional report history database.
type StorageConfig struct {
	// Path is the DuckDB database file; empty disables storage.
	Path string `yaml:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Report: ReportConfig{
			Path: profiler.DefaultReportPath,
			Sort: profiler.SortByDuration.String(),
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// DefaultPath returns the config file location: $CALLSCOPE_CONFIG if set,
// otherwise ~/.callscope/config.yaml. An empty string means no usable
// location exists and defaults apply.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".callscope", "config.yaml")
}

// Load reads the configuration at path, falling back to defaults when the
// file does not exist, then applies environment overrides and validates.
// An empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults plus env overrides.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays recognized environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvReportPath); v != "" {
		cfg.Report.Path = v
	}
	if v := os.Getenv(EnvReportSort); v != "" {
		cfg.Report.Sort = v
	}
	if v := os.Getenv(EnvStoragePath); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvHookFrequency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s=%q: %w", EnvHookFrequency, v, err)
		}
		cfg.Hook.Frequency = n
	}
	return nil
}

// Validate checks cfg for values the profiler cannot accept.
func (c *Config) Validate() error {
	if c.Hook.Frequency < 0 {
		return fmt.Errorf("hook frequency must be non-negative, got %d", c.Hook.Frequency)
	}
	if _, err := profiler.ParseSortMethod(c.Report.Sort); err != nil {
		return fmt.Errorf("report sort: %w", err)
	}
	return nil
}

// SortMethod returns the configured report ordering. Validate must have
// accepted the config first.
func (c *Config) SortMethod() profiler.SortMethod {
	m, _ := profiler.ParseSortMethod(c.Report.Sort)
	return m
}
