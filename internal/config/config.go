// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/unimage/internal/decode"
	"github.com/ironsheep/unimage/internal/transform"
)

// Environment variables that override file values.
const (
	EnvLogLevel      = "UNIMAGE_LOG_LEVEL"
	EnvResizeFilter  = "UNIMAGE_RESIZE_FILTER"
	EnvMaxPixels     = "UNIMAGE_MAX_PIXELS"
	EnvMaxProcessors = "UNIMAGE_MAX_PROCESSORS"
	EnvAllowPaths    = "UNIMAGE_ALLOW_PATHS"
)

// Config represents the full configuration for the unimage server.
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Engine
	ResizeFilter string `yaml:"resize_filter"`
	MaxPixels    int    `yaml:"max_pixels"`

	// Server
	MaxProcessors int  `yaml:"max_processors"`
	AllowPaths    bool `yaml:"allow_paths"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		LogLevel:      "info",
		ResizeFilter:  string(transform.DefaultFilter),
		MaxPixels:     decode.DefaultMaxPixels,
		MaxProcessors: 64,
		AllowPaths:    true,
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from UNIMAGE_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvResizeFilter); v != "" {
		c.ResizeFilter = v
	}
	if v := getenv(EnvMaxPixels); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxPixels, err)
		}
		c.MaxPixels = n
	}
	if v := getenv(EnvMaxProcessors); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxProcessors, err)
		}
		c.MaxProcessors = n
	}
	if v := getenv(EnvAllowPaths); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAllowPaths, err)
		}
		c.AllowPaths = b
	}
	return nil
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q must be debug, info, warn or error", c.LogLevel)
	}
	if _, err := transform.ParseFilter(c.ResizeFilter); err != nil {
		return fmt.Errorf("resize_filter: %w", err)
	}
	if c.MaxPixels < 1 {
		return fmt.Errorf("max_pixels must be positive, got %d", c.MaxPixels)
	}
	if c.MaxProcessors < 1 {
		return fmt.Errorf("max_processors must be positive, got %d", c.MaxProcessors)
	}
	return nil
}

// Filter returns the parsed resize filter. Call Validate first.
func (c Config) Filter() transform.Filter {
	f, err := transform.ParseFilter(c.ResizeFilter)
	if err != nil {
		return transform.DefaultFilter
	}
	return f
}
