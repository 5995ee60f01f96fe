// Package config provides configuration loading and management for geomtool.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MITK/MITK-sub033/pkg/geometry"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Geometry tolerances
	Geometry struct {
		// Eps is the tolerance used when comparing geometries
		Eps float64 `yaml:"eps"`

		// PlaneThickness is the length of the normal of newly created planes in mm
		PlaneThickness float64 `yaml:"planeThickness"`

		// EvenSpacingTolerance is the standard deviation of slice distances
		// in mm still accepted as an evenly spaced stack
		EvenSpacingTolerance float64 `yaml:"evenSpacingTolerance"`
	} `yaml:"geometry"`

	// Output parameters
	Output struct {
		// Verbose attaches the standard logger to the geometry package
		Verbose bool `yaml:"verbose"`

		// Precision is the number of decimals printed for coordinates
		Precision int `yaml:"precision"`
	} `yaml:"output"`

	// Defaults for geometries built on the command line
	CLI struct {
		// DefaultWidth is the plane width in units
		DefaultWidth float64 `yaml:"defaultWidth"`

		// DefaultHeight is the plane height in units
		DefaultHeight float64 `yaml:"defaultHeight"`

		// DefaultSpacing is the in-plane spacing in mm
		DefaultSpacing float64 `yaml:"defaultSpacing"`
	} `yaml:"cli"`

	// Catalog of named geometries
	Catalog struct {
		// Path is the SQLite database file
		Path string `yaml:"path"`
	} `yaml:"catalog"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default geometry parameters
	cfg.Geometry.Eps = geometry.Eps
	cfg.Geometry.PlaneThickness = 1.0
	cfg.Geometry.EvenSpacingTolerance = geometry.DefaultEvenSpacingTolerance

	// Set default output parameters
	cfg.Output.Verbose = false
	cfg.Output.Precision = 3

	// Set default command line parameters
	cfg.CLI.DefaultWidth = 256
	cfg.CLI.DefaultHeight = 256
	cfg.CLI.DefaultSpacing = 1.0

	// Set default catalog parameters
	cfg.Catalog.Path = "geometries.db"

	return cfg
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	switch {
	case c.Geometry.Eps < 0:
		return errors.New("geometry.eps must not be negative")
	case c.Geometry.PlaneThickness <= 0:
		return errors.New("geometry.planeThickness must be positive")
	case c.Geometry.EvenSpacingTolerance < 0:
		return errors.New("geometry.evenSpacingTolerance must not be negative")
	case c.Output.Precision < 0:
		return errors.New("output.precision must not be negative")
	case c.CLI.DefaultWidth <= 0 || c.CLI.DefaultHeight <= 0:
		return errors.New("cli.defaultWidth and cli.defaultHeight must be positive")
	case c.CLI.DefaultSpacing <= 0:
		return errors.New("cli.defaultSpacing must be positive")
	case c.Catalog.Path == "":
		return errors.New("catalog.path must not be empty")
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
