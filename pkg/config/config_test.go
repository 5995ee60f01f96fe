package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MITK/MITK-sub033/pkg/geometry"
)

// TestDefaultConfig checks the default values and that they validate
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Geometry.Eps != geometry.Eps {
		t.Errorf("Geometry.Eps = %g, want %g", cfg.Geometry.Eps, geometry.Eps)
	}
	if cfg.Geometry.EvenSpacingTolerance != geometry.DefaultEvenSpacingTolerance {
		t.Errorf("Geometry.EvenSpacingTolerance = %g", cfg.Geometry.EvenSpacingTolerance)
	}
	if cfg.Output.Verbose {
		t.Errorf("Output.Verbose should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

// TestLoadConfigMissingFile checks that a missing file yields the defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.CLI.DefaultWidth != DefaultConfig().CLI.DefaultWidth {
		t.Errorf("CLI.DefaultWidth = %g, want default", cfg.CLI.DefaultWidth)
	}
}

// TestSaveLoadConfig checks that saved settings are read back
func TestSaveLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "geomtool.yaml")
	cfg := DefaultConfig()
	cfg.Geometry.PlaneThickness = 2.5
	cfg.Output.Verbose = true
	cfg.Output.Precision = 6
	cfg.CLI.DefaultSpacing = 0.75
	cfg.Catalog.Path = filepath.Join("data", "catalog.db")

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded config %+v, want %+v", *loaded, *cfg)
	}
}

// TestPartialConfig checks that unset keys keep their defaults
func TestPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("output:\n  precision: 1\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Output.Precision != 1 {
		t.Errorf("Output.Precision = %d, want 1", cfg.Output.Precision)
	}
	if cfg.Geometry.PlaneThickness != 1.0 {
		t.Errorf("Geometry.PlaneThickness = %g, want default 1", cfg.Geometry.PlaneThickness)
	}
}

// TestLoadConfigErrors checks rejection of malformed and invalid files
func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", "geometry: [", "error parsing config file"},
		{"negative eps", "geometry:\n  eps: -1\n", "geometry.eps"},
		{"zero thickness", "geometry:\n  planeThickness: 0\n", "planeThickness"},
		{"zero spacing", "cli:\n  defaultSpacing: 0\n", "defaultSpacing"},
		{"empty catalog", "catalog:\n  path: \"\"\n", "catalog.path"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("LoadConfig error = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

// TestCreateDefaultConfigFile checks that the written file holds the defaults
func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("default file loaded as %+v", *cfg)
	}
}
