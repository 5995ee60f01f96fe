package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MITK/MITK-sub033/pkg/config"
	"github.com/MITK/MITK-sub033/pkg/geometry"
)

var (
	configPath string
	verbose    bool
	cfg        = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "geomtool",
	Short: "Build, inspect and edit image geometries",
	Long: `geomtool creates and manipulates the spatial description of medical images:
volumes, standard planes, stacks of slices and sequences of time steps.
Geometries are stored as YAML documents.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "geomtool.yaml", "Configuration file (defaults are used if it does not exist)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log geometry diagnostics")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	if verbose {
		cfg.Output.Verbose = true
	}
	if cfg.Output.Verbose {
		geometry.SetLogger(log.Default())
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("geomtool: %v", err)
	}
}

// toVec converts a three element flag value into a vector
func toVec(name string, values []float64) (r3.Vec, error) {
	if len(values) != 3 {
		return r3.Vec{}, fmt.Errorf("--%s needs 3 comma separated values, got %d", name, len(values))
	}
	return r3.Vec{X: values[0], Y: values[1], Z: values[2]}, nil
}

// formatVec prints v with the configured precision
func formatVec(v r3.Vec) string {
	p := cfg.Output.Precision
	return fmt.Sprintf("(%.*f, %.*f, %.*f)", p, v.X, p, v.Y, p, v.Z)
}

// formatFloat prints f with the configured precision
func formatFloat(f float64) string {
	return fmt.Sprintf("%.*f", cfg.Output.Precision, f)
}

func printHeader(title string) {
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))
}
