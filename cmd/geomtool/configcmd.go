package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MITK/MITK-sub033/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the geomtool configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.CreateDefaultConfigFile(path); err != nil {
			return err
		}
		fmt.Printf("Default configuration written to: %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration in effect",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Configuration file: %s\n\n", configPath)
		fmt.Printf("geometry.eps: %g\n", cfg.Geometry.Eps)
		fmt.Printf("geometry.planeThickness: %g\n", cfg.Geometry.PlaneThickness)
		fmt.Printf("geometry.evenSpacingTolerance: %g\n", cfg.Geometry.EvenSpacingTolerance)
		fmt.Printf("output.verbose: %t\n", cfg.Output.Verbose)
		fmt.Printf("output.precision: %d\n", cfg.Output.Precision)
		fmt.Printf("cli.defaultWidth: %g\n", cfg.CLI.DefaultWidth)
		fmt.Printf("cli.defaultHeight: %g\n", cfg.CLI.DefaultHeight)
		fmt.Printf("cli.defaultSpacing: %g\n", cfg.CLI.DefaultSpacing)
		fmt.Printf("catalog.path: %s\n", cfg.Catalog.Path)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
