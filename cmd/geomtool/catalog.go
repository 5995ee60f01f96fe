package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MITK/MITK-sub033/pkg/geometryio"
	"github.com/MITK/MITK-sub033/pkg/geometrystore"
)

var (
	catalogPath   string
	catalogOutput string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Keep named geometries in a SQLite catalog",
}

var catalogPutCmd = &cobra.Command{
	Use:   "put [name] [file]",
	Short: "Store a geometry file under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := geometryio.Load(args[1])
		if err != nil {
			return err
		}
		return withCatalog(func(s *geometrystore.Store) error {
			if err := s.Put(cmd.Context(), args[0], g); err != nil {
				return err
			}
			fmt.Printf("Stored %s in %s\n", args[0], s.Path())
			return nil
		})
	},
}

var catalogGetCmd = &cobra.Command{
	Use:   "get [name]",
	Short: "Write a stored geometry to a file and show it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(s *geometrystore.Store) error {
			g, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSummary(g)
			if catalogOutput != "" {
				if err := geometryio.Save(g, catalogOutput); err != nil {
					return err
				}
				fmt.Printf("\nGeometry saved to: %s\n", catalogOutput)
			}
			return nil
		})
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored geometries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(s *geometrystore.Store) error {
			entries, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Name\tKind\tModified")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Kind, e.Modified.Format(time.RFC3339))
			}
			return w.Flush()
		})
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Remove a geometry from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(s *geometrystore.Store) error {
			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogPutCmd, catalogGetCmd, catalogListCmd, catalogDeleteCmd)

	catalogCmd.PersistentFlags().StringVar(&catalogPath, "db", "", "Catalog database (default from config)")
	catalogGetCmd.Flags().StringVarP(&catalogOutput, "output", "o", "", "Output geometry file")
}

func withCatalog(fn func(*geometrystore.Store) error) error {
	path := catalogPath
	if path == "" {
		path = cfg.Catalog.Path
	}
	s, err := geometrystore.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
