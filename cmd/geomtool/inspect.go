package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MITK/MITK-sub033/internal/models"
	"github.com/MITK/MITK-sub033/pkg/geometry"
	"github.com/MITK/MITK-sub033/pkg/geometryio"
)

var (
	inspectCorners bool
	inspectCompare string
	inspectPoint   []float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Display information about a geometry file",
	Long: `Show the kind, origin, spacing, extent and time bounds of a geometry.
Optionally list its corners, convert a world point to index coordinates or
compare it with a second geometry.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&inspectCorners, "corners", false, "List the eight bounding box corners")
	inspectCmd.Flags().StringVar(&inspectCompare, "compare", "", "Geometry file to compare with")
	inspectCmd.Flags().Float64SliceVar(&inspectPoint, "point", nil, "World point to locate (x,y,z)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	g, err := geometryio.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n\n", args[0])
	printSummary(g)

	if inspectCorners {
		if err := printCorners(g); err != nil {
			return err
		}
	}

	if len(inspectPoint) > 0 {
		p, err := toVec("point", inspectPoint)
		if err != nil {
			return err
		}
		idx, err := g.WorldToIndex(p)
		if err != nil {
			return err
		}
		inside, err := g.Base().IsInside(p)
		if err != nil {
			return err
		}
		fmt.Printf("\nPoint %s\n", formatVec(p))
		fmt.Printf("  Index: %s\n", formatVec(idx))
		fmt.Printf("  Inside: %t\n", inside)
	}

	if inspectCompare != "" {
		other, err := geometryio.Load(inspectCompare)
		if err != nil {
			return err
		}
		// Differences are always reported, not only in verbose mode
		if !cfg.Output.Verbose {
			geometry.SetLogger(log.New(os.Stdout, "  ", 0))
			defer geometry.SetLogger(nil)
		}
		fmt.Printf("\nComparing with %s (eps %g):\n", inspectCompare, cfg.Geometry.Eps)
		if geometry.Equal(g, other, cfg.Geometry.Eps, true) {
			fmt.Println("  Geometries are equal")
		} else {
			fmt.Println("  Geometries differ")
		}
	}
	return nil
}

func printSummary(g geometry.Geometry) {
	s := models.Summarize(g)

	printHeader(s.Kind)
	fmt.Printf("  Origin: %s\n", formatVec(s.Origin))
	fmt.Printf("  Spacing: %s\n", formatVec(s.Spacing))
	fmt.Printf("  Bounds: %v\n", s.Bounds)
	fmt.Printf("  Extent (units): %s x %s x %s\n", formatFloat(s.Extent[0]), formatFloat(s.Extent[1]), formatFloat(s.Extent[2]))
	fmt.Printf("  Extent (mm): %s x %s x %s\n", formatFloat(s.ExtentMM[0]), formatFloat(s.ExtentMM[1]), formatFloat(s.ExtentMM[2]))
	fmt.Printf("  Time bounds (ms): [%g, %g]\n", s.TimeBounds[0], s.TimeBounds[1])
	fmt.Printf("  Image geometry: %t\n", s.ImageGeometry)
	if s.Kind == "SlicedGeometry3D" {
		fmt.Printf("  Slices: %d\n", s.Slices)
	}
	if s.Kind == "TimeSlicedGeometry" {
		fmt.Printf("  Time steps: %d\n", s.TimeSteps)
	}
}

func printCorners(g geometry.Geometry) error {
	corners, err := models.Corners(g)
	if err != nil {
		return err
	}
	fmt.Println("\nCorners:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tIndex\tWorld")
	for _, c := range corners {
		fmt.Fprintf(w, "  %d\t%s\t%s\n", c.ID, formatVec(c.Index), formatVec(c.World))
	}
	return w.Flush()
}
