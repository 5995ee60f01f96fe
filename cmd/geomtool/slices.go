package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MITK/MITK-sub033/internal/models"
	"github.com/MITK/MITK-sub033/pkg/geometry"
	"github.com/MITK/MITK-sub033/pkg/geometryio"
)

var (
	slicesOutput      string
	slicesOrientation string
	slicesBottom      bool
	slicesBackside    bool
	slicesRotated     bool
	slicesNearest     []float64
	slicesCount       int
)

var slicesCmd = &cobra.Command{
	Use:   "slices [volume]",
	Short: "Cut a volume into a stack of standard planes",
	Long: `Cover a volume geometry with evenly spaced standard planes, one voxel apart,
and list the resulting slices. With --nearest the slices closest to a world
point are reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runSlices,
}

func init() {
	rootCmd.AddCommand(slicesCmd)

	slicesCmd.Flags().StringVarP(&slicesOutput, "output", "o", "", "Output stack geometry file")
	slicesCmd.Flags().StringVar(&slicesOrientation, "orientation", "transversal", "transversal, sagittal or frontal")
	slicesCmd.Flags().BoolVar(&slicesBottom, "bottom", false, "Start the stack at the bottom side of the volume")
	slicesCmd.Flags().BoolVar(&slicesBackside, "back", false, "View the planes from the back side")
	slicesCmd.Flags().BoolVar(&slicesRotated, "rotated", false, "Rotate the planes by 180 degrees")
	slicesCmd.Flags().Float64SliceVar(&slicesNearest, "nearest", nil, "World point to find the nearest slices for (x,y,z)")
	slicesCmd.Flags().IntVarP(&slicesCount, "count", "k", 1, "Number of nearest slices to report")
}

func runSlices(cmd *cobra.Command, args []string) error {
	ref, err := geometryio.Load(args[0])
	if err != nil {
		return err
	}
	orientation, err := geometry.ParsePlaneOrientation(slicesOrientation)
	if err != nil {
		return err
	}

	s := geometry.NewSlicedGeometry3D()
	if err := s.InitializePlanes(ref, orientation, !slicesBottom, !slicesBackside, slicesRotated); err != nil {
		return err
	}

	printSummary(s)
	fmt.Printf("  Direction: %s\n", formatVec(s.DirectionVector()))
	if err := printSlices(s); err != nil {
		return err
	}

	if len(slicesNearest) > 0 {
		if err := printNearestSlices(s); err != nil {
			return err
		}
	}

	if slicesOutput != "" {
		if err := geometryio.Save(s, slicesOutput); err != nil {
			return err
		}
		fmt.Printf("\nStack saved to: %s\n", slicesOutput)
	}
	return nil
}

func printSlices(s *geometry.SlicedGeometry3D) error {
	fmt.Println("\nSlices:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tPosition (mm)\tOrigin\tCenter\tThickness (mm)")
	for _, sl := range models.Slices(s) {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\n", sl.Index, formatFloat(sl.Position), formatVec(sl.Origin), formatVec(sl.Center), formatFloat(sl.Thickness))
	}
	return w.Flush()
}

func printNearestSlices(s *geometry.SlicedGeometry3D) error {
	p, err := toVec("nearest", slicesNearest)
	if err != nil {
		return err
	}
	locator, err := geometry.NewSliceLocator(s)
	if err != nil {
		return err
	}

	fmt.Printf("\nNearest slices to %s:\n", formatVec(p))
	for _, i := range locator.NearestSlices(p, slicesCount) {
		plane, err := s.Plane(i)
		if err != nil {
			return err
		}
		fmt.Printf("  Slice %d at %s mm\n", i, formatFloat(plane.Distance(p)))
	}
	return nil
}
