package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MITK/MITK-sub033/pkg/geometry"
	"github.com/MITK/MITK-sub033/pkg/geometryio"
)

var (
	planeOutput      string
	planeOrientation string
	planeWidth       float64
	planeHeight      float64
	planeSpacing     float64
	planeZ           float64
	planeBackside    bool
	planeRotated     bool
	planeReference   string
	planePoint       []float64
	planeNormal      []float64
)

var planeCmd = &cobra.Command{
	Use:   "plane",
	Short: "Create a plane geometry",
	Long: `Create a standard plane (transversal/axial, sagittal or frontal/coronal).
With --reference the plane cuts the given volume at slice --z; with --normal an
arbitrary plane through --point is built instead.`,
	Args: cobra.NoArgs,
	RunE: runPlane,
}

func init() {
	rootCmd.AddCommand(planeCmd)

	planeCmd.Flags().StringVarP(&planeOutput, "output", "o", "plane.yaml", "Output geometry file")
	planeCmd.Flags().StringVar(&planeOrientation, "orientation", "transversal", "transversal, sagittal or frontal")
	planeCmd.Flags().Float64Var(&planeWidth, "width", 0, "Width in units (default from config)")
	planeCmd.Flags().Float64Var(&planeHeight, "height", 0, "Height in units (default from config)")
	planeCmd.Flags().Float64Var(&planeSpacing, "spacing", 0, "In-plane spacing in mm (default from config)")
	planeCmd.Flags().Float64Var(&planeZ, "z", 0, "Position along the normal (slice index with --reference)")
	planeCmd.Flags().BoolVar(&planeBackside, "back", false, "View the plane from the back side")
	planeCmd.Flags().BoolVar(&planeRotated, "rotated", false, "Rotate the plane by 180 degrees")
	planeCmd.Flags().StringVar(&planeReference, "reference", "", "Volume geometry file the plane is cut from")
	planeCmd.Flags().Float64SliceVar(&planePoint, "point", []float64{0, 0, 0}, "Point on an arbitrary plane (x,y,z)")
	planeCmd.Flags().Float64SliceVar(&planeNormal, "normal", nil, "Normal of an arbitrary plane (x,y,z)")

	planeCmd.MarkFlagsMutuallyExclusive("reference", "normal")
}

func runPlane(cmd *cobra.Command, args []string) error {
	p, err := buildPlane()
	if err != nil {
		return err
	}
	if err := geometryio.Save(p, planeOutput); err != nil {
		return err
	}

	printSummary(p)
	fmt.Printf("  Normal: %s\n", formatVec(p.UnitNormal()))
	fmt.Printf("  Center: %s\n", formatVec(p.Center()))
	fmt.Printf("\nPlane saved to: %s\n", planeOutput)
	return nil
}

func buildPlane() (*geometry.PlaneGeometry, error) {
	p := geometry.NewPlaneGeometry()

	if len(planeNormal) > 0 {
		normal, err := toVec("normal", planeNormal)
		if err != nil {
			return nil, err
		}
		point, err := toVec("point", planePoint)
		if err != nil {
			return nil, err
		}
		if err := p.InitializePlane(point, normal); err != nil {
			return nil, err
		}
		return p, nil
	}

	orientation, err := geometry.ParsePlaneOrientation(planeOrientation)
	if err != nil {
		return nil, err
	}

	if planeReference != "" {
		ref, err := geometryio.Load(planeReference)
		if err != nil {
			return nil, err
		}
		if err := p.InitializeStandardPlaneFromGeometry(ref, orientation, planeZ, !planeBackside, planeRotated); err != nil {
			return nil, err
		}
		return p, nil
	}

	width, height, spacing := planeWidth, planeHeight, planeSpacing
	if width == 0 {
		width = cfg.CLI.DefaultWidth
	}
	if height == 0 {
		height = cfg.CLI.DefaultHeight
	}
	if spacing == 0 {
		spacing = cfg.CLI.DefaultSpacing
	}
	s := r3.Vec{X: spacing, Y: spacing, Z: cfg.Geometry.PlaneThickness}
	if err := p.InitializeStandardPlaneWithSpacing(width, height, s, orientation, planeZ, !planeBackside, planeRotated); err != nil {
		return nil, err
	}
	return p, nil
}
