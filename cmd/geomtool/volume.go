package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MITK/MITK-sub033/pkg/geometry"
	"github.com/MITK/MITK-sub033/pkg/geometryio"
)

var (
	volumeOutput        string
	volumeSize          []float64
	volumeSpacing       []float64
	volumeOrigin        []float64
	volumeImageGeometry bool
	volumeTimeBounds    []float64
)

var volumeCmd = &cobra.Command{
	Use:   "volume",
	Short: "Create an axis aligned volume geometry",
	Long: `Create a volume of the given size in voxels and spacing in mm.
With --image-geometry the origin is the centre of the first voxel.`,
	Args: cobra.NoArgs,
	RunE: runVolume,
}

func init() {
	rootCmd.AddCommand(volumeCmd)

	volumeCmd.Flags().StringVarP(&volumeOutput, "output", "o", "volume.yaml", "Output geometry file")
	volumeCmd.Flags().Float64SliceVar(&volumeSize, "size", []float64{64, 64, 32}, "Size in voxels (x,y,z)")
	volumeCmd.Flags().Float64SliceVar(&volumeSpacing, "spacing", []float64{1, 1, 1}, "Voxel spacing in mm (x,y,z)")
	volumeCmd.Flags().Float64SliceVar(&volumeOrigin, "origin", []float64{0, 0, 0}, "World origin in mm (x,y,z)")
	volumeCmd.Flags().BoolVar(&volumeImageGeometry, "image-geometry", false, "Address voxel centres instead of corners")
	volumeCmd.Flags().Float64SliceVar(&volumeTimeBounds, "time", nil, "Time bounds in ms (start,end)")
}

func runVolume(cmd *cobra.Command, args []string) error {
	size, err := toVec("size", volumeSize)
	if err != nil {
		return err
	}
	spacing, err := toVec("spacing", volumeSpacing)
	if err != nil {
		return err
	}
	origin, err := toVec("origin", volumeOrigin)
	if err != nil {
		return err
	}

	g := geometry.NewGeometry3D()
	if err := g.SetBounds([6]float64{0, size.X, 0, size.Y, 0, size.Z}); err != nil {
		return err
	}
	if err := g.SetSpacing(spacing); err != nil {
		return err
	}
	g.SetOrigin(origin)
	g.SetImageGeometry(volumeImageGeometry)
	if len(volumeTimeBounds) > 0 {
		if len(volumeTimeBounds) != 2 {
			return fmt.Errorf("--time needs 2 values, got %d", len(volumeTimeBounds))
		}
		g.SetTimeBounds(geometry.TimeBounds{volumeTimeBounds[0], volumeTimeBounds[1]})
	}

	if err := geometryio.Save(g, volumeOutput); err != nil {
		return err
	}
	printSummary(g)
	fmt.Printf("\nVolume saved to: %s\n", volumeOutput)
	return nil
}
