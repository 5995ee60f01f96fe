package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MITK/MITK-sub033/pkg/geometry"
	"github.com/MITK/MITK-sub033/pkg/geometryio"
)

var (
	timestepsOutput   string
	timestepsCount    int
	timestepsStart    float64
	timestepsDuration float64
	timestepsQuery    []float64
)

var timestepsCmd = &cobra.Command{
	Use:   "timesteps [geometry]",
	Short: "Repeat a geometry over evenly timed steps",
	Long: `Build a time sliced geometry whose first step is the given geometry and
whose further steps follow it with the same duration. With --ms the time step
of each given time is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runTimesteps,
}

func init() {
	rootCmd.AddCommand(timestepsCmd)

	timestepsCmd.Flags().StringVarP(&timestepsOutput, "output", "o", "", "Output sequence geometry file")
	timestepsCmd.Flags().IntVarP(&timestepsCount, "steps", "n", 10, "Number of time steps")
	timestepsCmd.Flags().Float64Var(&timestepsStart, "start", 0, "Start of the first step in ms (if the geometry has no finite time bounds)")
	timestepsCmd.Flags().Float64Var(&timestepsDuration, "duration", 1, "Duration of a step in ms (if the geometry has no finite time bounds)")
	timestepsCmd.Flags().Float64SliceVar(&timestepsQuery, "ms", nil, "Times in ms to convert to steps")
}

func runTimesteps(cmd *cobra.Command, args []string) error {
	first, err := geometryio.Load(args[0])
	if err != nil {
		return err
	}
	if _, ok := first.(*geometry.TimeSlicedGeometry); ok {
		return fmt.Errorf("%s already is a time sliced geometry", args[0])
	}
	if !first.TimeBounds().IsFinite() {
		if timestepsDuration <= 0 {
			return fmt.Errorf("--duration must be positive, got %g", timestepsDuration)
		}
		first.SetTimeBounds(geometry.TimeBounds{timestepsStart, timestepsStart + timestepsDuration})
	}

	ts := geometry.NewTimeSlicedGeometry()
	if err := ts.InitializeEvenlyTimed(first, timestepsCount); err != nil {
		return err
	}

	printSummary(ts)
	fmt.Println("\nTime steps:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tStart (ms)\tEnd (ms)")
	for t := 0; t < ts.TimeSteps(); t++ {
		tb := ts.TimeStepGeometry(t).TimeBounds()
		fmt.Fprintf(w, "  %d\t%g\t%g\n", t, ts.TimeStepToMS(t), tb[1])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(timestepsQuery) > 0 {
		fmt.Println("\nTime to step:")
		for _, ms := range timestepsQuery {
			step, err := ts.MSToTimeStep(ms)
			if err != nil {
				return err
			}
			switch {
			case step < 0:
				fmt.Printf("  %g ms: before the first step\n", ms)
			case step >= ts.TimeSteps():
				fmt.Printf("  %g ms: after the last step\n", ms)
			default:
				fmt.Printf("  %g ms: step %d\n", ms, step)
			}
		}
	}

	if timestepsOutput != "" {
		if err := geometryio.Save(ts, timestepsOutput); err != nil {
			return err
		}
		fmt.Printf("\nSequence saved to: %s\n", timestepsOutput)
	}
	return nil
}
