package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// DefaultEvenSpacingTolerance is the standard deviation (mm) of slice
// distances up to which a plane stack counts as evenly spaced.
const DefaultEvenSpacingTolerance = 1e-3

// StackAnalysis describes the spacing of an ordered list of planes.
type StackAnalysis struct {
	// Distances holds the signed distance between consecutive planes along
	// the normal of the first plane.
	Distances []float64
	// MeanSpacing and StdDevSpacing summarise Distances.
	MeanSpacing   float64
	StdDevSpacing float64
	// Parallel is set when every plane is parallel to the first one.
	Parallel bool
	// Aligned is set when every plane is the first one shifted along its
	// normal, with the same in-plane axes.
	Aligned bool
	// EvenlySpaced is set when the stack can be represented by its first
	// plane, a distance and a direction.
	EvenlySpaced bool
	// Direction is the unit stacking direction.
	Direction r3.Vec
}

// AnalyzePlaneStack measures the distances between consecutive planes and
// decides whether the stack is evenly spaced within tolerance.
func AnalyzePlaneStack(planes []*PlaneGeometry, tolerance float64) (StackAnalysis, error) {
	if len(planes) == 0 {
		return StackAnalysis{}, fmt.Errorf("analyzing an empty plane stack: %w", ErrPrecondition)
	}
	for i, p := range planes {
		if p == nil {
			return StackAnalysis{}, fmt.Errorf("plane %d is nil: %w", i, ErrPrecondition)
		}
	}
	first := planes[0]
	a := StackAnalysis{
		Parallel:  true,
		Aligned:   true,
		Direction: first.UnitNormal(),
	}
	prev := 0.0
	for _, p := range planes[1:] {
		if !first.IsParallel(p) {
			a.Parallel = false
		}
		if !EqualVec(first.ProjectPointOntoPlane(p.Origin()), first.Origin(), Eps) ||
			!EqualVec(first.AxisVector(0), p.AxisVector(0), Eps) ||
			!EqualVec(first.AxisVector(1), p.AxisVector(1), Eps) {
			a.Aligned = false
		}
		d := first.SignedDistance(p.Origin())
		a.Distances = append(a.Distances, d-prev)
		prev = d
	}
	switch len(a.Distances) {
	case 0:
		a.MeanSpacing = first.ExtentInMM(2) / first.Extent(2)
	case 1:
		a.MeanSpacing = a.Distances[0]
	default:
		a.MeanSpacing = stat.Mean(a.Distances, nil)
		a.StdDevSpacing = stat.StdDev(a.Distances, nil)
	}
	if a.MeanSpacing < 0 {
		a.Direction = r3.Scale(-1, a.Direction)
	}
	a.EvenlySpaced = a.Parallel && a.Aligned &&
		math.Abs(a.MeanSpacing) > Eps && a.StdDevSpacing <= tolerance
	return a, nil
}

// InitializeFromPlanes builds the stack from an ordered list of planes. An
// evenly spaced list only keeps a copy of its first plane; any other list is
// stored slice by slice.
func (s *SlicedGeometry3D) InitializeFromPlanes(planes []*PlaneGeometry, tolerance float64) (StackAnalysis, error) {
	a, err := AnalyzePlaneStack(planes, tolerance)
	if err != nil {
		return a, err
	}
	first := planes[0]
	if a.EvenlySpaced {
		return a, s.InitializeEvenlySpaced(first.Clone(), math.Abs(a.MeanSpacing), len(planes), a.MeanSpacing < 0)
	}

	s.Initialize(len(planes))
	s.evenlySpaced = false
	s.SetIndexToWorldTransform(first.transform)
	bounds := first.Bounds()
	bounds[4], bounds[5] = 0, float64(len(planes))
	if err := s.SetBounds(bounds); err != nil {
		return a, err
	}
	zSpacing := math.Abs(a.MeanSpacing)
	if zSpacing < Eps {
		zSpacing = 1
	}
	sp := s.Spacing()
	if err := s.Geometry3D.SetSpacing(r3.Vec{X: sp.X, Y: sp.Y, Z: zSpacing}); err != nil {
		return a, err
	}
	s.SetDirectionVector(a.Direction)
	for i, p := range planes {
		s.SetGeometry2D(p.Clone(), i)
	}
	s.SetTimeBounds(first.TimeBounds())
	s.SetFrameOfReferenceID(first.FrameOfReferenceID())
	s.SetImageGeometry(first.ImageGeometry())
	return a, nil
}
