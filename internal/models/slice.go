package models

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MITK/MITK-sub033/pkg/geometry"
)

// Slice describes one slice of a stack as printed by geomtool
type Slice struct {
	// Index is the position of this slice in the stack
	Index int

	// Origin is the world position of the first corner of the slice
	Origin r3.Vec

	// Center is the world position of the middle of the slice
	Center r3.Vec

	// Normal is the unit normal of the slice
	Normal r3.Vec

	// Thickness is the physical thickness of the slice in mm
	Thickness float64

	// Position is the signed distance of the slice from the first one along
	// the stacking direction
	Position float64
}

// Summary describes any geometry for display
type Summary struct {
	// Kind is the concrete geometry type
	Kind string

	Origin  r3.Vec
	Spacing r3.Vec

	// Extent is the bounding box size in index units; ExtentMM the size in mm
	Extent   [3]float64
	ExtentMM [3]float64

	Bounds        [6]float64
	TimeBounds    geometry.TimeBounds
	ImageGeometry bool

	// Slices and TimeSteps count the slots of stacks and sequences
	Slices    int
	TimeSteps int
}

// Corner is one row of a corner table
type Corner struct {
	ID    int
	Index r3.Vec
	World r3.Vec
}

// Kind returns the name of the concrete type of g
func Kind(g geometry.Geometry) string {
	switch g.(type) {
	case *geometry.PlaneGeometry:
		return "PlaneGeometry"
	case *geometry.Geometry2D:
		return "Geometry2D"
	case *geometry.SlicedGeometry3D:
		return "SlicedGeometry3D"
	case *geometry.TimeSlicedGeometry:
		return "TimeSlicedGeometry"
	case *geometry.Geometry3D:
		return "Geometry3D"
	}
	return "unknown"
}

// Summarize collects the displayed properties of g
func Summarize(g geometry.Geometry) Summary {
	b := g.Base()
	s := Summary{
		Kind:          Kind(g),
		Origin:        b.Origin(),
		Spacing:       b.Spacing(),
		Bounds:        b.Bounds(),
		TimeBounds:    b.TimeBounds(),
		ImageGeometry: b.ImageGeometry(),
	}
	for axis := 0; axis < 3; axis++ {
		s.Extent[axis] = b.Extent(axis)
		s.ExtentMM[axis] = b.ExtentInMM(axis)
	}
	switch v := g.(type) {
	case *geometry.SlicedGeometry3D:
		s.Slices = v.Slices()
	case *geometry.TimeSlicedGeometry:
		s.TimeSteps = v.TimeSteps()
	}
	return s
}

// Slices lists every slice of s that is stored or derivable. Positions are
// measured from the first listed slice along the stacking direction.
func Slices(s *geometry.SlicedGeometry3D) []Slice {
	var out []Slice
	var first r3.Vec
	direction := s.DirectionVector()
	for i := 0; i < s.Slices(); i++ {
		g := s.Geometry2D(i)
		if g == nil {
			continue
		}
		b := g.Base()
		normal := r3.Unit(b.AxisVector(2))
		if len(out) == 0 {
			first = b.Origin()
			if direction == (r3.Vec{}) {
				direction = normal
			}
		}
		out = append(out, Slice{
			Index:     i,
			Origin:    b.Origin(),
			Center:    b.Center(),
			Normal:    normal,
			Thickness: b.ExtentInMM(2),
			Position:  r3.Dot(r3.Sub(b.Origin(), first), direction),
		})
	}
	return out
}

// Corners lists the eight corners of the bounding box of g in index and
// world coordinates
func Corners(g geometry.Geometry) ([]Corner, error) {
	b := g.Base()
	box := b.BoundingBox()
	corners := make([]Corner, 0, 8)
	for id := 0; id < 8; id++ {
		idx, err := box.Corner(id)
		if err != nil {
			return nil, err
		}
		world, err := b.CornerPoint(id)
		if err != nil {
			return nil, err
		}
		corners = append(corners, Corner{ID: id, Index: idx, World: world})
	}
	return corners, nil
}
