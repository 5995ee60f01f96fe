package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// PlanarGeometry is a geometry whose index z axis is collapsed, so that world
// points can be mapped to 2D parametric coordinates in mm. It is implemented by
// *Geometry2D and *PlaneGeometry.
type PlanarGeometry interface {
	Geometry
	Base2D() *Geometry2D
	Map(p r3.Vec) (r2.Vec, bool, error)
	Unmap(p r2.Vec) r3.Vec
	Project(p r3.Vec) (r3.Vec, bool, error)
	UnitsToMM(p r2.Vec) (r2.Vec, error)
	MMToUnits(p r2.Vec) (r2.Vec, error)
	SetReferenceGeometry(ref Geometry)
}

// Geometry2D is a 2D manifold embedded in world space. Parametric coordinates
// are index x/y scaled by the per-axis mm-per-unit factors, which are kept in
// sync with the transform and bounds on every modification.
type Geometry2D struct {
	Geometry3D

	scaleFactorMMPerUnitX float64
	scaleFactorMMPerUnitY float64

	referenceGeometry Geometry
}

// NewGeometry2D returns an initialized 2D geometry with unit bounds.
func NewGeometry2D() *Geometry2D {
	g := &Geometry2D{}
	g.hooks = g
	g.Initialize()
	return g
}

// Base2D returns g.
func (g *Geometry2D) Base2D() *Geometry2D { return g }

// CloneGeometry implements Geometry.
func (g *Geometry2D) CloneGeometry() Geometry { return g.Clone() }

// Clone returns a deep copy. The reference geometry is shared, not copied.
func (g *Geometry2D) Clone() *Geometry2D {
	c := &Geometry2D{}
	c.hooks = c
	g.copyInto2D(c)
	return c
}

func (g *Geometry2D) copyInto2D(dst *Geometry2D) {
	g.Geometry3D.copyInto(&dst.Geometry3D)
	dst.scaleFactorMMPerUnitX = g.scaleFactorMMPerUnitX
	dst.scaleFactorMMPerUnitY = g.scaleFactorMMPerUnitY
	dst.referenceGeometry = g.referenceGeometry
}

func (g *Geometry2D) preSetIndexToWorldTransform(*AffineTransform) {}

func (g *Geometry2D) onModified() {
	g.scaleFactorMMPerUnitX = g.scaleFactor(0)
	g.scaleFactorMMPerUnitY = g.scaleFactor(1)
}

func (g *Geometry2D) scaleFactor(axis int) float64 {
	if e := g.Extent(axis); e != 0 {
		return g.ExtentInMM(axis) / e
	}
	return r3.Norm(g.transform.Column(axis))
}

// ScaleFactorMMPerUnit returns the mm covered by one index unit along x and y.
func (g *Geometry2D) ScaleFactorMMPerUnit() (x, y float64) {
	return g.scaleFactorMMPerUnitX, g.scaleFactorMMPerUnitY
}

// Map projects a world point into parametric 2D mm coordinates. The flag
// reports whether the projection falls inside the bounding box.
func (g *Geometry2D) Map(p r3.Vec) (r2.Vec, bool, error) {
	idx, err := g.WorldToIndex(p)
	if err != nil {
		return r2.Vec{}, false, err
	}
	out := r2.Vec{X: idx.X * g.scaleFactorMMPerUnitX, Y: idx.Y * g.scaleFactorMMPerUnitY}
	idx.Z = 0
	return out, g.bounds.IsInside(idx), nil
}

// Unmap converts parametric 2D mm coordinates back to a world point on the manifold.
func (g *Geometry2D) Unmap(p r2.Vec) r3.Vec {
	idx := r3.Vec{X: p.X / g.scaleFactorMMPerUnitX, Y: p.Y / g.scaleFactorMMPerUnitY}
	return g.transform.TransformPoint(idx)
}

// MapVector maps the world vector v attached at world point at into
// parametric 2D mm coordinates. Both ends must be inside for the flag to be set.
func (g *Geometry2D) MapVector(at, v r3.Vec) (r2.Vec, bool, error) {
	start, in0, err := g.Map(at)
	if err != nil {
		return r2.Vec{}, false, err
	}
	end, in1, err := g.Map(r3.Add(at, v))
	if err != nil {
		return r2.Vec{}, false, err
	}
	return r2.Sub(end, start), in0 && in1, nil
}

// UnmapVector converts a parametric 2D mm vector to a world vector.
func (g *Geometry2D) UnmapVector(v r2.Vec) r3.Vec {
	idx := r3.Vec{X: v.X / g.scaleFactorMMPerUnitX, Y: v.Y / g.scaleFactorMMPerUnitY}
	return g.transform.TransformVector(idx)
}

// Project drops a world point onto the manifold along the index z axis.
func (g *Geometry2D) Project(p r3.Vec) (r3.Vec, bool, error) {
	idx, err := g.WorldToIndex(p)
	if err != nil {
		return r3.Vec{}, false, err
	}
	idx.Z = 0
	return g.transform.TransformPoint(idx), g.bounds.IsInside(idx), nil
}

// ProjectVector removes the index z component of a world vector.
func (g *Geometry2D) ProjectVector(v r3.Vec) (r3.Vec, error) {
	idx, err := g.WorldToIndexVector(v)
	if err != nil {
		return r3.Vec{}, err
	}
	idx.Z = 0
	return g.transform.TransformVector(idx), nil
}

// SetSizeInUnits sets the bounds to [0,width]x[0,height]x[0,1] while keeping
// the extent in mm of both axes.
func (g *Geometry2D) SetSizeInUnits(width, height float64) error {
	if !(width > 0 && height > 0) {
		return fmt.Errorf("size %gx%g: %w", width, height, ErrInvalidBounds)
	}
	if e := g.Extent(0); e > 0 {
		g.SetExtentInMM(0, g.ExtentInMM(0)*e/width)
	}
	if e := g.Extent(1); e > 0 {
		g.SetExtentInMM(1, g.ExtentInMM(1)*e/height)
	}
	return g.SetBounds([6]float64{0, width, 0, height, 0, 1})
}

// UnitsToMM converts 2D index units to 2D mm. A general manifold has no
// closed form for it.
func (g *Geometry2D) UnitsToMM(p r2.Vec) (r2.Vec, error) {
	return r2.Vec{}, fmt.Errorf("units to mm on a generic 2D geometry: %w", ErrNotSupported)
}

// MMToUnits converts 2D mm to 2D index units. A general manifold has no
// closed form for it.
func (g *Geometry2D) MMToUnits(p r2.Vec) (r2.Vec, error) {
	return r2.Vec{}, fmt.Errorf("mm to units on a generic 2D geometry: %w", ErrNotSupported)
}

// SetReferenceGeometry records the volume this geometry was cut from.
func (g *Geometry2D) SetReferenceGeometry(ref Geometry) { g.referenceGeometry = ref }

// ReferenceGeometry returns the volume this geometry was cut from, or nil.
func (g *Geometry2D) ReferenceGeometry() Geometry { return g.referenceGeometry }

// HasReferenceGeometry reports whether a reference geometry is set.
func (g *Geometry2D) HasReferenceGeometry() bool { return g.referenceGeometry != nil }
