package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// BoundingBox is an axis-aligned box stored as {xmin, xmax, ymin, ymax, zmin, zmax}.
// In a geometry it lives in index space.
type BoundingBox struct {
	bounds [6]float64
}

// UnitBoundingBox returns the box [0,1]^3.
func UnitBoundingBox() BoundingBox {
	return BoundingBox{bounds: [6]float64{0, 1, 0, 1, 0, 1}}
}

// NewBoundingBox validates that min <= max on every axis.
func NewBoundingBox(bounds [6]float64) (BoundingBox, error) {
	for i := 0; i < 3; i++ {
		if bounds[2*i] > bounds[2*i+1] || math.IsNaN(bounds[2*i]) || math.IsNaN(bounds[2*i+1]) {
			return BoundingBox{}, fmt.Errorf("axis %d [%g, %g]: %w", i, bounds[2*i], bounds[2*i+1], ErrInvalidBounds)
		}
	}
	return BoundingBox{bounds: bounds}, nil
}

// Bounds returns the six bound values.
func (b BoundingBox) Bounds() [6]float64 { return b.bounds }

// Min returns the minimum corner.
func (b BoundingBox) Min() r3.Vec {
	return r3.Vec{X: b.bounds[0], Y: b.bounds[2], Z: b.bounds[4]}
}

// Max returns the maximum corner.
func (b BoundingBox) Max() r3.Vec {
	return r3.Vec{X: b.bounds[1], Y: b.bounds[3], Z: b.bounds[5]}
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min(), b.Max()))
}

// Extent returns max-min along axis.
func (b BoundingBox) Extent(axis int) float64 {
	return b.bounds[2*axis+1] - b.bounds[2*axis]
}

// DiagonalLength2 returns the squared length of the box diagonal.
func (b BoundingBox) DiagonalLength2() float64 {
	return r3.Norm2(r3.Sub(b.Max(), b.Min()))
}

// IsInside reports whether p lies inside the box, borders included.
func (b BoundingBox) IsInside(p r3.Vec) bool {
	return p.X >= b.bounds[0] && p.X <= b.bounds[1] &&
		p.Y >= b.bounds[2] && p.Y <= b.bounds[3] &&
		p.Z >= b.bounds[4] && p.Z <= b.bounds[5]
}

// Corner returns corner id (0..7) in the box's own space. Bit 2 selects x max,
// bit 1 selects y max, bit 0 selects z max.
func (b BoundingBox) Corner(id int) (r3.Vec, error) {
	if id < 0 || id > 7 {
		return r3.Vec{}, fmt.Errorf("corner %d: %w", id, ErrInvalidCorner)
	}
	return r3.Vec{
		X: b.bounds[(id>>2)&1],
		Y: b.bounds[2+(id>>1)&1],
		Z: b.bounds[4+id&1],
	}, nil
}

// Union returns the smallest box containing b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	var out BoundingBox
	for i := 0; i < 3; i++ {
		out.bounds[2*i] = math.Min(b.bounds[2*i], o.bounds[2*i])
		out.bounds[2*i+1] = math.Max(b.bounds[2*i+1], o.bounds[2*i+1])
	}
	return out
}

// Box converts to a gonum box.
func (b BoundingBox) Box() r3.Box {
	return r3.Box{Min: b.Min(), Max: b.Max()}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("( %g,%g %g,%g %g,%g )", b.bounds[0], b.bounds[1], b.bounds[2], b.bounds[3], b.bounds[4], b.bounds[5])
}

// PointContainer collects points for a bounding box computation.
type PointContainer []r3.Vec

// Insert appends p.
func (c *PointContainer) Insert(p r3.Vec) {
	*c = append(*c, p)
}

// ComputeBoundingBox returns the tightest box around the collected points.
// An empty container yields the zero box.
func (c PointContainer) ComputeBoundingBox() BoundingBox {
	if len(c) == 0 {
		return BoundingBox{}
	}
	min, max := c[0], c[0]
	for _, p := range c[1:] {
		min = r3.Vec{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = r3.Vec{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
	}
	return BoundingBox{bounds: [6]float64{min.X, max.X, min.Y, max.Y, min.Z, max.Z}}
}
