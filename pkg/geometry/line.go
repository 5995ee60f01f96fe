package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Line3D is the infinite line through Point along Direction.
type Line3D struct {
	Point     r3.Vec
	Direction r3.Vec
}

// Point2 returns Point + Direction.
func (l Line3D) Point2() r3.Vec { return r3.Add(l.Point, l.Direction) }

// At returns Point + t*Direction.
func (l Line3D) At(t float64) r3.Vec { return r3.Add(l.Point, r3.Scale(t, l.Direction)) }

// Distance returns the distance of p from the line. A zero direction
// degenerates to the distance from Point.
func (l Line3D) Distance(p r3.Vec) float64 {
	d := r3.Sub(p, l.Point)
	n := r3.Norm(l.Direction)
	if n == 0 {
		return r3.Norm(d)
	}
	return r3.Norm(r3.Cross(d, l.Direction)) / n
}

// RectangleLineIntersection clips the line p + t*d against the rectangle
// [x1,x2]x[y1,y2]. It returns the number of intersection points (0, 1 or 2)
// and the entry and exit points.
func RectangleLineIntersection(x1, y1, x2, y2 float64, p, d r2.Vec) (from, to r2.Vec, n int) {
	tMin, tMax := math.Inf(-1), math.Inf(1)
	clip := func(pos, dir, lo, hi float64) bool {
		if dir == 0 {
			return pos >= lo && pos <= hi
		}
		a, b := (lo-pos)/dir, (hi-pos)/dir
		if a > b {
			a, b = b, a
		}
		tMin = math.Max(tMin, a)
		tMax = math.Min(tMax, b)
		return true
	}
	if !clip(p.X, d.X, x1, x2) || !clip(p.Y, d.Y, y1, y2) {
		return r2.Vec{}, r2.Vec{}, 0
	}
	if math.IsInf(tMin, 0) || math.IsInf(tMax, 0) || tMin > tMax {
		return r2.Vec{}, r2.Vec{}, 0
	}
	from = r2.Add(p, r2.Scale(tMin, d))
	to = r2.Add(p, r2.Scale(tMax, d))
	if r2.Norm(r2.Sub(to, from)) < Eps {
		return from, from, 1
	}
	return from, to, 2
}
