package geometry

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// TimeBounds is the [min, max) interval in milliseconds a geometry is valid for.
type TimeBounds [2]float64

// InfiniteTimeBounds returns (-Inf, +Inf).
func InfiniteTimeBounds() TimeBounds {
	return TimeBounds{math.Inf(-1), math.Inf(1)}
}

// IsFinite reports whether both ends are finite.
func (tb TimeBounds) IsFinite() bool {
	return !math.IsInf(tb[0], 0) && !math.IsInf(tb[1], 0)
}

// Duration returns max-min.
func (tb TimeBounds) Duration() float64 { return tb[1] - tb[0] }

// Geometry is the contract shared by all geometry levels. The set of
// implementations is closed: Geometry3D, Geometry2D, PlaneGeometry,
// SlicedGeometry3D and TimeSlicedGeometry.
type Geometry interface {
	// Base returns the embedded index-to-world geometry.
	Base() *Geometry3D
	// CloneGeometry returns a deep copy of the same concrete type.
	CloneGeometry() Geometry
	IndexToWorld(p r3.Vec) r3.Vec
	WorldToIndex(p r3.Vec) (r3.Vec, error)
	BoundingBox() BoundingBox
	TimeBounds() TimeBounds
	SetTimeBounds(tb TimeBounds)
	SetImageGeometry(on bool)
	ExecuteOperation(op Operation)
}

// hooks lets embedding types take part in transform changes of the embedded
// Geometry3D. preSetIndexToWorldTransform may edit the transform before it is
// installed; onModified refreshes values cached from the transform and bounds.
type hooks interface {
	preSetIndexToWorldTransform(t *AffineTransform)
	onModified()
}

// Geometry3D describes an index space box mapped into world space by an
// affine transform. Spacing always equals the column norms of the transform
// matrix and the origin always equals its offset.
type Geometry3D struct {
	transform        *AffineTransform
	bounds           BoundingBox
	spacing          r3.Vec
	origin           r3.Vec
	timeBounds       TimeBounds
	frameOfReference uint
	imageGeometry    bool
	revision         uint64

	hooks hooks
}

// NewGeometry3D returns an initialized geometry: identity transform, bounds
// [0,1]^3 and infinite time bounds.
func NewGeometry3D() *Geometry3D {
	g := &Geometry3D{}
	g.Initialize()
	return g
}

// Initialize resets g to the identity transform and unit bounds.
func (g *Geometry3D) Initialize() {
	g.bounds = UnitBoundingBox()
	if g.transform == nil {
		g.transform = NewAffineTransform()
	} else {
		g.transform.SetIdentity()
	}
	g.updateSpacingAndOrigin()
	g.timeBounds = InfiniteTimeBounds()
	g.frameOfReference = 0
	g.imageGeometry = false
	g.Modified()
}

// Base returns g.
func (g *Geometry3D) Base() *Geometry3D { return g }

// CloneGeometry implements Geometry.
func (g *Geometry3D) CloneGeometry() Geometry { return g.Clone() }

// Clone returns a deep copy that shares no state with g.
func (g *Geometry3D) Clone() *Geometry3D {
	c := &Geometry3D{}
	g.copyInto(c)
	return c
}

func (g *Geometry3D) copyInto(dst *Geometry3D) {
	dst.transform = g.transform.Clone()
	dst.bounds = g.bounds
	dst.spacing = g.spacing
	dst.origin = g.origin
	dst.timeBounds = g.timeBounds
	dst.frameOfReference = g.frameOfReference
	dst.imageGeometry = g.imageGeometry
}

// Modified marks g as changed and refreshes derived caches of embedding types.
func (g *Geometry3D) Modified() {
	g.revision++
	if g.hooks != nil {
		g.hooks.onModified()
	}
}

// Revision increases on every modification.
func (g *Geometry3D) Revision() uint64 { return g.revision }

func (g *Geometry3D) updateSpacingAndOrigin() {
	g.spacing = r3.Vec{
		X: r3.Norm(g.transform.Column(0)),
		Y: r3.Norm(g.transform.Column(1)),
		Z: r3.Norm(g.transform.Column(2)),
	}
	g.origin = g.transform.Offset()
}

// installTransform takes ownership of t.
func (g *Geometry3D) installTransform(t *AffineTransform) {
	if g.hooks != nil {
		g.hooks.preSetIndexToWorldTransform(t)
	}
	g.transform = t
	g.updateSpacingAndOrigin()
	g.Modified()
}

// IndexToWorldTransform returns a copy of the index-to-world transform.
func (g *Geometry3D) IndexToWorldTransform() *AffineTransform {
	return g.transform.Clone()
}

// SetIndexToWorldTransform replaces the transform with a copy of t and
// recomputes spacing and origin from it.
func (g *Geometry3D) SetIndexToWorldTransform(t *AffineTransform) {
	if t == nil {
		return
	}
	g.installTransform(t.Clone())
}

// IndexToWorld maps an index point to world coordinates.
func (g *Geometry3D) IndexToWorld(p r3.Vec) r3.Vec {
	return g.transform.TransformPoint(p)
}

// WorldToIndex maps a world point to index coordinates.
func (g *Geometry3D) WorldToIndex(p r3.Vec) (r3.Vec, error) {
	idx, err := g.transform.BackTransformPoint(p)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("world to index: %w", err)
	}
	return idx, nil
}

// IndexToWorldVector maps an index vector to world, ignoring the offset.
func (g *Geometry3D) IndexToWorldVector(v r3.Vec) r3.Vec {
	return g.transform.TransformVector(v)
}

// WorldToIndexVector maps a world vector to index, ignoring the offset.
func (g *Geometry3D) WorldToIndexVector(v r3.Vec) (r3.Vec, error) {
	idx, err := g.transform.BackTransformVector(v)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("world to index: %w", err)
	}
	return idx, nil
}

// Spacing returns the size in mm of one index unit along each axis.
func (g *Geometry3D) Spacing() r3.Vec { return g.spacing }

// SetSpacing rescales each matrix column to the requested length, keeping its
// direction. Bounds are not touched.
func (g *Geometry3D) SetSpacing(s r3.Vec) error {
	if !(s.X > 0 && s.Y > 0 && s.Z > 0) {
		return fmt.Errorf("spacing %v: %w", s, ErrInvalidSpacing)
	}
	t := g.transform.Clone()
	for i, length := range []float64{s.X, s.Y, s.Z} {
		col := t.Column(i)
		if r3.Norm(col) == 0 {
			col = unitAxis(i)
		}
		t.SetColumn(i, r3.Scale(length, r3.Unit(col)))
	}
	g.installTransform(t)
	return nil
}

func unitAxis(i int) r3.Vec {
	switch i {
	case 0:
		return r3.Vec{X: 1}
	case 1:
		return r3.Vec{Y: 1}
	default:
		return r3.Vec{Z: 1}
	}
}

// Origin returns the world position of index (0,0,0).
func (g *Geometry3D) Origin() r3.Vec { return g.origin }

// SetOrigin moves the transform offset. Setting the current origin again is a no-op.
func (g *Geometry3D) SetOrigin(o r3.Vec) {
	if o == g.origin {
		return
	}
	g.transform.SetOffset(o)
	g.origin = o
	g.Modified()
}

// Translate shifts the origin by v.
func (g *Geometry3D) Translate(v r3.Vec) {
	if v == (r3.Vec{}) {
		return
	}
	g.SetOrigin(r3.Add(g.origin, v))
}

// SetIdentity resets the transform to the identity without touching bounds.
func (g *Geometry3D) SetIdentity() {
	t := NewAffineTransform()
	g.installTransform(t)
}

// Compose combines other with the index-to-world transform; see AffineTransform.Compose.
func (g *Geometry3D) Compose(other *AffineTransform, pre bool) {
	t := g.transform.Clone()
	t.Compose(other, pre)
	g.installTransform(t)
}

// MatrixColumn returns column i of the transform matrix.
func (g *Geometry3D) MatrixColumn(i int) r3.Vec { return g.transform.Column(i) }

// AxisVector returns the world vector spanned by the bounding box along axis i.
func (g *Geometry3D) AxisVector(i int) r3.Vec {
	return r3.Scale(g.Extent(i), g.transform.Column(i))
}

// BoundingBox returns the index space bounds.
func (g *Geometry3D) BoundingBox() BoundingBox { return g.bounds }

// Bounds returns the index space bounds as six values.
func (g *Geometry3D) Bounds() [6]float64 { return g.bounds.bounds }

// SetBounds replaces the index space bounds.
func (g *Geometry3D) SetBounds(bounds [6]float64) error {
	b, err := NewBoundingBox(bounds)
	if err != nil {
		return err
	}
	g.bounds = b
	g.Modified()
	return nil
}

// Extent returns the bounding box size along axis in index units.
func (g *Geometry3D) Extent(axis int) float64 { return g.bounds.Extent(axis) }

// ExtentInMM returns the bounding box size along axis in world units.
func (g *Geometry3D) ExtentInMM(axis int) float64 {
	return g.Extent(axis) * r3.Norm(g.transform.Column(axis))
}

// SetExtentInMM rescales matrix column axis so that ExtentInMM(axis) equals mm.
// Bounds stay unchanged.
func (g *Geometry3D) SetExtentInMM(axis int, mm float64) {
	current := g.ExtentInMM(axis)
	if math.Abs(current-mm) < Eps || current == 0 {
		return
	}
	t := g.transform.Clone()
	t.SetColumn(axis, r3.Scale(mm/current, t.Column(axis)))
	g.installTransform(t)
}

// TimeBounds returns the time interval the geometry is valid for.
func (g *Geometry3D) TimeBounds() TimeBounds { return g.timeBounds }

// SetTimeBounds replaces the time interval.
func (g *Geometry3D) SetTimeBounds(tb TimeBounds) {
	if tb == g.timeBounds {
		return
	}
	g.timeBounds = tb
	g.Modified()
}

// FrameOfReferenceID identifies the acquisition frame of reference.
func (g *Geometry3D) FrameOfReferenceID() uint { return g.frameOfReference }

// SetFrameOfReferenceID sets the acquisition frame of reference.
func (g *Geometry3D) SetFrameOfReferenceID(id uint) {
	if id == g.frameOfReference {
		return
	}
	g.frameOfReference = id
	g.Modified()
}

// ImageGeometry reports whether index coordinates address pixel centres.
func (g *Geometry3D) ImageGeometry() bool { return g.imageGeometry }

// SetImageGeometry switches the pixel centre convention without moving the origin.
func (g *Geometry3D) SetImageGeometry(on bool) {
	if on == g.imageGeometry {
		return
	}
	g.imageGeometry = on
	g.Modified()
}

// ChangeImageGeometryConsideringOriginOffset switches the pixel centre
// convention and moves the origin by half a voxel so that the world extent of
// the bounding box stays where it was.
func (g *Geometry3D) ChangeImageGeometryConsideringOriginOffset(on bool) {
	if on == g.imageGeometry {
		return
	}
	shift := 0.5
	if !on {
		shift = -0.5
	}
	originIndex := r3.Add(g.bounds.Min(), r3.Vec{X: shift, Y: shift, Z: shift})
	g.SetOrigin(g.transform.TransformPoint(originIndex))
	g.SetImageGeometry(on)
}

func (g *Geometry3D) cornerIndex(p r3.Vec) r3.Vec {
	if g.imageGeometry {
		return r3.Sub(p, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
	}
	return p
}

// CornerPoint returns bounding box corner id (0..7) in world coordinates.
// Bit 2 of id selects the x maximum, bit 1 the y maximum and bit 0 the z maximum.
func (g *Geometry3D) CornerPoint(id int) (r3.Vec, error) {
	c, err := g.bounds.Corner(id)
	if err != nil {
		return r3.Vec{}, err
	}
	return g.transform.TransformPoint(g.cornerIndex(c)), nil
}

// CornerPointFront returns the world corner on the minimum (front) or maximum
// side of each axis.
func (g *Geometry3D) CornerPointFront(xFront, yFront, zFront bool) r3.Vec {
	b := g.bounds.bounds
	c := r3.Vec{X: b[1], Y: b[3], Z: b[5]}
	if xFront {
		c.X = b[0]
	}
	if yFront {
		c.Y = b[2]
	}
	if zFront {
		c.Z = b[4]
	}
	return g.transform.TransformPoint(g.cornerIndex(c))
}

func (g *Geometry3D) cornerPoints() [8]r3.Vec {
	var pts [8]r3.Vec
	for i := range pts {
		pts[i], _ = g.CornerPoint(i)
	}
	return pts
}

// Center returns the world position of the bounding box centre.
func (g *Geometry3D) Center() r3.Vec {
	return g.transform.TransformPoint(g.bounds.Center())
}

// DiagonalLength2 returns the squared world length of the bounding box diagonal.
func (g *Geometry3D) DiagonalLength2() float64 {
	return r3.Norm2(r3.Sub(g.CornerPointFront(false, false, false), g.CornerPointFront(true, true, true)))
}

// DiagonalLength returns the world length of the bounding box diagonal.
func (g *Geometry3D) DiagonalLength() float64 {
	return math.Sqrt(g.DiagonalLength2())
}

// IsInside reports whether a world point lies inside the bounding box.
func (g *Geometry3D) IsInside(p r3.Vec) (bool, error) {
	idx, err := g.WorldToIndex(p)
	if err != nil {
		return false, err
	}
	return g.IsIndexInside(idx), nil
}

// IsIndexInside reports whether an index point lies inside the bounding box.
// Image geometries round to the nearest pixel and exclude the upper bound.
func (g *Geometry3D) IsIndexInside(idx r3.Vec) bool {
	if !g.imageGeometry {
		return g.bounds.IsInside(idx)
	}
	b := g.bounds.bounds
	for i, v := range []float64{idx.X, idx.Y, idx.Z} {
		r := math.Floor(v + 0.5)
		if r < b[2*i] || r >= b[2*i+1] {
			return false
		}
	}
	return true
}

// CalculateBoundingBoxRelativeToTransform expresses the eight world corners of
// g in the index space of t. A nil t yields the box around the world corners.
func (g *Geometry3D) CalculateBoundingBoxRelativeToTransform(t *AffineTransform) (BoundingBox, error) {
	var points PointContainer
	for _, c := range g.cornerPoints() {
		if t != nil {
			p, err := t.BackTransformPoint(c)
			if err != nil {
				return BoundingBox{}, fmt.Errorf("bounding box relative to transform: %w", err)
			}
			c = p
		}
		points.Insert(c)
	}
	return points.ComputeBoundingBox(), nil
}

// Is2DConvertible reports whether g can be stored as a 2D geometry without
// loss: unit z spacing, zero z origin and an axis-aligned third column.
func (g *Geometry3D) Is2DConvertible() bool {
	if g.spacing.Z != 1 || g.origin.Z != 0 {
		return false
	}
	c0, c1, c2 := g.transform.Column(0), g.transform.Column(1), g.transform.Column(2)
	return c0.Z == 0 && c1.Z == 0 && c2.X == 0 && c2.Y == 0 && c2.Z == 1
}

// ExecuteOperation applies move, scale, rotate and restore edits to the
// transform. Other operation types are ignored.
func (g *Geometry3D) ExecuteOperation(op Operation) {
	t, ok := g.operatedTransform(op)
	if !ok {
		return
	}
	g.installTransform(t)
}

// operatedTransform returns a copy of the transform with op applied.
func (g *Geometry3D) operatedTransform(op Operation) (*AffineTransform, bool) {
	if op == nil {
		return nil, false
	}
	t := g.transform.Clone()
	switch op.OperationType() {
	case OpNothing:
	case OpMove:
		p, ok := asPointOperation(op)
		if !ok {
			return nil, false
		}
		t.Translate(p.Point)
	case OpScale:
		p, ok := asPointOperation(op)
		if !ok {
			return nil, false
		}
		var factors [3]float64
		for i, add := range []float64{p.Point.X, p.Point.Y, p.Point.Z} {
			factors[i] = 1
			if n := r3.Norm(t.Column(i)); n != 0 {
				factors[i] = 1 + add/n
			}
		}
		center := g.bounds.Center()
		before := t.TransformPoint(center)
		t.Scale(r3.Vec{X: factors[0], Y: factors[1], Z: factors[2]}, true)
		t.Translate(r3.Sub(before, t.TransformPoint(center)))
	case OpRotate:
		r, ok := asRotationOperation(op)
		if !ok {
			return nil, false
		}
		t.Rotate(r.Center, r.Axis, clampDegrees(r.AngleDegrees)*math.Pi/180)
	case OpRestorePlanePosition:
		r, ok := asRestoreOperation(op)
		if !ok || r.Transform == nil {
			return nil, false
		}
		t = r.Transform.Clone()
	default:
		logger.Printf("ignoring %v operation", op.OperationType())
		return nil, false
	}
	return t, true
}

func asPointOperation(op Operation) (PointOperation, bool) {
	switch o := op.(type) {
	case PointOperation:
		return o, true
	case *PointOperation:
		return *o, o != nil
	}
	return PointOperation{}, false
}

func asRotationOperation(op Operation) (RotationOperation, bool) {
	switch o := op.(type) {
	case RotationOperation:
		return o, true
	case *RotationOperation:
		return *o, o != nil
	}
	return RotationOperation{}, false
}

func asPlaneOperation(op Operation) (PlaneOperation, bool) {
	switch o := op.(type) {
	case PlaneOperation:
		return o, true
	case *PlaneOperation:
		return *o, o != nil
	}
	return PlaneOperation{}, false
}

func asRestoreOperation(op Operation) (RestorePlanePositionOperation, bool) {
	switch o := op.(type) {
	case RestorePlanePositionOperation:
		return o, true
	case *RestorePlanePositionOperation:
		return *o, o != nil
	}
	return RestorePlanePositionOperation{}, false
}

func (g *Geometry3D) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "IndexToWorldTransform: %s\n", FormatTransform(g.transform))
	fmt.Fprintf(&b, "BoundingBox: %s\n", g.bounds)
	fmt.Fprintf(&b, "Origin: %v\n", g.origin)
	fmt.Fprintf(&b, "ImageGeometry: %t\n", g.imageGeometry)
	fmt.Fprintf(&b, "Spacing: %v\n", g.spacing)
	fmt.Fprintf(&b, "TimeBounds: [%g, %g]\n", g.timeBounds[0], g.timeBounds[1])
	return b.String()
}
