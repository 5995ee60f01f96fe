package geometry

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// PlaneOrientation selects one of the axis-aligned standard cuts.
type PlaneOrientation int

const (
	// Transversal cuts perpendicular to z (also known as axial).
	Transversal PlaneOrientation = iota
	// Sagittal cuts perpendicular to x.
	Sagittal
	// Frontal cuts perpendicular to y (also known as coronal).
	Frontal
)

// Axial is an alias of Transversal.
const Axial = Transversal

func (o PlaneOrientation) String() string {
	switch o {
	case Transversal:
		return "transversal"
	case Sagittal:
		return "sagittal"
	case Frontal:
		return "frontal"
	default:
		return fmt.Sprintf("PlaneOrientation(%d)", int(o))
	}
}

// ParsePlaneOrientation accepts the orientation names and their common aliases.
func ParsePlaneOrientation(s string) (PlaneOrientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transversal", "axial":
		return Transversal, nil
	case "sagittal":
		return Sagittal, nil
	case "frontal", "coronal":
		return Frontal, nil
	}
	return 0, fmt.Errorf("orientation %q: %w", s, ErrUnknownOrientation)
}

// axes returns the in-plane axes (right, down) and the normal axis.
func (o PlaneOrientation) axes() (a, b, n int, err error) {
	switch o {
	case Transversal:
		return 0, 1, 2, nil
	case Frontal:
		return 0, 2, 1, nil
	case Sagittal:
		return 1, 2, 0, nil
	}
	return 0, 0, 0, fmt.Errorf("%v: %w", o, ErrUnknownOrientation)
}

// standardPlaneVectors returns origin, right and down vectors of a standard
// plane in index space together with the axis perpendicular to it. Frontside
// planes are seen from the positive side of the normal axis; rotated planes
// start at the opposite corner.
func standardPlaneVectors(o PlaneOrientation, width, height, zPosition float64, frontside, rotated bool) (origin, right, down r3.Vec, normalAxis int, err error) {
	a, b, n, err := o.axes()
	if err != nil {
		return
	}
	var org, r, d [3]float64
	org[n] = zPosition
	switch {
	case frontside && !rotated:
		r[a], d[b] = 1, 1
	case frontside && rotated:
		org[a], org[b] = width, height
		r[a], d[b] = -1, -1
	case !frontside && !rotated:
		org[a] = width
		r[a], d[b] = -1, 1
	default:
		org[b] = height
		r[a], d[b] = 1, -1
	}
	toVec := func(v [3]float64) r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }
	return toVec(org), toVec(r), toVec(d), n, nil
}

// PlaneGeometry is a flat rectangle in world space: column 0 of the transform
// points right, column 1 down and column 2 along the normal. Column 2 is kept
// perpendicular to the first two whenever the transform is set.
type PlaneGeometry struct {
	Geometry2D
}

// NewPlaneGeometry returns the unit square in the z=0 plane.
func NewPlaneGeometry() *PlaneGeometry {
	p := &PlaneGeometry{}
	p.hooks = p
	p.Initialize()
	return p
}

// CloneGeometry implements Geometry.
func (p *PlaneGeometry) CloneGeometry() Geometry { return p.Clone() }

// Clone returns a deep copy. The reference geometry is shared, not copied.
func (p *PlaneGeometry) Clone() *PlaneGeometry {
	c := &PlaneGeometry{}
	c.hooks = c
	p.copyInto2D(&c.Geometry2D)
	return c
}

func (p *PlaneGeometry) preSetIndexToWorldTransform(t *AffineTransform) {
	EnsurePerpendicularNormal(t)
}

// EnsurePerpendicularNormal replaces column 2 of t with the normalized cross
// product of columns 0 and 1, scaled to the previous length of column 2 (or 1
// if that was zero). Degenerate right/down vectors leave t unchanged.
func EnsurePerpendicularNormal(t *AffineTransform) {
	normal := r3.Cross(t.Column(0), t.Column(1))
	if r3.Norm(normal) == 0 {
		return
	}
	length := r3.Norm(t.Column(2))
	if length == 0 {
		length = 1
	}
	t.SetColumn(2, r3.Scale(length, r3.Unit(normal)))
}

// InitializeStandardPlane builds a plane of width x height index units for the
// given orientation at zPosition along the normal axis. When t is not nil the
// index vectors are mapped through it and the plane thickness is the length of
// its column along the normal axis.
func (p *PlaneGeometry) InitializeStandardPlane(width, height float64, t *AffineTransform, orientation PlaneOrientation, zPosition float64, frontside, rotated bool) error {
	origin, right, down, normalAxis, err := standardPlaneVectors(orientation, width, height, zPosition, frontside, rotated)
	if err != nil {
		return err
	}
	p.Geometry3D.Initialize()
	thickness := 1.0
	if t != nil {
		origin = t.TransformPoint(origin)
		right = t.TransformVector(right)
		down = t.TransformVector(down)
		thickness = r3.Norm(t.Column(normalAxis))
	}
	if err := p.SetBounds([6]float64{0, width, 0, height, 0, 1}); err != nil {
		return err
	}
	p.SetMatrixByVectors(right, down, thickness)
	p.SetOrigin(origin)
	return nil
}

// InitializeStandardPlaneWithSpacing is InitializeStandardPlane with a
// diagonal transform built from spacing.
func (p *PlaneGeometry) InitializeStandardPlaneWithSpacing(width, height float64, spacing r3.Vec, orientation PlaneOrientation, zPosition float64, frontside, rotated bool) error {
	if !(spacing.X > 0 && spacing.Y > 0 && spacing.Z > 0) {
		return fmt.Errorf("spacing %v: %w", spacing, ErrInvalidSpacing)
	}
	t := NewAffineTransformFrom(Diagonal3(spacing), r3.Vec{})
	return p.InitializeStandardPlane(width, height, t, orientation, zPosition, frontside, rotated)
}

// InitializeStandardPlaneFromGeometry cuts ref with a standard plane at
// zPosition (in ref's index units). Width, height and spacing come from ref,
// and ref becomes the plane's reference geometry.
func (p *PlaneGeometry) InitializeStandardPlaneFromGeometry(ref Geometry, orientation PlaneOrientation, zPosition float64, frontside, rotated bool) error {
	base := ref.Base()
	var width, height float64
	switch orientation {
	case Transversal:
		width, height = base.Extent(0), base.Extent(1)
	case Frontal:
		width, height = base.Extent(0), base.Extent(2)
	case Sagittal:
		width, height = base.Extent(1), base.Extent(2)
	default:
		return fmt.Errorf("%v: %w", orientation, ErrUnknownOrientation)
	}
	p.SetReferenceGeometry(ref)

	originIndex := base.bounds.Min()
	if base.imageGeometry {
		originIndex = r3.Sub(originIndex, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
	}
	if err := p.InitializeStandardPlane(width, height, base.transform, orientation, zPosition, frontside, rotated); err != nil {
		return err
	}
	p.SetOrigin(r3.Add(p.Origin(), base.transform.TransformVector(originIndex)))
	return nil
}

// InitializeStandardPlaneAtSide places the plane on the first (top) or last
// slice of ref along the orientation's normal axis, at the slice centre.
func (p *PlaneGeometry) InitializeStandardPlaneAtSide(ref Geometry, top bool, orientation PlaneOrientation, frontside, rotated bool) error {
	_, _, n, err := orientation.axes()
	if err != nil {
		return err
	}
	zPosition := 0.5
	if !top {
		zPosition = ref.Base().Extent(n) - 1 + 0.5
	}
	return p.InitializeStandardPlaneFromGeometry(ref, orientation, zPosition, frontside, rotated)
}

// InitializeStandardPlaneFromVectors builds a plane whose size in index units
// is the length of right and down. See InitializeStandardPlaneFromSizedVectors.
func (p *PlaneGeometry) InitializeStandardPlaneFromVectors(right, down r3.Vec, spacing *r3.Vec) error {
	return p.InitializeStandardPlaneFromSizedVectors(r3.Norm(right), r3.Norm(down), right, down, spacing)
}

// InitializeStandardPlaneFromSizedVectors builds a width x height plane with
// unit right/down/normal directions taken from right and down, scaled by
// spacing when it is not nil. The origin is kept.
func (p *PlaneGeometry) InitializeStandardPlaneFromSizedVectors(width, height float64, right, down r3.Vec, spacing *r3.Vec) error {
	if !(width > 0 && height > 0) {
		return fmt.Errorf("plane size %gx%g: %w", width, height, ErrInvalidBounds)
	}
	normal := r3.Cross(right, down)
	if r3.Norm(normal) == 0 {
		return fmt.Errorf("right %v and down %v are parallel: %w", right, down, ErrNonInvertibleTransform)
	}
	rightDV, downDV, normal := r3.Unit(right), r3.Unit(down), r3.Unit(normal)
	if spacing != nil {
		if !(spacing.X > 0 && spacing.Y > 0 && spacing.Z > 0) {
			return fmt.Errorf("spacing %v: %w", *spacing, ErrInvalidSpacing)
		}
		rightDV = r3.Scale(spacing.X, rightDV)
		downDV = r3.Scale(spacing.Y, downDV)
		normal = r3.Scale(spacing.Z, normal)
	}
	var m Matrix3
	m.SetColumn(0, rightDV)
	m.SetColumn(1, downDV)
	m.SetColumn(2, normal)
	if err := p.SetBounds([6]float64{0, width, 0, height, 0, 1}); err != nil {
		return err
	}
	p.installTransform(NewAffineTransformFrom(m, p.transform.Offset()))
	return nil
}

// InitializePlane builds a unit-spaced plane through origin with the given
// normal. The right vector is chosen in the xy plane.
func (p *PlaneGeometry) InitializePlane(origin, normal r3.Vec) error {
	if r3.Norm(normal) == 0 {
		return fmt.Errorf("zero plane normal: %w", ErrNonInvertibleTransform)
	}
	var right r3.Vec
	if math.Abs(normal.Y) > Eps {
		right = r3.Unit(r3.Vec{X: 1, Y: -normal.X / normal.Y})
	} else {
		right = r3.Vec{Y: 1}
	}
	down := r3.Cross(normal, right)
	if r3.Norm(down) == 0 {
		right = r3.Vec{X: 1}
		down = r3.Cross(normal, right)
	}
	if err := p.InitializeStandardPlaneFromVectors(right, r3.Unit(down), nil); err != nil {
		return err
	}
	p.SetOrigin(origin)
	return nil
}

// SetMatrixByVectors uses right and down as columns 0 and 1 and their
// normalized cross product scaled by thickness as column 2. The origin is kept.
func (p *PlaneGeometry) SetMatrixByVectors(right, down r3.Vec, thickness float64) {
	normal := r3.Cross(right, down)
	if n := r3.Norm(normal); n != 0 {
		normal = r3.Scale(thickness/n, normal)
	}
	var m Matrix3
	m.SetColumn(0, right)
	m.SetColumn(1, down)
	m.SetColumn(2, normal)
	p.installTransform(NewAffineTransformFrom(m, p.transform.Offset()))
}

// Normal returns column 2 of the transform. Its length is the plane thickness.
func (p *PlaneGeometry) Normal() r3.Vec { return p.transform.Column(2) }

// UnitNormal returns the normalized plane normal.
func (p *PlaneGeometry) UnitNormal() r3.Vec { return r3.Unit(p.Normal()) }

// SignedDistance returns the distance of pt from the plane, positive on the
// side the normal points to.
func (p *PlaneGeometry) SignedDistance(pt r3.Vec) float64 {
	n := p.Normal()
	return r3.Dot(r3.Sub(pt, p.Origin()), n) / r3.Norm(n)
}

// Distance returns the absolute distance of pt from the plane.
func (p *PlaneGeometry) Distance(pt r3.Vec) float64 {
	return math.Abs(p.SignedDistance(pt))
}

// IsAbove reports whether pt lies on the normal side of the plane. With
// considerBounds the index z of pt is compared to the lower z bound instead.
func (p *PlaneGeometry) IsAbove(pt r3.Vec, considerBounds bool) (bool, error) {
	if !considerBounds {
		return p.SignedDistance(pt) > 0, nil
	}
	idx, err := p.WorldToIndex(pt)
	if err != nil {
		return false, err
	}
	return idx.Z > p.bounds.bounds[4], nil
}

// ProjectPointOntoPlane returns the orthogonal projection of pt onto the plane.
func (p *PlaneGeometry) ProjectPointOntoPlane(pt r3.Vec) r3.Vec {
	n := p.UnitNormal()
	return r3.Sub(pt, r3.Scale(p.SignedDistance(pt), n))
}

// IntersectionLine returns the line shared by p and other. It reports false
// when the planes are parallel.
func (p *PlaneGeometry) IntersectionLine(other *PlaneGeometry) (Line3D, bool) {
	n1 := p.UnitNormal()
	n2 := other.UnitNormal()
	direction := r3.Cross(n1, n2)
	if r3.Norm2(direction) < Eps {
		return Line3D{}, false
	}
	n1n2 := r3.Dot(n1, n2)
	det := 1 - n1n2*n1n2
	d1 := r3.Dot(n1, p.Origin())
	d2 := r3.Dot(n2, other.Origin())
	c1 := (d1 - d2*n1n2) / det
	c2 := (d2 - d1*n1n2) / det
	point := r3.Add(r3.Scale(c1, n1), r3.Scale(c2, n2))
	return Line3D{Point: point, Direction: direction}, true
}

// IntersectWithPlane2D clips the intersection line of p and other against the
// rectangle of p in parametric mm coordinates. It returns how many end points
// were found (0, 1 or 2).
func (p *PlaneGeometry) IntersectWithPlane2D(other *PlaneGeometry) (from, to r2.Vec, n int, err error) {
	line, ok := p.IntersectionLine(other)
	if !ok {
		return r2.Vec{}, r2.Vec{}, 0, nil
	}
	point, _, err := p.Map(line.Point)
	if err != nil {
		return r2.Vec{}, r2.Vec{}, 0, err
	}
	direction, _, err := p.MapVector(line.Point, line.Direction)
	if err != nil {
		return r2.Vec{}, r2.Vec{}, 0, err
	}
	from, to, n = RectangleLineIntersection(0, 0, p.ExtentInMM(0), p.ExtentInMM(1), point, direction)
	return from, to, n, nil
}

func angleBetween(a, b r3.Vec) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	c := r3.Dot(a, b) / (na * nb)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// Angle returns the angle in radians between the normals of p and other.
func (p *PlaneGeometry) Angle(other *PlaneGeometry) float64 {
	return angleBetween(other.Normal(), p.Normal())
}

// AngleToLine returns the angle in radians between the plane and line.
func (p *PlaneGeometry) AngleToLine(line Line3D) float64 {
	return math.Pi/2 - angleBetween(line.Direction, p.Normal())
}

// IntersectionPoint returns where line crosses the plane. It reports false
// when the line runs parallel to the plane.
func (p *PlaneGeometry) IntersectionPoint(line Line3D) (r3.Vec, bool) {
	if r3.Norm(line.Direction) == 0 {
		return r3.Vec{}, false
	}
	n := p.UnitNormal()
	dir := r3.Unit(line.Direction)
	t := r3.Dot(n, dir)
	if math.Abs(t) < Eps {
		return r3.Vec{}, false
	}
	t = r3.Dot(n, r3.Sub(p.Origin(), line.Point)) / t
	return r3.Add(line.Point, r3.Scale(t, dir)), true
}

// IntersectionPointParam returns t such that line.At(t) lies on the plane.
func (p *PlaneGeometry) IntersectionPointParam(line Line3D) (float64, bool) {
	n := p.Normal()
	t := r3.Dot(n, line.Direction)
	if math.Abs(t) < Eps {
		return 0, false
	}
	return r3.Dot(n, r3.Sub(p.Origin(), line.Point)) / t, true
}

// IsParallel reports whether the normals of p and other are parallel or anti-parallel.
func (p *PlaneGeometry) IsParallel(other *PlaneGeometry) bool {
	a := p.Angle(other)
	return a < 10*sqrtEps || a > math.Pi-10*sqrtEps
}

// IsOnPlane reports whether pt lies on the plane.
func (p *PlaneGeometry) IsOnPlane(pt r3.Vec) bool {
	return p.Distance(pt) < Eps
}

// IsLineOnPlane reports whether both defining points of line lie on the plane.
func (p *PlaneGeometry) IsLineOnPlane(line Line3D) bool {
	return p.IsOnPlane(line.Point) && p.IsOnPlane(line.Point2())
}

// IsPlaneOnPlane reports whether other is parallel to p and passes through it.
func (p *PlaneGeometry) IsPlaneOnPlane(other *PlaneGeometry) bool {
	return p.IsParallel(other) && p.IsOnPlane(other.Origin())
}

// UnitsToMM scales 2D index units to mm.
func (p *PlaneGeometry) UnitsToMM(u r2.Vec) (r2.Vec, error) {
	return r2.Vec{X: u.X * p.scaleFactor(0), Y: u.Y * p.scaleFactor(1)}, nil
}

// MMToUnits scales 2D mm to index units.
func (p *PlaneGeometry) MMToUnits(mm r2.Vec) (r2.Vec, error) {
	sx, sy := p.scaleFactor(0), p.scaleFactor(1)
	if sx == 0 || sy == 0 {
		return r2.Vec{}, fmt.Errorf("mm to units with zero scale: %w", ErrNonInvertibleTransform)
	}
	return r2.Vec{X: mm.X / sx, Y: mm.Y / sy}, nil
}

// ExecuteOperation adds OpOrient and the plane size part of
// OpRestorePlanePosition to the edits understood by Geometry3D.
func (p *PlaneGeometry) ExecuteOperation(op Operation) {
	if op == nil {
		return
	}
	switch op.OperationType() {
	case OpOrient:
		o, ok := asPlaneOperation(op)
		if !ok || r3.Norm(o.Normal) == 0 {
			return
		}
		t := p.transform.Clone()
		axis, angle := rotationBetween(p.Normal(), o.Normal, p.transform.Column(0))
		t.Rotate(o.Point, axis, angle)
		p.installTransform(t)
	case OpRestorePlanePosition:
		r, ok := asRestoreOperation(op)
		if !ok || r.Transform == nil {
			return
		}
		p.installTransform(r.Transform.Clone())
		if r.Width > 0 && r.Height > 0 {
			_ = p.SetBounds([6]float64{0, r.Width, 0, r.Height, 0, 1})
		}
	default:
		p.Geometry3D.ExecuteOperation(op)
	}
}

// rotationBetween returns the axis and angle in radians that turn from onto
// to. Opposite vectors turn about fallback.
func rotationBetween(from, to, fallback r3.Vec) (r3.Vec, float64) {
	axis := r3.Cross(from, to)
	angle := math.Atan2(r3.Norm(axis), r3.Dot(from, to))
	if r3.Norm(axis) < Eps*Eps && r3.Dot(from, to) < 0 {
		axis = fallback
	}
	return axis, angle
}

func (p *PlaneGeometry) String() string {
	sx, sy := p.ScaleFactorMMPerUnit()
	return fmt.Sprintf("%sScaleFactorMMPerUnitX: %g\nScaleFactorMMPerUnitY: %g\nNormal: %v\n",
		p.Geometry3D.String(), sx, sy, p.Normal())
}
