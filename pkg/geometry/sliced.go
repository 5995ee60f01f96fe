package geometry

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// floatSqrtEps is the square root of the single precision machine epsilon.
var floatSqrtEps = math.Sqrt(float64(math.Nextafter32(1, 2) - 1))

// SlicedGeometry3D is a stack of 2D geometries, one per slice. In evenly
// spaced mode only slot 0 must be set and has to be a *PlaneGeometry: slice s
// is derived on demand as slot 0 shifted by s*spacing.Z along the direction
// vector and then kept in its slot.
type SlicedGeometry3D struct {
	Geometry3D

	slices            []PlanarGeometry
	evenlySpaced      bool
	directionVector   r3.Vec
	referenceGeometry Geometry
}

// NewSlicedGeometry3D returns an empty, evenly spaced stack.
func NewSlicedGeometry3D() *SlicedGeometry3D {
	s := &SlicedGeometry3D{evenlySpaced: true}
	s.Initialize(0)
	return s
}

// Initialize resets the base geometry, allocates n empty slots and sets unit
// spacing. The evenly spaced flag is kept.
func (s *SlicedGeometry3D) Initialize(n int) {
	if n < 0 {
		n = 0
	}
	s.Geometry3D.Initialize()
	s.slices = make([]PlanarGeometry, n)
	_ = s.Geometry3D.SetSpacing(r3.Vec{X: 1, Y: 1, Z: 1})
	s.directionVector = r3.Vec{}
}

// Slices returns the number of slots.
func (s *SlicedGeometry3D) Slices() int { return len(s.slices) }

// IsValidSlice reports whether 0 <= i < Slices().
func (s *SlicedGeometry3D) IsValidSlice(i int) bool { return i >= 0 && i < len(s.slices) }

// EvenlySpaced reports whether absent slices are derived from slot 0.
func (s *SlicedGeometry3D) EvenlySpaced() bool { return s.evenlySpaced }

// SetEvenlySpaced switches lazy derivation of absent slices on or off.
func (s *SlicedGeometry3D) SetEvenlySpaced(on bool) {
	if s.evenlySpaced == on {
		return
	}
	s.evenlySpaced = on
	s.Modified()
}

// DirectionVector returns the normalized stacking direction.
func (s *SlicedGeometry3D) DirectionVector() r3.Vec { return s.directionVector }

// SetDirectionVector normalizes and stores v unless it is already within
// tolerance of the current direction.
func (s *SlicedGeometry3D) SetDirectionVector(v r3.Vec) {
	if r3.Norm(v) != 0 {
		v = r3.Unit(v)
	}
	if r3.Norm2(r3.Sub(s.directionVector, v)) < floatSqrtEps {
		return
	}
	s.directionVector = v
	s.Modified()
}

// ReferenceGeometry returns the volume the stack was cut from, or nil.
func (s *SlicedGeometry3D) ReferenceGeometry() Geometry { return s.referenceGeometry }

// SetReferenceGeometry sets the reference volume of the stack and of every stored slice.
func (s *SlicedGeometry3D) SetReferenceGeometry(ref Geometry) {
	s.referenceGeometry = ref
	for _, g := range s.slices {
		if !isNilPlanar(g) {
			g.SetReferenceGeometry(ref)
		}
	}
}

func isNilPlanar(g PlanarGeometry) bool {
	switch v := g.(type) {
	case nil:
		return true
	case *Geometry2D:
		return v == nil
	case *PlaneGeometry:
		return v == nil
	}
	return false
}

func (s *SlicedGeometry3D) firstPlane() *PlaneGeometry {
	if len(s.slices) == 0 {
		return nil
	}
	p, _ := s.slices[0].(*PlaneGeometry)
	return p
}

// Geometry2D returns the geometry of slice i. Absent slices are derived from
// slot 0 in evenly spaced mode; otherwise, and for out of range indices, nil
// is returned.
func (s *SlicedGeometry3D) Geometry2D(i int) PlanarGeometry {
	if !s.IsValidSlice(i) {
		return nil
	}
	if g := s.slices[i]; !isNilPlanar(g) {
		return g
	}
	if !s.evenlySpaced {
		return nil
	}
	first := s.firstPlane()
	if first == nil {
		return nil
	}
	if s.directionVector == (r3.Vec{}) {
		s.directionVector = first.UnitNormal()
	}
	derived := first.Clone()
	step := r3.Scale(s.spacing.Z*float64(i), s.directionVector)
	derived.SetOrigin(r3.Add(derived.Origin(), step))
	s.slices[i] = derived
	return derived
}

// Plane returns slice i as a plane. It fails with ErrInvalidIndex outside
// [0, Slices()) and with ErrPrecondition when the slice is neither stored as
// a plane nor derivable from one.
func (s *SlicedGeometry3D) Plane(i int) (*PlaneGeometry, error) {
	if !s.IsValidSlice(i) {
		return nil, fmt.Errorf("slice %d of %d: %w", i, len(s.slices), ErrInvalidIndex)
	}
	p, ok := s.Geometry2D(i).(*PlaneGeometry)
	if !ok || p == nil {
		return nil, fmt.Errorf("slice %d is not a stored or evenly spaced plane: %w", i, ErrPrecondition)
	}
	return p, nil
}

// SetGeometry2D stores g in slot i and hands it the stack's reference
// geometry. A nil g clears the slot. It reports false for invalid indices.
func (s *SlicedGeometry3D) SetGeometry2D(g PlanarGeometry, i int) bool {
	if !s.IsValidSlice(i) {
		return false
	}
	if isNilPlanar(g) {
		s.slices[i] = nil
	} else {
		g.SetReferenceGeometry(s.referenceGeometry)
		s.slices[i] = g
	}
	s.Modified()
	return true
}

// InitializeEvenlySpaced builds a stack of n slices from plane, zSpacing apart.
// With flipped the stack grows against the plane normal and the z column of
// the stack transform is negated.
func (s *SlicedGeometry3D) InitializeEvenlySpaced(plane PlanarGeometry, zSpacing float64, n int, flipped bool) error {
	if isNilPlanar(plane) {
		return fmt.Errorf("evenly spaced stack without a first slice: %w", ErrPrecondition)
	}
	if n < 1 {
		return fmt.Errorf("evenly spaced stack of %d slices: %w", n, ErrInvalidIndex)
	}
	if !(zSpacing > 0) {
		return fmt.Errorf("slice distance %g: %w", zSpacing, ErrInvalidSpacing)
	}
	pb := plane.Base()
	if !(pb.Extent(0) > 0 && pb.Extent(1) > 0) {
		return fmt.Errorf("first slice %s is empty: %w", pb.BoundingBox(), ErrInvalidBounds)
	}
	direction := pb.AxisVector(2)
	if r3.Norm(direction) == 0 {
		return fmt.Errorf("first slice has no thickness: %w", ErrPrecondition)
	}
	direction = r3.Scale(zSpacing, r3.Unit(direction))

	s.Geometry3D.Initialize()
	s.slices = make([]PlanarGeometry, n)

	bounds := pb.Bounds()
	bounds[4], bounds[5] = 0, float64(n)

	t := pb.transform.Clone()
	if flipped {
		direction = r3.Scale(-1, direction)
		t.Scale(r3.Vec{X: 1, Y: 1, Z: -1}, true)
	}
	s.installTransform(t)

	spacing := r3.Vec{
		X: pb.ExtentInMM(0) / pb.Extent(0),
		Y: pb.ExtentInMM(1) / pb.Extent(1),
		Z: zSpacing,
	}

	s.SetDirectionVector(direction)
	if err := s.SetBounds(bounds); err != nil {
		return err
	}
	s.SetGeometry2D(plane, 0)
	s.evenlySpaced = true
	if err := s.SetSpacing(spacing); err != nil {
		return err
	}
	s.SetTimeBounds(pb.TimeBounds())
	s.SetFrameOfReferenceID(pb.FrameOfReferenceID())
	s.SetImageGeometry(pb.ImageGeometry())
	return nil
}

// InitializeEvenlySpacedDefault is InitializeEvenlySpaced with the slice
// distance taken from the thickness of plane.
func (s *SlicedGeometry3D) InitializeEvenlySpacedDefault(plane PlanarGeometry, n int, flipped bool) error {
	if isNilPlanar(plane) {
		return fmt.Errorf("evenly spaced stack without a first slice: %w", ErrPrecondition)
	}
	pb := plane.Base()
	return s.InitializeEvenlySpaced(plane, pb.ExtentInMM(2)/pb.Extent(2), n, flipped)
}

// InitializePlanes covers ref with standard planes of the given orientation,
// one index unit of ref apart, starting at the top or bottom side.
func (s *SlicedGeometry3D) InitializePlanes(ref Geometry, orientation PlaneOrientation, top, frontside, rotated bool) error {
	if ref == nil {
		return fmt.Errorf("initializing planes without reference geometry: %w", ErrPrecondition)
	}
	s.referenceGeometry = ref
	plane := NewPlaneGeometry()
	if err := plane.InitializeStandardPlaneAtSide(ref, top, orientation, frontside, rotated); err != nil {
		return err
	}
	base := ref.Base()
	var viewSpacing float64
	switch orientation {
	case Transversal:
		viewSpacing = base.Spacing().Z
	case Frontal:
		viewSpacing = base.Spacing().Y
	case Sagittal:
		viewSpacing = base.Spacing().X
	}
	normal, err := s.AdjustNormal(plane.Normal())
	if err != nil {
		return err
	}
	n := 1
	if extent := s.directedExtent(normal); extent >= viewSpacing {
		n = int(extent/viewSpacing + 0.5)
	}

	flipped := !top
	if !frontside {
		flipped = !flipped
	}
	if orientation == Frontal {
		flipped = !flipped
	}
	return s.InitializeEvenlySpaced(plane, viewSpacing, n, flipped)
}

// directedExtent is the length of the reference volume along normal.
func (s *SlicedGeometry3D) directedExtent(normal r3.Vec) float64 {
	base := s.referenceGeometry.Base()
	return math.Abs(base.ExtentInMM(0)*normal.X) +
		math.Abs(base.ExtentInMM(1)*normal.Y) +
		math.Abs(base.ExtentInMM(2)*normal.Z)
}

// ReinitializePlanes rebuilds the stack after slot 0 was rotated: spacing and
// slice count are recomputed so that the stack covers the reference volume,
// the first plane is moved so the stack is centred on center, and then
// aligned so that one slice passes through referencePoint. Without a
// reference geometry or a first plane nothing happens.
func (s *SlicedGeometry3D) ReinitializePlanes(center, referencePoint r3.Vec) {
	first := s.firstPlane()
	if s.referenceGeometry == nil || first == nil {
		return
	}
	normal := first.UnitNormal()
	spacing := r3.Vec{
		X: s.CalculateSpacing(first.AxisVector(0)),
		Y: s.CalculateSpacing(first.AxisVector(1)),
		Z: s.CalculateSpacing(normal),
	}
	_ = s.Geometry3D.SetSpacing(spacing)

	extent := s.directedExtent(normal)
	n := 1
	if extent >= spacing.Z {
		n = int(extent/spacing.Z + 0.5)
	}

	if d := first.SignedDistance(center); d > 0 {
		first.SetOrigin(r3.Add(first.Origin(), r3.Scale(d-extent/2, normal)))
		s.directionVector = normal
	} else {
		first.SetOrigin(r3.Add(first.Origin(), r3.Scale(extent/2+d, normal)))
		s.directionVector = r3.Scale(-1, normal)
	}

	refDistance := first.SignedDistance(referencePoint)
	refSlice := math.Trunc(refDistance / spacing.Z)
	alignment := refDistance/spacing.Z - refSlice
	first.SetOrigin(r3.Add(first.Origin(), r3.Scale(alignment*spacing.Z, normal)))

	s.slices = make([]PlanarGeometry, n)
	s.slices[0] = first
	bounds := s.Bounds()
	bounds[4], bounds[5] = 0, float64(n)
	_ = s.SetBounds(bounds)
	s.Modified()
}

// CalculateSpacing returns the radius of the ellipsoid spanned by the spacing
// of the reference geometry in direction d. Without a reference geometry, or
// for a zero d, it is 1.
func (s *SlicedGeometry3D) CalculateSpacing(d r3.Vec) float64 {
	if s.referenceGeometry == nil || r3.Norm(d) == 0 {
		return 1
	}
	sp := s.referenceGeometry.Base().Spacing()
	scaling := math.Sqrt(d.X*d.X/(sp.X*sp.X) + d.Y*d.Y/(sp.Y*sp.Y) + d.Z*d.Z/(sp.Z*sp.Z))
	return r3.Norm(d) / scaling
}

// AdjustNormal expresses a world normal in the index space of the reference
// geometry and normalizes it.
func (s *SlicedGeometry3D) AdjustNormal(normal r3.Vec) (r3.Vec, error) {
	if s.referenceGeometry == nil {
		return r3.Vec{}, fmt.Errorf("adjusting a normal without reference geometry: %w", ErrPrecondition)
	}
	v, err := s.referenceGeometry.Base().WorldToIndexVector(normal)
	if err != nil {
		return r3.Vec{}, err
	}
	if r3.Norm(v) == 0 {
		return v, nil
	}
	return r3.Unit(v), nil
}

// SetSpacing rescales the stack transform. In evenly spaced mode with a plane
// in slot 0 the first plane is rebuilt from its index-space right and down
// vectors under the new spacing and every derived slice is dropped.
func (s *SlicedGeometry3D) SetSpacing(spacing r3.Vec) error {
	if !(spacing.X > 0 && spacing.Y > 0 && spacing.Z > 0) {
		return fmt.Errorf("spacing %v: %w", spacing, ErrInvalidSpacing)
	}
	first := s.firstPlane()
	if !s.evenlySpaced || first == nil {
		if err := s.Geometry3D.SetSpacing(spacing); err != nil {
			return err
		}
		if s.evenlySpaced {
			s.clearDerived()
		}
		return nil
	}

	origin, err := s.WorldToIndex(first.Origin())
	if err != nil {
		return err
	}
	right, err := s.WorldToIndexVector(first.AxisVector(0))
	if err != nil {
		return err
	}
	down, err := s.WorldToIndexVector(first.AxisVector(1))
	if err != nil {
		return err
	}
	bounds := first.Bounds()

	if err := s.Geometry3D.SetSpacing(spacing); err != nil {
		return err
	}

	rebuilt := NewPlaneGeometry()
	rebuilt.SetReferenceGeometry(s.referenceGeometry)
	newSpacing := s.Spacing()
	if err := rebuilt.InitializeStandardPlaneFromVectors(s.IndexToWorldVector(right), s.IndexToWorldVector(down), &newSpacing); err != nil {
		return err
	}
	rebuilt.SetOrigin(s.IndexToWorld(origin))
	if err := rebuilt.SetBounds(bounds); err != nil {
		return err
	}
	rebuilt.SetTimeBounds(first.TimeBounds())
	rebuilt.SetFrameOfReferenceID(first.FrameOfReferenceID())
	rebuilt.SetImageGeometry(first.ImageGeometry())

	s.slices = make([]PlanarGeometry, len(s.slices))
	s.slices[0] = rebuilt
	s.Modified()
	return nil
}

// clearDerived empties every slot but the first.
func (s *SlicedGeometry3D) clearDerived() {
	for i := 1; i < len(s.slices); i++ {
		s.slices[i] = nil
	}
}

// SetTimeBounds sets the time bounds of the stack and of every stored slice.
func (s *SlicedGeometry3D) SetTimeBounds(tb TimeBounds) {
	s.Geometry3D.SetTimeBounds(tb)
	for _, g := range s.slices {
		if !isNilPlanar(g) {
			g.SetTimeBounds(tb)
		}
	}
}

// SetImageGeometry sets the pixel centre convention of the stack and of every stored slice.
func (s *SlicedGeometry3D) SetImageGeometry(on bool) {
	s.Geometry3D.SetImageGeometry(on)
	for _, g := range s.slices {
		if !isNilPlanar(g) {
			g.SetImageGeometry(on)
		}
	}
}

// CloneGeometry implements Geometry.
func (s *SlicedGeometry3D) CloneGeometry() Geometry { return s.Clone() }

// Clone returns a deep copy. In evenly spaced mode only slot 0 is copied,
// the other slices are derived again on demand.
func (s *SlicedGeometry3D) Clone() *SlicedGeometry3D {
	c := &SlicedGeometry3D{
		evenlySpaced:      s.evenlySpaced,
		directionVector:   s.directionVector,
		referenceGeometry: s.referenceGeometry,
		slices:            make([]PlanarGeometry, len(s.slices)),
	}
	s.Geometry3D.copyInto(&c.Geometry3D)
	for i, g := range s.slices {
		if isNilPlanar(g) || (s.evenlySpaced && i > 0) {
			continue
		}
		c.slices[i] = g.CloneGeometry().(PlanarGeometry)
	}
	return c
}

// ExecuteOperation applies op to the stack. Rotations and orientations of an
// evenly spaced stack turn slot 0 about the centre of the reference geometry
// and rebuild the stack with ReinitializePlanes; otherwise they reach through
// to every stored slice. Moves shift the stack and its stored slices; all other
// operations only touch the stack transform.
func (s *SlicedGeometry3D) ExecuteOperation(op Operation) {
	if op == nil {
		return
	}
	switch op.OperationType() {
	case OpNothing:
	case OpRotate, OpOrient:
		if !s.evenlySpaced {
			s.forEachSlice(func(g PlanarGeometry) { g.ExecuteOperation(op) })
			break
		}
		first := s.firstPlane()
		if first == nil || s.referenceGeometry == nil {
			return
		}
		center := s.referenceGeometry.Base().Center()
		var rotation RotationOperation
		var referencePoint r3.Vec
		if r, ok := asRotationOperation(op); ok {
			rotation = RotationOperation{Center: center, Axis: r.Axis, AngleDegrees: r.AngleDegrees}
			referencePoint = r.Center
		} else if o, ok := asPlaneOperation(op); ok {
			axis, angle := rotationBetween(first.Normal(), o.Normal, first.MatrixColumn(0))
			rotation = RotationOperation{Center: center, Axis: axis, AngleDegrees: angle * 180 / math.Pi}
			referencePoint = o.Point
		} else {
			return
		}
		first.ExecuteOperation(rotation)
		s.ReinitializePlanes(center, referencePoint)
		s.Geometry3D.ExecuteOperation(rotation)
	case OpMove:
		s.Geometry3D.ExecuteOperation(op)
		if s.evenlySpaced {
			if first := s.firstPlane(); first != nil {
				first.ExecuteOperation(op)
			}
			s.clearDerived()
			break
		}
		s.forEachSlice(func(g PlanarGeometry) { g.ExecuteOperation(op) })
	default:
		s.Geometry3D.ExecuteOperation(op)
		return
	}
	s.Modified()
}

func (s *SlicedGeometry3D) forEachSlice(fn func(PlanarGeometry)) {
	for _, g := range s.slices {
		if !isNilPlanar(g) {
			fn(g)
		}
	}
}

func (s *SlicedGeometry3D) String() string {
	var b strings.Builder
	b.WriteString(s.Geometry3D.String())
	fmt.Fprintf(&b, "EvenlySpaced: %t\n", s.evenlySpaced)
	if s.evenlySpaced {
		fmt.Fprintf(&b, "DirectionVector: %v\n", s.directionVector)
	}
	fmt.Fprintf(&b, "Slices: %d\n", len(s.slices))
	if len(s.slices) > 0 && !isNilPlanar(s.slices[0]) {
		fmt.Fprintf(&b, "Geometry2D(0):\n%v", s.slices[0])
	} else {
		b.WriteString("Geometry2D(0): nil\n")
	}
	return b.String()
}
