package geometry

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// standardPlane returns a width x height transversal plane at height z
func standardPlane(t *testing.T, width, height, z float64) *PlaneGeometry {
	t.Helper()
	p := NewPlaneGeometry()
	if err := p.InitializeStandardPlane(width, height, nil, Transversal, z, true, false); err != nil {
		t.Fatalf("InitializeStandardPlane failed: %v", err)
	}
	return p
}

// planeThrough returns a unit plane through origin with the given normal
func planeThrough(t *testing.T, origin, normal r3.Vec) *PlaneGeometry {
	t.Helper()
	p := NewPlaneGeometry()
	if err := p.InitializePlane(origin, normal); err != nil {
		t.Fatalf("InitializePlane failed: %v", err)
	}
	return p
}

func checkVec2(t *testing.T, name string, got, want r2.Vec) {
	t.Helper()
	if !scalar.EqualWithinAbsOrRel(got.X, want.X, Eps, Eps) || !scalar.EqualWithinAbsOrRel(got.Y, want.Y, Eps, Eps) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// TestStandardPlane checks the transversal standard plane
func TestStandardPlane(t *testing.T) {
	p := standardPlane(t, 256, 256, 10)

	checkVec(t, "origin", p.Origin(), r3.Vec{Z: 10})
	checkVec(t, "right", p.MatrixColumn(0), r3.Vec{X: 1})
	checkVec(t, "down", p.MatrixColumn(1), r3.Vec{Y: 1})
	checkVec(t, "normal", p.Normal(), r3.Vec{Z: 1})
	if p.Bounds() != [6]float64{0, 256, 0, 256, 0, 1} {
		t.Errorf("bounds = %v", p.Bounds())
	}
	checkFloat(t, "extent x in mm", p.ExtentInMM(0), 256)
	sx, sy := p.ScaleFactorMMPerUnit()
	checkFloat(t, "scale factor x", sx, 1)
	checkFloat(t, "scale factor y", sy, 1)
}

// TestStandardPlaneOrientations checks origin and axes for every orientation variant
func TestStandardPlaneOrientations(t *testing.T) {
	tests := []struct {
		name        string
		orientation PlaneOrientation
		frontside   bool
		rotated     bool
		origin      r3.Vec
		right       r3.Vec
		down        r3.Vec
		normal      r3.Vec
	}{
		{"transversal", Transversal, true, false, r3.Vec{Z: 3}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{"transversal rotated", Transversal, true, true, r3.Vec{X: 10, Y: 20, Z: 3}, r3.Vec{X: -1}, r3.Vec{Y: -1}, r3.Vec{Z: 1}},
		{"transversal backside", Transversal, false, false, r3.Vec{X: 10, Z: 3}, r3.Vec{X: -1}, r3.Vec{Y: 1}, r3.Vec{Z: -1}},
		{"sagittal", Sagittal, true, false, r3.Vec{X: 3}, r3.Vec{Y: 1}, r3.Vec{Z: 1}, r3.Vec{X: 1}},
		{"frontal", Frontal, true, false, r3.Vec{Y: 3}, r3.Vec{X: 1}, r3.Vec{Z: 1}, r3.Vec{Y: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPlaneGeometry()
			if err := p.InitializeStandardPlane(10, 20, nil, tc.orientation, 3, tc.frontside, tc.rotated); err != nil {
				t.Fatalf("InitializeStandardPlane failed: %v", err)
			}
			checkVec(t, "origin", p.Origin(), tc.origin)
			checkVec(t, "right", p.MatrixColumn(0), tc.right)
			checkVec(t, "down", p.MatrixColumn(1), tc.down)
			checkVec(t, "normal", p.Normal(), tc.normal)
		})
	}

	p := NewPlaneGeometry()
	if err := p.InitializeStandardPlane(1, 1, nil, PlaneOrientation(7), 0, true, false); !errors.Is(err, ErrUnknownOrientation) {
		t.Errorf("unknown orientation error = %v, want ErrUnknownOrientation", err)
	}
}

// TestParsePlaneOrientation checks names and aliases
func TestParsePlaneOrientation(t *testing.T) {
	for in, want := range map[string]PlaneOrientation{
		"transversal": Transversal,
		"Axial":       Transversal,
		"sagittal":    Sagittal,
		"frontal":     Frontal,
		" coronal ":   Frontal,
	} {
		got, err := ParsePlaneOrientation(in)
		if err != nil {
			t.Fatalf("ParsePlaneOrientation(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParsePlaneOrientation(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParsePlaneOrientation("oblique"); !errors.Is(err, ErrUnknownOrientation) {
		t.Errorf("ParsePlaneOrientation(oblique) error = %v, want ErrUnknownOrientation", err)
	}
}

// TestStandardPlaneWithSpacing checks that spacing scales the plane and its thickness
func TestStandardPlaneWithSpacing(t *testing.T) {
	p := NewPlaneGeometry()
	if err := p.InitializeStandardPlaneWithSpacing(10, 20, r3.Vec{X: 0.5, Y: 2, Z: 3}, Transversal, 4, true, false); err != nil {
		t.Fatalf("InitializeStandardPlaneWithSpacing failed: %v", err)
	}
	checkVec(t, "origin", p.Origin(), r3.Vec{Z: 12})
	checkVec(t, "spacing", p.Spacing(), r3.Vec{X: 0.5, Y: 2, Z: 3})
	checkVec(t, "normal", p.Normal(), r3.Vec{Z: 3})
	checkFloat(t, "width in mm", p.ExtentInMM(0), 5)
	checkFloat(t, "height in mm", p.ExtentInMM(1), 40)

	if err := p.InitializeStandardPlaneWithSpacing(10, 20, r3.Vec{X: 0, Y: 1, Z: 1}, Transversal, 0, true, false); !errors.Is(err, ErrInvalidSpacing) {
		t.Errorf("zero spacing error = %v, want ErrInvalidSpacing", err)
	}
}

// TestStandardPlaneFromGeometry checks planes cut from a reference volume
func TestStandardPlaneFromGeometry(t *testing.T) {
	ref := NewGeometry3D()
	if err := ref.SetBounds([6]float64{0, 20, 0, 30, 0, 40}); err != nil {
		t.Fatalf("SetBounds failed: %v", err)
	}
	if err := ref.SetSpacing(r3.Vec{X: 1, Y: 2, Z: 3}); err != nil {
		t.Fatalf("SetSpacing failed: %v", err)
	}

	top := NewPlaneGeometry()
	if err := top.InitializeStandardPlaneAtSide(ref, true, Transversal, true, false); err != nil {
		t.Fatalf("InitializeStandardPlaneAtSide failed: %v", err)
	}
	checkVec(t, "top origin", top.Origin(), r3.Vec{Z: 1.5})
	checkVec(t, "top normal", top.Normal(), r3.Vec{Z: 3})
	checkFloat(t, "top height in mm", top.ExtentInMM(1), 60)
	if !top.HasReferenceGeometry() || top.ReferenceGeometry() != Geometry(ref) {
		t.Errorf("plane lost its reference geometry")
	}

	bottom := NewPlaneGeometry()
	if err := bottom.InitializeStandardPlaneAtSide(ref, false, Transversal, true, false); err != nil {
		t.Fatalf("InitializeStandardPlaneAtSide failed: %v", err)
	}
	checkVec(t, "bottom origin", bottom.Origin(), r3.Vec{Z: 118.5})

	ref.SetImageGeometry(true)
	image := NewPlaneGeometry()
	if err := image.InitializeStandardPlaneAtSide(ref, true, Transversal, true, false); err != nil {
		t.Fatalf("InitializeStandardPlaneAtSide failed: %v", err)
	}
	checkVec(t, "image top origin", image.Origin(), r3.Vec{X: -0.5, Y: -1, Z: 0})
}

// TestNormalStaysPerpendicular verifies that a skewed transform gets a perpendicular normal
func TestNormalStaysPerpendicular(t *testing.T) {
	skewed := NewAffineTransformFrom(Matrix3{
		{1, 0, 1},
		{1, 1, 0},
		{0, 1, 0},
	}, r3.Vec{X: 1, Y: 2, Z: 3})

	check := func(t *testing.T, p *PlaneGeometry) {
		t.Helper()
		n := p.Normal()
		checkFloat(t, "normal . right", r3.Dot(n, p.MatrixColumn(0)), 0)
		checkFloat(t, "normal . down", r3.Dot(n, p.MatrixColumn(1)), 0)
		checkFloat(t, "normal length", r3.Norm(n), 1)
		checkFloat(t, "z spacing", p.Spacing().Z, 1)
	}

	p := NewPlaneGeometry()
	p.SetIndexToWorldTransform(skewed)
	check(t, p)

	c := NewPlaneGeometry().Clone()
	c.SetIndexToWorldTransform(skewed)
	check(t, c)

	if err := p.SetSpacing(r3.Vec{X: 2, Y: 2, Z: 2}); err != nil {
		t.Fatalf("SetSpacing failed: %v", err)
	}
	checkFloat(t, "normal . right after spacing", r3.Dot(p.Normal(), p.MatrixColumn(0)), 0)
}

// TestMapUnmap checks conversions between world and parametric 2D mm coordinates
func TestMapUnmap(t *testing.T) {
	p := NewPlaneGeometry()
	if err := p.InitializeStandardPlaneWithSpacing(10, 20, r3.Vec{X: 0.5, Y: 2, Z: 3}, Transversal, 4, true, false); err != nil {
		t.Fatalf("InitializeStandardPlaneWithSpacing failed: %v", err)
	}

	got, inside, err := p.Map(r3.Vec{X: 2.5, Y: 10, Z: 12})
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	checkVec2(t, "mapped point", got, r2.Vec{X: 2.5, Y: 10})
	if !inside {
		t.Errorf("point on the plane reported outside")
	}
	checkVec(t, "unmapped point", p.Unmap(got), r3.Vec{X: 2.5, Y: 10, Z: 12})

	above, inside, err := p.Map(r3.Vec{X: 2.5, Y: 10, Z: 20})
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	checkVec2(t, "mapped point above plane", above, r2.Vec{X: 2.5, Y: 10})
	if !inside {
		t.Errorf("point above the rectangle reported outside")
	}

	if _, inside, _ := p.Map(r3.Vec{X: -1, Z: 12}); inside {
		t.Errorf("point left of the rectangle reported inside")
	}

	projected, inside, err := p.Project(r3.Vec{X: 2.5, Y: 10, Z: 20})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	checkVec(t, "projected point", projected, r3.Vec{X: 2.5, Y: 10, Z: 12})
	if !inside {
		t.Errorf("projection reported outside")
	}

	v, err := p.ProjectVector(r3.Vec{X: 1, Y: 1, Z: 1})
	if err != nil {
		t.Fatalf("ProjectVector failed: %v", err)
	}
	checkVec(t, "projected vector", v, r3.Vec{X: 1, Y: 1})

	mv, _, err := p.MapVector(r3.Vec{Z: 12}, r3.Vec{X: 1, Y: 4})
	if err != nil {
		t.Fatalf("MapVector failed: %v", err)
	}
	checkVec2(t, "mapped vector", mv, r2.Vec{X: 1, Y: 4})
	checkVec(t, "unmapped vector", p.UnmapVector(mv), r3.Vec{X: 1, Y: 4})
}

// TestSetSizeInUnits verifies that resizing in units keeps the size in mm
func TestSetSizeInUnits(t *testing.T) {
	p := standardPlane(t, 256, 256, 0)
	if err := p.SetSizeInUnits(128, 64); err != nil {
		t.Fatalf("SetSizeInUnits failed: %v", err)
	}
	checkFloat(t, "extent x", p.Extent(0), 128)
	checkFloat(t, "extent y", p.Extent(1), 64)
	checkFloat(t, "extent x in mm", p.ExtentInMM(0), 256)
	checkFloat(t, "extent y in mm", p.ExtentInMM(1), 256)
	sx, sy := p.ScaleFactorMMPerUnit()
	checkFloat(t, "scale factor x", sx, 2)
	checkFloat(t, "scale factor y", sy, 4)

	mm, err := p.UnitsToMM(r2.Vec{X: 10, Y: 10})
	if err != nil {
		t.Fatalf("UnitsToMM failed: %v", err)
	}
	checkVec2(t, "units to mm", mm, r2.Vec{X: 20, Y: 40})
	units, err := p.MMToUnits(mm)
	if err != nil {
		t.Fatalf("MMToUnits failed: %v", err)
	}
	checkVec2(t, "mm to units", units, r2.Vec{X: 10, Y: 10})

	if err := p.SetSizeInUnits(0, 5); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("SetSizeInUnits(0, 5) error = %v, want ErrInvalidBounds", err)
	}
}

// TestGeometry2DUnitConversionUnsupported checks that a generic 2D geometry refuses unit conversions
func TestGeometry2DUnitConversionUnsupported(t *testing.T) {
	g := NewGeometry2D()
	if _, err := g.UnitsToMM(r2.Vec{X: 1}); !errors.Is(err, ErrNotSupported) {
		t.Errorf("UnitsToMM error = %v, want ErrNotSupported", err)
	}
	if _, err := g.MMToUnits(r2.Vec{X: 1}); !errors.Is(err, ErrNotSupported) {
		t.Errorf("MMToUnits error = %v, want ErrNotSupported", err)
	}
}

// TestDistances checks signed distances, projection and the above test
func TestDistances(t *testing.T) {
	p := standardPlane(t, 10, 10, 10)

	checkFloat(t, "signed distance above", p.SignedDistance(r3.Vec{X: 3, Y: 4, Z: 15}), 5)
	checkFloat(t, "signed distance below", p.SignedDistance(r3.Vec{X: 3, Y: 4, Z: 5}), -5)
	checkFloat(t, "distance below", p.Distance(r3.Vec{X: 3, Y: 4, Z: 5}), 5)
	checkVec(t, "projection", p.ProjectPointOntoPlane(r3.Vec{X: 3, Y: 4, Z: 15}), r3.Vec{X: 3, Y: 4, Z: 10})

	for _, considerBounds := range []bool{false, true} {
		above, err := p.IsAbove(r3.Vec{X: 3, Y: 4, Z: 15}, considerBounds)
		if err != nil {
			t.Fatalf("IsAbove failed: %v", err)
		}
		if !above {
			t.Errorf("IsAbove(considerBounds=%t) = false for a point above the plane", considerBounds)
		}
		below, err := p.IsAbove(r3.Vec{X: 3, Y: 4, Z: 5}, considerBounds)
		if err != nil {
			t.Fatalf("IsAbove failed: %v", err)
		}
		if below {
			t.Errorf("IsAbove(considerBounds=%t) = true for a point below the plane", considerBounds)
		}
	}
}

// TestIntersectionLine checks the line shared by two planes
func TestIntersectionLine(t *testing.T) {
	a := standardPlane(t, 10, 10, 0)
	b := planeThrough(t, r3.Vec{X: 5}, r3.Vec{X: 1})

	line, ok := a.IntersectionLine(b)
	if !ok {
		t.Fatalf("perpendicular planes reported no intersection")
	}
	checkFloat(t, "direction . x", r3.Dot(line.Direction, r3.Vec{X: 1}), 0)
	checkFloat(t, "direction . z", r3.Dot(line.Direction, r3.Vec{Z: 1}), 0)
	if r3.Norm(line.Direction) < Eps {
		t.Fatalf("zero direction")
	}
	for _, pl := range []*PlaneGeometry{a, b} {
		if !pl.IsLineOnPlane(line) {
			t.Errorf("intersection line %v not on plane %v", line, pl.Origin())
		}
	}
	if !b.IsLineOnPlane(Line3D{Point: r3.Vec{X: 5, Y: 2}, Direction: r3.Vec{Z: 1}}) {
		t.Errorf("vertical line in the x=5 plane not detected")
	}

	parallel := standardPlane(t, 10, 10, 5)
	if _, ok := a.IntersectionLine(parallel); ok {
		t.Errorf("parallel planes reported an intersection")
	}
	if !a.IsParallel(parallel) {
		t.Errorf("IsParallel = false for parallel planes")
	}
	if a.IsParallel(b) {
		t.Errorf("IsParallel = true for perpendicular planes")
	}
	if a.IsPlaneOnPlane(parallel) {
		t.Errorf("IsPlaneOnPlane = true for distinct parallel planes")
	}
	if !a.IsPlaneOnPlane(standardPlane(t, 3, 3, 0)) {
		t.Errorf("IsPlaneOnPlane = false for coincident planes")
	}
}

// TestIntersectWithPlane2D checks the clipped intersection in parametric coordinates
func TestIntersectWithPlane2D(t *testing.T) {
	a := standardPlane(t, 10, 10, 0)
	b := planeThrough(t, r3.Vec{X: 5}, r3.Vec{X: 1})

	from, to, n, err := a.IntersectWithPlane2D(b)
	if err != nil {
		t.Fatalf("IntersectWithPlane2D failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("got %d intersection points, want 2", n)
	}
	if from.Y > to.Y {
		from, to = to, from
	}
	checkVec2(t, "from", from, r2.Vec{X: 5, Y: 0})
	checkVec2(t, "to", to, r2.Vec{X: 5, Y: 10})

	if _, _, n, _ := a.IntersectWithPlane2D(standardPlane(t, 10, 10, 3)); n != 0 {
		t.Errorf("parallel planes gave %d intersection points", n)
	}
	if _, _, n, _ := a.IntersectWithPlane2D(planeThrough(t, r3.Vec{X: 20}, r3.Vec{X: 1})); n != 0 {
		t.Errorf("plane outside the rectangle gave %d intersection points", n)
	}
}

// TestRectangleLineIntersection checks clipping of 2D lines
func TestRectangleLineIntersection(t *testing.T) {
	tests := []struct {
		name     string
		p, d     r2.Vec
		n        int
		from, to r2.Vec
	}{
		{"diagonal", r2.Vec{}, r2.Vec{X: 1, Y: 1}, 2, r2.Vec{}, r2.Vec{X: 10, Y: 10}},
		{"corner touch", r2.Vec{X: 10}, r2.Vec{X: 1, Y: 1}, 1, r2.Vec{X: 10}, r2.Vec{X: 10}},
		{"miss", r2.Vec{X: 20}, r2.Vec{Y: 1}, 0, r2.Vec{}, r2.Vec{}},
		{"zero direction", r2.Vec{X: 5, Y: 5}, r2.Vec{}, 0, r2.Vec{}, r2.Vec{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			from, to, n := RectangleLineIntersection(0, 0, 10, 10, tc.p, tc.d)
			if n != tc.n {
				t.Fatalf("n = %d, want %d", n, tc.n)
			}
			if n == 0 {
				return
			}
			checkVec2(t, "from", from, tc.from)
			checkVec2(t, "to", to, tc.to)
		})
	}
}

// TestAngles checks plane/plane and plane/line angles and line intersections
func TestAngles(t *testing.T) {
	a := standardPlane(t, 10, 10, 0)
	b := planeThrough(t, r3.Vec{X: 5}, r3.Vec{X: 1})

	checkFloat(t, "plane angle", a.Angle(b), math.Pi/2)
	checkFloat(t, "angle to normal line", a.AngleToLine(Line3D{Direction: r3.Vec{Z: 1}}), math.Pi/2)
	checkFloat(t, "angle to in-plane line", a.AngleToLine(Line3D{Direction: r3.Vec{X: 1}}), 0)

	line := Line3D{Point: r3.Vec{X: 1, Y: 2, Z: 5}, Direction: r3.Vec{Z: -2}}
	pt, ok := a.IntersectionPoint(line)
	if !ok {
		t.Fatalf("IntersectionPoint reported no intersection")
	}
	checkVec(t, "intersection point", pt, r3.Vec{X: 1, Y: 2})

	param, ok := a.IntersectionPointParam(line)
	if !ok {
		t.Fatalf("IntersectionPointParam reported no intersection")
	}
	checkFloat(t, "intersection parameter", param, 2.5)
	checkVec(t, "point at parameter", line.At(param), r3.Vec{X: 1, Y: 2})

	if _, ok := a.IntersectionPoint(Line3D{Point: r3.Vec{Z: 1}, Direction: r3.Vec{X: 1}}); ok {
		t.Errorf("line parallel to the plane reported an intersection")
	}
	checkFloat(t, "line distance", line.Distance(r3.Vec{X: 4, Y: 6, Z: 0}), 5)
}

// TestOrientOperation checks turning a plane onto a requested normal
func TestOrientOperation(t *testing.T) {
	tests := []struct {
		name   string
		normal r3.Vec
	}{
		{"quarter turn", r3.Vec{X: 1}},
		{"oblique", r3.Vec{X: 1, Y: 1, Z: 1}},
		{"opposite", r3.Vec{Z: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := standardPlane(t, 10, 10, 0)
			pivot := r3.Vec{X: 5, Y: 5}
			p.ExecuteOperation(PlaneOperation{Point: pivot, Normal: tc.normal})
			checkVec(t, "unit normal", p.UnitNormal(), r3.Unit(tc.normal))
			if !p.IsOnPlane(pivot) {
				t.Errorf("pivot %v left the plane", pivot)
			}
			checkFloat(t, "thickness", r3.Norm(p.Normal()), 1)
		})
	}

	p := standardPlane(t, 10, 10, 0)
	before := p.IndexToWorldTransform()
	p.ExecuteOperation(PlaneOperation{Normal: r3.Vec{}})
	if !EqualTransform(p.IndexToWorldTransform(), before, 0, false) {
		t.Errorf("orienting onto a zero normal changed the plane")
	}
}

// TestRestorePlanePosition checks that a stored transform and size are reinstated
func TestRestorePlanePosition(t *testing.T) {
	p := standardPlane(t, 10, 10, 0)
	stored := NewAffineTransformFrom(Diagonal3(r3.Vec{X: 2, Y: 2, Z: 2}), r3.Vec{X: 1, Y: 2, Z: 3})

	p.ExecuteOperation(RestorePlanePositionOperation{Transform: stored, Width: 5, Height: 6})
	if p.Bounds() != [6]float64{0, 5, 0, 6, 0, 1} {
		t.Errorf("bounds = %v, want [0,5,0,6,0,1]", p.Bounds())
	}
	checkVec(t, "origin", p.Origin(), r3.Vec{X: 1, Y: 2, Z: 3})
	checkVec(t, "spacing", p.Spacing(), r3.Vec{X: 2, Y: 2, Z: 2})
	sx, sy := p.ScaleFactorMMPerUnit()
	checkFloat(t, "scale factor x", sx, 2)
	checkFloat(t, "scale factor y", sy, 2)

	p.ExecuteOperation(&PointOperation{Type: OpMove, Point: r3.Vec{Z: 1}})
	checkVec(t, "origin after move", p.Origin(), r3.Vec{X: 1, Y: 2, Z: 4})
}

// TestPlaneCloneIndependence verifies that plane clones share no state
func TestPlaneCloneIndependence(t *testing.T) {
	ref := NewGeometry3D()
	p := standardPlane(t, 10, 10, 0)
	p.SetReferenceGeometry(ref)

	c := p.Clone()
	if !Equal(p, c, 0, false) {
		t.Fatalf("clone differs from original")
	}
	if c.ReferenceGeometry() != Geometry(ref) {
		t.Errorf("clone lost the reference geometry")
	}
	c.SetOrigin(r3.Vec{Z: 50})
	if err := c.SetSizeInUnits(5, 5); err != nil {
		t.Fatalf("SetSizeInUnits failed: %v", err)
	}
	checkVec(t, "original origin", p.Origin(), r3.Vec{})
	checkFloat(t, "original extent", p.Extent(0), 10)

	var g Geometry = p
	if _, ok := g.CloneGeometry().(*PlaneGeometry); !ok {
		t.Errorf("CloneGeometry did not return a *PlaneGeometry")
	}
}
