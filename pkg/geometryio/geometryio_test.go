package geometryio

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MITK/MITK-sub033/pkg/geometry"
)

// obliqueVolume returns a rotated, anisotropic volume with finite time bounds
func obliqueVolume(t *testing.T) *geometry.Geometry3D {
	t.Helper()
	g := geometry.NewGeometry3D()
	if err := g.SetBounds([6]float64{0, 64, 0, 32, -4, 12}); err != nil {
		t.Fatalf("SetBounds failed: %v", err)
	}
	if err := g.SetSpacing(r3.Vec{X: 0.7, Y: 0.7, Z: 2.5}); err != nil {
		t.Fatalf("SetSpacing failed: %v", err)
	}
	g.ExecuteOperation(geometry.RotationOperation{Center: r3.Vec{X: 3}, Axis: r3.Vec{X: 1, Y: 2, Z: 3}, AngleDegrees: 33})
	g.SetOrigin(r3.Vec{X: -120.25, Y: 14, Z: 1.0 / 3})
	g.SetTimeBounds(geometry.TimeBounds{10, 20})
	g.SetFrameOfReferenceID(3)
	g.SetImageGeometry(true)
	return g
}

// roundTrip saves g to a temporary file and loads it back
func roundTrip(t *testing.T, g geometry.Geometry) geometry.Geometry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "geometry.yaml")
	if err := Save(g, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return loaded
}

// checkSameGeometry compares the spatial state and the metadata of two geometries
func checkSameGeometry(t *testing.T, got, want geometry.Geometry) {
	t.Helper()
	if !geometry.Equal(got, want, geometry.Eps, false) {
		t.Errorf("geometries differ:\n%v\nvs\n%v", got, want)
	}
	if got.TimeBounds() != want.TimeBounds() {
		t.Errorf("time bounds = %v, want %v", got.TimeBounds(), want.TimeBounds())
	}
	if got.Base().FrameOfReferenceID() != want.Base().FrameOfReferenceID() {
		t.Errorf("frame of reference = %d, want %d", got.Base().FrameOfReferenceID(), want.Base().FrameOfReferenceID())
	}
}

// TestGeometry3DRoundTrip verifies that a volume survives a file round trip exactly
func TestGeometry3DRoundTrip(t *testing.T) {
	g := obliqueVolume(t)
	loaded := roundTrip(t, g)
	if _, ok := loaded.(*geometry.Geometry3D); !ok {
		t.Fatalf("loaded %T, want *geometry.Geometry3D", loaded)
	}
	checkSameGeometry(t, loaded, g)

	fresh := roundTrip(t, geometry.NewGeometry3D())
	if tb := fresh.TimeBounds(); !math.IsInf(tb[0], -1) || !math.IsInf(tb[1], 1) {
		t.Errorf("infinite time bounds loaded as %v", tb)
	}
}

// TestPlaneRoundTrip checks planes and generic 2D geometries
func TestPlaneRoundTrip(t *testing.T) {
	p := geometry.NewPlaneGeometry()
	if err := p.InitializeStandardPlaneWithSpacing(100, 50, r3.Vec{X: 0.5, Y: 0.25, Z: 3}, geometry.Sagittal, 7, false, true); err != nil {
		t.Fatalf("InitializeStandardPlaneWithSpacing failed: %v", err)
	}
	loaded := roundTrip(t, p)
	lp, ok := loaded.(*geometry.PlaneGeometry)
	if !ok {
		t.Fatalf("loaded %T, want *geometry.PlaneGeometry", loaded)
	}
	checkSameGeometry(t, lp, p)
	sx, sy := lp.ScaleFactorMMPerUnit()
	wx, wy := p.ScaleFactorMMPerUnit()
	if math.Abs(sx-wx) > geometry.Eps || math.Abs(sy-wy) > geometry.Eps {
		t.Errorf("scale factors = (%g, %g), want (%g, %g)", sx, sy, wx, wy)
	}

	g2 := geometry.NewGeometry2D()
	if _, ok := roundTrip(t, g2).(*geometry.Geometry2D); !ok {
		t.Errorf("generic 2D geometry did not load as *geometry.Geometry2D")
	}
}

// TestSlicedRoundTrip checks evenly and unevenly spaced stacks
func TestSlicedRoundTrip(t *testing.T) {
	t.Run("evenly spaced", func(t *testing.T) {
		ref := obliqueVolume(t)
		ref.SetImageGeometry(false)
		s := geometry.NewSlicedGeometry3D()
		if err := s.InitializePlanes(ref, geometry.Frontal, true, true, false); err != nil {
			t.Fatalf("InitializePlanes failed: %v", err)
		}

		data, err := Marshal(s)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if strings.Count(string(data), "kind: PlaneGeometry") != 1 {
			t.Errorf("evenly spaced stack should store only its first slice:\n%s", data)
		}

		loaded, err := Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		ls, ok := loaded.(*geometry.SlicedGeometry3D)
		if !ok {
			t.Fatalf("loaded %T, want *geometry.SlicedGeometry3D", loaded)
		}
		checkSameGeometry(t, ls, s)
		if !ls.EvenlySpaced() || ls.Slices() != s.Slices() {
			t.Fatalf("EvenlySpaced = %t, Slices = %d, want %d", ls.EvenlySpaced(), ls.Slices(), s.Slices())
		}
		if !geometry.EqualVec(ls.DirectionVector(), s.DirectionVector(), geometry.Eps) {
			t.Errorf("direction = %v, want %v", ls.DirectionVector(), s.DirectionVector())
		}
		last := s.Slices() - 1
		if !geometry.Equal(ls.Geometry2D(last), s.Geometry2D(last), geometry.Eps, false) {
			t.Errorf("derived last slice differs after round trip")
		}
	})

	t.Run("uneven", func(t *testing.T) {
		var planes []*geometry.PlaneGeometry
		for _, z := range []float64{0, 1, 3, 7} {
			p := geometry.NewPlaneGeometry()
			if err := p.InitializeStandardPlane(10, 10, nil, geometry.Transversal, z, true, false); err != nil {
				t.Fatalf("InitializeStandardPlane failed: %v", err)
			}
			planes = append(planes, p)
		}
		s := geometry.NewSlicedGeometry3D()
		if _, err := s.InitializeFromPlanes(planes, geometry.DefaultEvenSpacingTolerance); err != nil {
			t.Fatalf("InitializeFromPlanes failed: %v", err)
		}
		s.SetGeometry2D(nil, 2)

		ls, ok := roundTrip(t, s).(*geometry.SlicedGeometry3D)
		if !ok {
			t.Fatalf("loaded stack has the wrong type")
		}
		if ls.EvenlySpaced() {
			t.Errorf("uneven stack loaded as evenly spaced")
		}
		if ls.Geometry2D(2) != nil {
			t.Errorf("empty slot 2 loaded as %v", ls.Geometry2D(2))
		}
		for _, i := range []int{0, 1, 3} {
			if !geometry.Equal(ls.Geometry2D(i), s.Geometry2D(i), geometry.Eps, false) {
				t.Errorf("slice %d differs after round trip", i)
			}
		}
	})
}

// TestTimeSlicedRoundTrip checks evenly timed sequences
func TestTimeSlicedRoundTrip(t *testing.T) {
	first := obliqueVolume(t)
	ts := geometry.NewTimeSlicedGeometry()
	if err := ts.InitializeEvenlyTimed(first, 5); err != nil {
		t.Fatalf("InitializeEvenlyTimed failed: %v", err)
	}

	lts, ok := roundTrip(t, ts).(*geometry.TimeSlicedGeometry)
	if !ok {
		t.Fatalf("loaded sequence has the wrong type")
	}
	checkSameGeometry(t, lts, ts)
	if !lts.EvenlyTimed() || lts.TimeSteps() != 5 {
		t.Fatalf("EvenlyTimed = %t, TimeSteps = %d", lts.EvenlyTimed(), lts.TimeSteps())
	}
	if got := lts.TimeStepGeometry(3).TimeBounds(); got != (geometry.TimeBounds{40, 50}) {
		t.Errorf("step 3 time bounds = %v, want [40 50]", got)
	}
	step, err := lts.MSToTimeStep(35)
	if err != nil {
		t.Fatalf("MSToTimeStep failed: %v", err)
	}
	if step != 2 {
		t.Errorf("MSToTimeStep(35) = %d, want 2", step)
	}
}

// TestInvalidDocuments checks that malformed documents are rejected
func TestInvalidDocuments(t *testing.T) {
	const transform = `"[[1 0 0 ][0 1 0 ][0 0 1 ]][0 0 0 ]"`
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "kind: Cube\nindexToWorld: " + transform + "\nbounds: [0, 1, 0, 1, 0, 1]\n"},
		{"bad transform", "kind: Geometry3D\nindexToWorld: \"[[1 0]]\"\nbounds: [0, 1, 0, 1, 0, 1]\n"},
		{"short bounds", "kind: Geometry3D\nindexToWorld: " + transform + "\nbounds: [0, 1]\n"},
		{"inverted bounds", "kind: Geometry3D\nindexToWorld: " + transform + "\nbounds: [1, 0, 0, 1, 0, 1]\n"},
		{"bad time bounds", "kind: Geometry3D\nindexToWorld: " + transform + "\nbounds: [0, 1, 0, 1, 0, 1]\ntimeBounds: [1]\n"},
		{"future version", "version: 99\nkind: Geometry3D\nindexToWorld: " + transform + "\nbounds: [0, 1, 0, 1, 0, 1]\n"},
		{"volume as slice", "kind: SlicedGeometry3D\nindexToWorld: " + transform + "\nbounds: [0, 1, 0, 1, 0, 1]\nslices:\n  - kind: Geometry3D\n    indexToWorld: " + transform + "\n    bounds: [0, 1, 0, 1, 0, 1]\n"},
		{"not yaml", "kind: [unterminated"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tc.yaml)); err == nil {
				t.Errorf("Unmarshal succeeded for:\n%s", tc.yaml)
			}
		})
	}

	if _, err := Unmarshal([]byte("kind: Cube\n")); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("unknown kind error = %v, want ErrInvalidDocument", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Load of a missing file succeeded")
	}
	if _, err := Marshal(nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Marshal(nil) error = %v, want ErrInvalidDocument", err)
	}
}

// TestMarshalDocument checks that encoding a built document matches Marshal
func TestMarshalDocument(t *testing.T) {
	g := obliqueVolume(t)
	doc, err := ToDocument(g)
	if err != nil {
		t.Fatalf("ToDocument failed: %v", err)
	}
	got, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("MarshalDocument failed: %v", err)
	}
	want, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("MarshalDocument output differs from Marshal:\n%s\nvs\n%s", got, want)
	}
	if _, err := MarshalDocument(nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("MarshalDocument(nil) error = %v, want ErrInvalidDocument", err)
	}
}
