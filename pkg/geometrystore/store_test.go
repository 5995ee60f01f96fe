package geometrystore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MITK/MITK-sub033/pkg/geometry"
	"github.com/MITK/MITK-sub033/pkg/geometryio"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func volume(t *testing.T, origin r3.Vec) *geometry.Geometry3D {
	t.Helper()
	g := geometry.NewGeometry3D()
	if err := g.SetBounds([6]float64{0, 16, 0, 16, 0, 8}); err != nil {
		t.Fatalf("SetBounds failed: %v", err)
	}
	g.SetOrigin(origin)
	return g
}

// TestStorePersistAndReload checks that geometries survive reopening the catalog
func TestStorePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")

	s := openStore(t, path)
	g := volume(t, r3.Vec{X: 1, Y: 2, Z: 3})
	if err := s.Put(ctx, "head", g); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	plane := geometry.NewPlaneGeometry()
	if err := plane.InitializeStandardPlane(8, 8, nil, geometry.Frontal, 2, true, false); err != nil {
		t.Fatalf("InitializeStandardPlane failed: %v", err)
	}
	if err := s.Put(ctx, "cut", plane); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := openStore(t, path)
	loaded, err := reopened.Get(ctx, "head")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !geometry.Equal(loaded, g, geometry.Eps, false) {
		t.Errorf("reloaded geometry differs")
	}

	entries, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "cut" || entries[1].Name != "head" {
		t.Fatalf("entries = %+v, want cut and head", entries)
	}
	if entries[0].Kind != geometryio.KindPlaneGeometry || entries[1].Kind != geometryio.KindGeometry3D {
		t.Errorf("kinds = %s, %s", entries[0].Kind, entries[1].Kind)
	}
}

// TestStoreReplaceAndDelete checks overwriting and removing entries
func TestStoreReplaceAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "catalog.db"))

	if err := s.Put(ctx, "v", volume(t, r3.Vec{})); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	moved := volume(t, r3.Vec{Z: 10})
	if err := s.Put(ctx, "v", moved); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get(ctx, "v")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !geometry.EqualVec(got.Base().Origin(), r3.Vec{Z: 10}, geometry.Eps) {
		t.Errorf("replaced origin = %v", got.Base().Origin())
	}

	if err := s.Delete(ctx, "v"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "v"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "v"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
	if err := s.Put(ctx, "", moved); err == nil {
		t.Errorf("Put accepted an empty name")
	}
	if err := s.Put(ctx, "nil", nil); !errors.Is(err, geometryio.ErrInvalidDocument) {
		t.Errorf("Put(nil) error = %v, want ErrInvalidDocument", err)
	}
}
