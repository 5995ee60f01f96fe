package geometry

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// EqualVec reports whether a and b agree within eps on every component.
func EqualVec(a, b r3.Vec, eps float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, eps) &&
		scalar.EqualWithinAbs(a.Y, b.Y, eps) &&
		scalar.EqualWithinAbs(a.Z, b.Z, eps)
}

// EqualMatrix reports whether a and b agree within eps on every element.
func EqualMatrix(a, b Matrix3, eps float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !scalar.EqualWithinAbs(a[i][j], b[i][j], eps) {
				return false
			}
		}
	}
	return true
}

// EqualBoundingBox reports whether both boxes have the same bounds within eps.
func EqualBoundingBox(a, b BoundingBox, eps float64, verbose bool) bool {
	if floats.EqualApprox(a.bounds[:], b.bounds[:], eps) {
		return true
	}
	if verbose {
		logger.Printf("bounding boxes differ: %s vs %s (eps %g)", a, b, eps)
	}
	return false
}

// EqualTransform reports whether matrix and offset of both transforms agree within eps.
func EqualTransform(a, b *AffineTransform, eps float64, verbose bool) bool {
	if a == nil || b == nil {
		if verbose && a != b {
			logger.Printf("transforms differ: one of them is nil")
		}
		return a == b
	}
	if !EqualMatrix(a.matrix, b.matrix, eps) {
		if verbose {
			logger.Printf("transform matrices differ: %v vs %v (eps %g)", a.matrix, b.matrix, eps)
		}
		return false
	}
	if !EqualVec(a.offset, b.offset, eps) {
		if verbose {
			logger.Printf("transform offsets differ: %v vs %v (eps %g)", a.offset, b.offset, eps)
		}
		return false
	}
	return true
}

// Equal compares the spatial state of two geometries: spacing, origin, axis
// vectors, extents, the pixel centre convention, bounding box and transform.
// With verbose every difference found is written to the package logger.
func Equal(a, b Geometry, eps float64, verbose bool) bool {
	if isNilGeometry(a) || isNilGeometry(b) {
		if verbose {
			logger.Printf("cannot compare nil geometries")
		}
		return false
	}
	l, r := a.Base(), b.Base()
	result := true
	if !EqualVec(l.Spacing(), r.Spacing(), eps) {
		if verbose {
			logger.Printf("spacing differs: %v vs %v", l.Spacing(), r.Spacing())
		}
		result = false
	}
	if !EqualVec(l.Origin(), r.Origin(), eps) {
		if verbose {
			logger.Printf("origin differs: %v vs %v", l.Origin(), r.Origin())
		}
		result = false
	}
	for i := 0; i < 3; i++ {
		if !EqualVec(l.AxisVector(i), r.AxisVector(i), eps) {
			if verbose {
				logger.Printf("axis vector %d differs: %v vs %v", i, l.AxisVector(i), r.AxisVector(i))
			}
			result = false
		}
		if !scalar.EqualWithinAbs(l.Extent(i), r.Extent(i), eps) {
			if verbose {
				logger.Printf("extent %d differs: %g vs %g", i, l.Extent(i), r.Extent(i))
			}
			result = false
		}
	}
	if l.ImageGeometry() != r.ImageGeometry() {
		if verbose {
			logger.Printf("image geometry flag differs: %t vs %t", l.ImageGeometry(), r.ImageGeometry())
		}
		result = false
	}
	if !EqualBoundingBox(l.BoundingBox(), r.BoundingBox(), eps, verbose) {
		result = false
	}
	if !EqualTransform(l.transform, r.transform, eps, verbose) {
		result = false
	}
	return result
}
