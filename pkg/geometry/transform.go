// Package geometry implements the spatial kernel shared by images, surfaces and
// renderers: affine index-to-world transforms, bounding boxes in index space,
// plane geometries and stacks of planes over space and time.
//
// World coordinates are millimetres (and milliseconds for time bounds); index
// coordinates are the unitless voxel/pixel grid of a geometry. Conversions always
// go index -> world through the transform and world -> index through its inverse.
//
// Geometry objects are not safe for concurrent use. Read-only queries such as
// SlicedGeometry3D.Geometry2D may populate internal caches, so even concurrent
// readers need external synchronisation.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Eps is the absolute tolerance used for geometric comparisons.
const Eps = 1e-4

// sqrtEps is the tolerance used when comparing angles between planes.
var sqrtEps = math.Sqrt(1e-14)

// Matrix3 is a row-major 3x3 matrix.
type Matrix3 [3][3]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Matrix3 {
	return Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Diagonal3 returns a diagonal matrix with d on its diagonal.
func Diagonal3(d r3.Vec) Matrix3 {
	return Matrix3{{d.X, 0, 0}, {0, d.Y, 0}, {0, 0, d.Z}}
}

// Column returns column i as a vector.
func (m Matrix3) Column(i int) r3.Vec {
	return r3.Vec{X: m[0][i], Y: m[1][i], Z: m[2][i]}
}

// SetColumn replaces column i.
func (m *Matrix3) SetColumn(i int, v r3.Vec) {
	m[0][i] = v.X
	m[1][i] = v.Y
	m[2][i] = v.Z
}

// MulVec returns m*v.
func (m Matrix3) MulVec(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Mul returns the product m*b.
func (m Matrix3) Mul(b Matrix3) Matrix3 {
	var p mat.Dense
	p.Mul(m.dense(), b.dense())
	return matrixFromDense(&p)
}

// Det returns the determinant of m.
func (m Matrix3) Det() float64 {
	return mat.Det(m.dense())
}

// HasNaN reports whether any element of m is NaN or infinite.
func (m Matrix3) HasNaN() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.IsNaN(m[i][j]) || math.IsInf(m[i][j], 0) {
				return true
			}
		}
	}
	return false
}

func (m Matrix3) dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

func matrixFromDense(d mat.Matrix) Matrix3 {
	var m Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}

// invert returns the inverse of m. Singular and ill-conditioned matrices are
// reported as ErrNonInvertibleTransform.
func (m Matrix3) invert() (Matrix3, error) {
	if m.HasNaN() {
		return Matrix3{}, fmt.Errorf("matrix %v contains NaN or Inf: %w", m, ErrNonInvertibleTransform)
	}
	var inv mat.Dense
	if err := inv.Inverse(m.dense()); err != nil {
		return Matrix3{}, fmt.Errorf("inverting %v: %v: %w", m, err, ErrNonInvertibleTransform)
	}
	out := matrixFromDense(&inv)
	if out.HasNaN() {
		return Matrix3{}, fmt.Errorf("inverse of %v contains NaN: %w", m, ErrNonInvertibleTransform)
	}
	return out, nil
}

// AffineTransform is a 3x3 linear matrix plus an offset: p' = M*p + offset.
//
// The inverse is cached. Every mutating method invalidates the cache; code that
// edits the transform through other means must call Invalidate.
type AffineTransform struct {
	matrix Matrix3
	offset r3.Vec

	inverse      Matrix3
	inverseValid bool
}

// NewAffineTransform returns the identity transform.
func NewAffineTransform() *AffineTransform {
	return &AffineTransform{matrix: Identity3()}
}

// NewAffineTransformFrom returns a transform with the given matrix and offset.
func NewAffineTransformFrom(m Matrix3, offset r3.Vec) *AffineTransform {
	return &AffineTransform{matrix: m, offset: offset}
}

// Matrix returns a copy of the linear part.
func (t *AffineTransform) Matrix() Matrix3 { return t.matrix }

// Offset returns the translation part.
func (t *AffineTransform) Offset() r3.Vec { return t.offset }

// Column returns column i of the linear part.
func (t *AffineTransform) Column(i int) r3.Vec { return t.matrix.Column(i) }

// SetMatrix replaces the linear part.
func (t *AffineTransform) SetMatrix(m Matrix3) {
	t.matrix = m
	t.Invalidate()
}

// SetColumn replaces column i of the linear part.
func (t *AffineTransform) SetColumn(i int, v r3.Vec) {
	t.matrix.SetColumn(i, v)
	t.Invalidate()
}

// SetOffset replaces the translation part. The cached inverse only depends on
// the matrix and stays valid.
func (t *AffineTransform) SetOffset(o r3.Vec) { t.offset = o }

// SetIdentity resets the transform to the identity.
func (t *AffineTransform) SetIdentity() {
	t.matrix = Identity3()
	t.offset = r3.Vec{}
	t.Invalidate()
}

// Invalidate drops the cached inverse.
func (t *AffineTransform) Invalidate() { t.inverseValid = false }

// Clone returns a deep copy.
func (t *AffineTransform) Clone() *AffineTransform {
	c := *t
	return &c
}

// TransformPoint maps p through the transform.
func (t *AffineTransform) TransformPoint(p r3.Vec) r3.Vec {
	return r3.Add(t.matrix.MulVec(p), t.offset)
}

// TransformVector maps v through the linear part only.
func (t *AffineTransform) TransformVector(v r3.Vec) r3.Vec {
	return t.matrix.MulVec(v)
}

// InverseMatrix returns the inverse of the linear part, computing it on first use.
func (t *AffineTransform) InverseMatrix() (Matrix3, error) {
	if !t.inverseValid {
		inv, err := t.matrix.invert()
		if err != nil {
			return Matrix3{}, err
		}
		t.inverse = inv
		t.inverseValid = true
	}
	return t.inverse, nil
}

// Inverse returns a new transform mapping world back to index coordinates.
func (t *AffineTransform) Inverse() (*AffineTransform, error) {
	inv, err := t.InverseMatrix()
	if err != nil {
		return nil, err
	}
	out := NewAffineTransformFrom(inv, r3.Scale(-1, inv.MulVec(t.offset)))
	out.inverse = t.matrix
	out.inverseValid = true
	return out, nil
}

// BackTransformPoint applies the inverse transform to p.
func (t *AffineTransform) BackTransformPoint(p r3.Vec) (r3.Vec, error) {
	inv, err := t.InverseMatrix()
	if err != nil {
		return r3.Vec{}, err
	}
	return inv.MulVec(r3.Sub(p, t.offset)), nil
}

// BackTransformVector applies the inverse linear part to v.
func (t *AffineTransform) BackTransformVector(v r3.Vec) (r3.Vec, error) {
	inv, err := t.InverseMatrix()
	if err != nil {
		return r3.Vec{}, err
	}
	return inv.MulVec(v), nil
}

// Compose combines other with t in place. With pre set, other is applied
// first (t <- t∘other); otherwise other is applied after t (t <- other∘t).
func (t *AffineTransform) Compose(other *AffineTransform, pre bool) {
	if pre {
		t.offset = r3.Add(t.matrix.MulVec(other.offset), t.offset)
		t.matrix = t.matrix.Mul(other.matrix)
	} else {
		t.offset = r3.Add(other.matrix.MulVec(t.offset), other.offset)
		t.matrix = other.matrix.Mul(t.matrix)
	}
	t.Invalidate()
}

// Scale multiplies the transform by a per-axis scale. With pre set the scale
// acts in index space (columns are scaled); otherwise it acts in world space
// and also scales the offset.
func (t *AffineTransform) Scale(factors r3.Vec, pre bool) {
	s := NewAffineTransformFrom(Diagonal3(factors), r3.Vec{})
	t.Compose(s, pre)
}

// Translate adds v to the offset.
func (t *AffineTransform) Translate(v r3.Vec) {
	t.offset = r3.Add(t.offset, v)
}

// Rotate applies a world-space rotation of angle radians about axis through center.
func (t *AffineTransform) Rotate(center, axis r3.Vec, angle float64) {
	if r3.Norm(axis) == 0 || angle == 0 {
		return
	}
	axis = r3.Unit(axis)
	var m Matrix3
	for i := 0; i < 3; i++ {
		m.SetColumn(i, r3.Rotate(t.matrix.Column(i), angle, axis))
	}
	t.matrix = m
	t.offset = r3.Add(r3.Rotate(r3.Sub(t.offset, center), angle, axis), center)
	t.Invalidate()
}

func (t *AffineTransform) String() string {
	return FormatTransform(t)
}
