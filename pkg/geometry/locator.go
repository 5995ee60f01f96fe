package geometry

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// sliceCentre is a slice centre tagged with its slice index.
type sliceCentre struct {
	r3.Vec
	Slice int
}

// Compare implements the kdtree.Comparable interface
func (p sliceCentre) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(sliceCentre)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p sliceCentre) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two centres
func (p sliceCentre) Distance(c kdtree.Comparable) float64 {
	q := c.(sliceCentre)
	return r3.Norm2(r3.Sub(p.Vec, q.Vec))
}

// sliceCentres satisfies kdtree.Interface
type sliceCentres []sliceCentre

func (p sliceCentres) Index(i int) kdtree.Comparable         { return p[i] }
func (p sliceCentres) Len() int                              { return len(p) }
func (p sliceCentres) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p sliceCentres) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(centrePlane{sliceCentres: p, Dim: d}, kdtree.MedianOfRandoms(centrePlane{sliceCentres: p, Dim: d}, 100))
}

// centrePlane implements sort.Interface and kdtree.SortSlicer for sliceCentres
type centrePlane struct {
	sliceCentres
	kdtree.Dim
}

func (p centrePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.sliceCentres[i].X < p.sliceCentres[j].X
	case 1:
		return p.sliceCentres[i].Y < p.sliceCentres[j].Y
	case 2:
		return p.sliceCentres[i].Z < p.sliceCentres[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p centrePlane) Slice(start, end int) kdtree.SortSlicer {
	return centrePlane{sliceCentres: p.sliceCentres[start:end], Dim: p.Dim}
}

func (p centrePlane) Swap(i, j int) {
	p.sliceCentres[i], p.sliceCentres[j] = p.sliceCentres[j], p.sliceCentres[i]
}

// SliceLocator finds the slices of a stack whose centres are closest to a
// world point. It works for evenly spaced and arbitrary stacks alike.
type SliceLocator struct {
	tree *kdtree.Tree
	n    int
}

// NewSliceLocator indexes the centre of every present slice of s. Evenly
// spaced slices are derived as a side effect.
func NewSliceLocator(s *SlicedGeometry3D) (*SliceLocator, error) {
	var centres sliceCentres
	for i := 0; i < s.Slices(); i++ {
		g := s.Geometry2D(i)
		if isNilPlanar(g) {
			continue
		}
		centres = append(centres, sliceCentre{Vec: g.Base().Center(), Slice: i})
	}
	if len(centres) == 0 {
		return nil, fmt.Errorf("slice locator over an empty stack: %w", ErrPrecondition)
	}
	return &SliceLocator{tree: kdtree.New(centres, true), n: len(centres)}, nil
}

// Len returns the number of indexed slices.
func (l *SliceLocator) Len() int { return l.n }

// NearestSlice returns the index of the slice whose centre is closest to p
// and the distance between them.
func (l *SliceLocator) NearestSlice(p r3.Vec) (int, float64) {
	got, dist := l.tree.Nearest(sliceCentre{Vec: p})
	if got == nil {
		return -1, math.Inf(1)
	}
	return got.(sliceCentre).Slice, math.Sqrt(dist)
}

// NearestSlices returns up to k slice indices ordered by increasing centre distance to p.
func (l *SliceLocator) NearestSlices(p r3.Vec, k int) []int {
	if k <= 0 {
		return nil
	}
	keeper := kdtree.NewNKeeper(k)
	l.tree.NearestSet(keeper, sliceCentre{Vec: p})
	found := make([]kdtree.ComparableDist, 0, keeper.Len())
	for _, item := range keeper.Heap {
		if item.Comparable == nil {
			continue
		}
		found = append(found, item)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Dist < found[j].Dist })
	out := make([]int, len(found))
	for i, item := range found {
		out[i] = item.Comparable.(sliceCentre).Slice
	}
	return out
}
