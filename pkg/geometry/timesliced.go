package geometry

import (
	"fmt"
	"math"
	"strings"
)

// TimeSlicedGeometry is a sequence of geometries, one per time step. In evenly
// timed mode only slot 0 must be set: step t is derived on demand as a clone
// of slot 0 whose time bounds are shifted by t times the slot 0 duration, and
// is then kept in its slot.
type TimeSlicedGeometry struct {
	Geometry3D

	steps       []Geometry
	evenlyTimed bool
}

// NewTimeSlicedGeometry returns an empty sequence.
func NewTimeSlicedGeometry() *TimeSlicedGeometry {
	g := &TimeSlicedGeometry{}
	g.InitializeEmpty(0)
	return g
}

func isNilGeometry(g Geometry) bool {
	switch v := g.(type) {
	case nil:
		return true
	case *Geometry3D:
		return v == nil
	case *Geometry2D:
		return v == nil
	case *PlaneGeometry:
		return v == nil
	case *SlicedGeometry3D:
		return v == nil
	case *TimeSlicedGeometry:
		return v == nil
	}
	return false
}

// InitializeEmpty resets the base geometry and allocates n empty, unevenly
// timed steps.
func (g *TimeSlicedGeometry) InitializeEmpty(n int) {
	if n < 0 {
		n = 0
	}
	g.Geometry3D.Initialize()
	g.steps = make([]Geometry, n)
	g.evenlyTimed = false
}

// InitializeEvenlyTimed stores first as step 0 of n evenly timed steps. The
// sequence takes a copy of the transform of first and the bounding box and
// time bounds of all steps.
func (g *TimeSlicedGeometry) InitializeEvenlyTimed(first Geometry, n int) error {
	if isNilGeometry(first) {
		return fmt.Errorf("evenly timed sequence without a first step: %w", ErrPrecondition)
	}
	if n < 1 {
		return fmt.Errorf("evenly timed sequence of %d steps: %w", n, ErrInvalidIndex)
	}
	g.InitializeEmpty(n)
	g.steps[0] = first
	g.evenlyTimed = true

	base := first.Base()
	g.installTransform(base.transform.Clone())
	g.bounds = base.bounds
	g.frameOfReference = base.frameOfReference
	g.imageGeometry = base.imageGeometry
	return g.UpdateInformation()
}

// TimeSteps returns the number of slots.
func (g *TimeSlicedGeometry) TimeSteps() int { return len(g.steps) }

// IsValidTime reports whether 0 <= t < TimeSteps().
func (g *TimeSlicedGeometry) IsValidTime(t int) bool { return t >= 0 && t < len(g.steps) }

// EvenlyTimed reports whether absent steps are derived from slot 0.
func (g *TimeSlicedGeometry) EvenlyTimed() bool { return g.evenlyTimed }

// SetEvenlyTimed switches lazy derivation of absent steps on or off.
func (g *TimeSlicedGeometry) SetEvenlyTimed(on bool) {
	if g.evenlyTimed == on {
		return
	}
	g.evenlyTimed = on
	g.Modified()
}

// TimeStepGeometry returns the geometry of step t. Absent steps are derived
// from slot 0 in evenly timed mode; otherwise, and for out of range indices,
// nil is returned. Derived steps keep the time bounds of slot 0 when those are
// not finite.
func (g *TimeSlicedGeometry) TimeStepGeometry(t int) Geometry {
	if !g.IsValidTime(t) {
		return nil
	}
	if step := g.steps[t]; !isNilGeometry(step) {
		return step
	}
	if !g.evenlyTimed || isNilGeometry(g.steps[0]) {
		return nil
	}
	first := g.steps[0]
	derived := first.CloneGeometry()
	if tb := first.TimeBounds(); tb.IsFinite() {
		shift := float64(t) * tb.Duration()
		derived.SetTimeBounds(TimeBounds{tb[0] + shift, tb[1] + shift})
	}
	g.steps[t] = derived
	return derived
}

// SetTimeStepGeometry stores step in slot t. A nil step clears the slot. It
// reports false for invalid indices.
func (g *TimeSlicedGeometry) SetTimeStepGeometry(step Geometry, t int) bool {
	if !g.IsValidTime(t) {
		return false
	}
	if isNilGeometry(step) {
		g.steps[t] = nil
	} else {
		g.steps[t] = step
	}
	g.Modified()
	return true
}

// Expand grows the sequence to n steps. New slots are empty; in evenly timed
// mode they are derived on demand. Shrinking is not supported and ignored.
func (g *TimeSlicedGeometry) Expand(n int) {
	if n <= len(g.steps) {
		return
	}
	g.steps = append(g.steps, make([]Geometry, n-len(g.steps))...)
	g.Modified()
}

// TimeBoundsInMS returns the lower bound of step 0 and the upper bound of the
// last step, deriving the last step if needed. Without steps the bounds of
// the sequence itself are returned.
func (g *TimeSlicedGeometry) TimeBoundsInMS() TimeBounds {
	if len(g.steps) == 0 || isNilGeometry(g.steps[0]) {
		return g.timeBounds
	}
	tb := g.steps[0].TimeBounds()
	last := g.TimeStepGeometry(len(g.steps) - 1)
	if !isNilGeometry(last) {
		tb[1] = last.TimeBounds()[1]
	}
	return tb
}

// MSToTimeStep converts a time in ms to a step index: -1 below the time
// bounds, TimeSteps() at or above them. It requires an evenly timed sequence.
func (g *TimeSlicedGeometry) MSToTimeStep(ms float64) (int, error) {
	if !g.evenlyTimed {
		return 0, fmt.Errorf("ms to time step: sequence is not evenly timed: %w", ErrPrecondition)
	}
	tb := g.TimeBoundsInMS()
	n := len(g.steps)
	switch {
	case ms < tb[0]:
		return -1, nil
	case ms >= tb[1]:
		return n, nil
	case tb[0] == tb[1] || !tb.IsFinite():
		return 0, nil
	}
	step := int(math.Floor((ms-tb[0])/tb.Duration()*float64(n) + 1e-9))
	if step >= n {
		step = n - 1
	}
	return step, nil
}

// TimeStepToMS returns the start time in ms of step t, or +Inf for invalid steps.
// Evenly timed steps of a sequence without finite time bounds all start at
// its lower bound.
func (g *TimeSlicedGeometry) TimeStepToMS(t int) float64 {
	if !g.IsValidTime(t) {
		return math.Inf(1)
	}
	if !g.evenlyTimed {
		step := g.TimeStepGeometry(t)
		if isNilGeometry(step) {
			return math.Inf(1)
		}
		return step.TimeBounds()[0]
	}
	tb := g.TimeBoundsInMS()
	if t == 0 || !tb.IsFinite() {
		return tb[0]
	}
	return float64(t)/float64(len(g.steps))*tb.Duration() + tb[0]
}

// AggregateBoundingBox returns the box, in the index space of the sequence,
// around the corners of every step. Every absent evenly timed step is derived,
// so callers that need the box repeatedly should keep the result.
func (g *TimeSlicedGeometry) AggregateBoundingBox() (BoundingBox, error) {
	var points PointContainer
	for t := range g.steps {
		step := g.TimeStepGeometry(t)
		if isNilGeometry(step) {
			continue
		}
		base := step.Base()
		for i := 0; i < 8; i++ {
			c, _ := base.bounds.Corner(i)
			p, err := g.transform.BackTransformPoint(base.transform.TransformPoint(c))
			if err != nil {
				return BoundingBox{}, fmt.Errorf("time step %d: %w", t, err)
			}
			points.Insert(p)
		}
	}
	if len(points) == 0 {
		return g.bounds, nil
	}
	return points.ComputeBoundingBox(), nil
}

// UpdateInformation stores the aggregate bounding box and the time bounds of
// all steps on the sequence itself.
func (g *TimeSlicedGeometry) UpdateInformation() error {
	box, err := g.AggregateBoundingBox()
	if err != nil {
		return err
	}
	g.bounds = box
	g.timeBounds = g.TimeBoundsInMS()
	g.Modified()
	return nil
}

// SetImageGeometry sets the pixel centre convention of the sequence and of every stored step.
func (g *TimeSlicedGeometry) SetImageGeometry(on bool) {
	g.Geometry3D.SetImageGeometry(on)
	for _, step := range g.steps {
		if !isNilGeometry(step) {
			step.SetImageGeometry(on)
		}
	}
}

// ExecuteOperation applies op to the sequence and to every stored step. In
// evenly timed mode derived steps are dropped and derived again from the
// edited slot 0.
func (g *TimeSlicedGeometry) ExecuteOperation(op Operation) {
	if op == nil {
		return
	}
	g.Geometry3D.ExecuteOperation(op)
	for t, step := range g.steps {
		if isNilGeometry(step) {
			continue
		}
		if g.evenlyTimed && t > 0 {
			g.steps[t] = nil
			continue
		}
		step.ExecuteOperation(op)
	}
	g.Modified()
}

// CloneGeometry implements Geometry.
func (g *TimeSlicedGeometry) CloneGeometry() Geometry { return g.Clone() }

// Clone returns a deep copy. In evenly timed mode only slot 0 is copied.
func (g *TimeSlicedGeometry) Clone() *TimeSlicedGeometry {
	c := &TimeSlicedGeometry{
		steps:       make([]Geometry, len(g.steps)),
		evenlyTimed: g.evenlyTimed,
	}
	g.Geometry3D.copyInto(&c.Geometry3D)
	for t, step := range g.steps {
		if isNilGeometry(step) || (g.evenlyTimed && t > 0) {
			continue
		}
		c.steps[t] = step.CloneGeometry()
	}
	return c
}

func (g *TimeSlicedGeometry) String() string {
	var b strings.Builder
	b.WriteString(g.Geometry3D.String())
	fmt.Fprintf(&b, "EvenlyTimed: %t\n", g.evenlyTimed)
	fmt.Fprintf(&b, "TimeSteps: %d\n", len(g.steps))
	return b.String()
}
