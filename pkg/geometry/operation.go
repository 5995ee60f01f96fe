package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// OperationType identifies an interactive edit applied through ExecuteOperation.
type OperationType int

const (
	OpNothing OperationType = iota
	// OpMove translates the geometry by the operation's point, read as a world vector.
	OpMove
	// OpScale grows each axis by the operation's point (in mm) about the bounding box centre.
	OpScale
	// OpRotate rotates about a centre and axis by an angle in degrees.
	OpRotate
	// OpOrient turns a plane so that its normal matches a requested normal.
	OpOrient
	// OpRestorePlanePosition replaces the transform (and plane size) with a stored one.
	OpRestorePlanePosition
)

func (t OperationType) String() string {
	switch t {
	case OpNothing:
		return "nothing"
	case OpMove:
		return "move"
	case OpScale:
		return "scale"
	case OpRotate:
		return "rotate"
	case OpOrient:
		return "orient"
	case OpRestorePlanePosition:
		return "restore-plane-position"
	default:
		return "unknown"
	}
}

// Operation is an edit request. Geometries ignore operations whose type they do
// not handle or whose concrete payload does not match the type.
type Operation interface {
	OperationType() OperationType
}

// PointOperation carries a single point or vector, used by OpMove and OpScale.
type PointOperation struct {
	Type  OperationType
	Point r3.Vec
}

func (o PointOperation) OperationType() OperationType { return o.Type }

// RotationOperation rotates by AngleDegrees about Axis through Center.
type RotationOperation struct {
	Center       r3.Vec
	Axis         r3.Vec
	AngleDegrees float64
}

func (RotationOperation) OperationType() OperationType { return OpRotate }

// PlaneOperation re-orients a plane so that its normal becomes Normal, rotating about Point.
type PlaneOperation struct {
	Point  r3.Vec
	Normal r3.Vec
}

func (PlaneOperation) OperationType() OperationType { return OpOrient }

// RestorePlanePositionOperation restores a previously recorded transform and,
// for planes, the plane size in index units.
type RestorePlanePositionOperation struct {
	Transform *AffineTransform
	Width     float64
	Height    float64
}

func (RestorePlanePositionOperation) OperationType() OperationType { return OpRestorePlanePosition }

// NothingOperation does not change the geometry but still counts as a modification.
type NothingOperation struct{}

func (NothingOperation) OperationType() OperationType { return OpNothing }

func clampDegrees(a float64) float64 {
	switch {
	case a > 360:
		return 360
	case a < -360:
		return -360
	default:
		return a
	}
}
