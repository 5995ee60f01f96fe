package geometry

import "errors"

var (
	// ErrNonInvertibleTransform is returned when a world to index conversion
	// needs the inverse of a singular index-to-world transform.
	ErrNonInvertibleTransform = errors.New("index-to-world transform is not invertible")

	// ErrInvalidSpacing is returned for spacing vectors with a non-positive component.
	ErrInvalidSpacing = errors.New("spacing components must be positive")

	// ErrPrecondition marks a call on an instance that is not in the state the
	// operation requires, e.g. asking an unevenly timed geometry for a time step.
	ErrPrecondition = errors.New("precondition not met")

	// ErrInvalidIndex is returned for slice or time step indices outside [0, count).
	ErrInvalidIndex = errors.New("index out of range")

	// ErrNotSupported is returned by the generic 2D geometry for mappings that
	// only a concrete plane can provide.
	ErrNotSupported = errors.New("operation not supported by this geometry")

	ErrInvalidCorner      = errors.New("a cube only has 8 corners, labeled 0-7")
	ErrUnknownOrientation = errors.New("unknown plane orientation")
	ErrInvalidBounds      = errors.New("bounds minimum exceeds maximum")
)
