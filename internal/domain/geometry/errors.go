package geometry

import "errors"

// Sentinel kinds for geometry errors.
var (
	// ErrZeroDimensions signals an unmeasured surface (video metadata not
	// loaded yet). Callers defer the operation and retry on the next valid
	// measurement; this never reaches the user.
	ErrZeroDimensions = errors.New("zero or unmeasured dimensions")

	// ErrUnknownShapeKind signals a shape outside the closed variant set.
	ErrUnknownShapeKind = errors.New("unknown shape kind")
)
