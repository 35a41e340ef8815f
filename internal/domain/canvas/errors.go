package canvas

import "errors"

// Sentinel kinds for drawing surface errors.
var (
	ErrUnknownTool = errors.New("unknown tool")

	// ErrNotPlaceable rejects PlaceShape with the freehand tool; freehand
	// shapes are built point by point, not dropped at an anchor.
	ErrNotPlaceable = errors.New("tool is not placeable")

	// ErrSurfaceNotReady signals Complete on a surface with unmeasured
	// dimensions.
	ErrSurfaceNotReady = errors.New("surface not ready")

	// ErrNothingDrawn signals Complete with zero shapes: the degenerate
	// case the host UI decides what to do with.
	ErrNothingDrawn = errors.New("nothing drawn")
)
