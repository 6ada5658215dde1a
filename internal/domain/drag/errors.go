package drag

import "errors"

// Sentinel errors of the drag state machine.
var (
	ErrNotDragging        = errors.New("no drag gesture in progress")
	ErrAlreadyDragging    = errors.New("a drag gesture is already in progress")
	ErrSurfaceUnmeasured  = errors.New("surface has not been measured")
	ErrUnknownInput       = errors.New("unknown input kind")
	ErrMissingTouchPoints = errors.New("touch event without touch points")
)
