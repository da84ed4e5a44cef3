package tabbycat

import "errors"

// Sentinel errors returned by the Controller.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotStarted is returned when an operation needs a started controller.
	ErrNotStarted = errors.New("controller not started")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("controller already started")

	// ErrStaleGesture is returned when a move or swap references a unit this
	// view no longer knows about; the operation is aborted with no state
	// change and the stale-view hook is raised.
	ErrStaleGesture = errors.New("gesture references an unknown unit")
)
