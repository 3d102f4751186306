package actor

import "errors"

var (
	ErrObjectiveNotFound    = errors.New("objective not found")
	ErrStageNotFound        = errors.New("stage not found")
	ErrNotStaged            = errors.New("objective has no stages")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInsufficientQuantity = errors.New("not enough of item")
	ErrLocationNotAllowed   = errors.New("location not allowed for actor")
)
