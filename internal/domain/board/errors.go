package board

import "errors"

// ErrCapacity is returned when a selection is already full.
var ErrCapacity = errors.New("selection is full")
