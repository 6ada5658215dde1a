package persistence

import "errors"

var (
	// ErrTransientStore wraps a failed store round trip. Local state is left
	// unchanged and nothing is retried.
	ErrTransientStore = errors.New("board store unavailable")
	// ErrMalformedRecord marks a stored board with an unexpected shape. It is
	// logged; loads degrade instead of failing.
	ErrMalformedRecord = errors.New("malformed board record")
)
