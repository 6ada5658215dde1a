package feed

import "errors"

// Sentinel errors for the change feed.
var (
	ErrClosed       = errors.New("change feed closed")
	ErrInvalidTopic = errors.New("invalid topic")
)
