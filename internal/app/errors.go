package service

import "errors"

var (
	// ErrNoActiveEvent is returned by board operations before Activate.
	ErrNoActiveEvent = errors.New("no active event")
	// ErrStaleEvent marks a load or save that completed after the session
	// switched to another event; its result was discarded.
	ErrStaleEvent = errors.New("active event changed")
	// ErrNotReady is returned while the active event's board is still loading.
	ErrNotReady = errors.New("board not loaded yet")
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput is returned for requests naming no or unknown players.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session closed")
)
