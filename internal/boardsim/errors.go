package boardsim

import "errors"

// Sentinel errors of a simulation run.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrNotConverged     = errors.New("sessions did not converge")
	ErrInvalidConfig    = errors.New("invalid simulation config")
)
