package boardsim

import "time"

// Simulation defaults.
const (
	DefaultClients = 4
	DefaultMembers = 14
	DefaultDrags   = 20
	DefaultWidth   = 600
	DefaultHeight  = 800
	DefaultSettle  = 10 * time.Second
)

// Polling and reporting constants.
const (
	pollInterval         = 50 * time.Millisecond
	PercentageMultiplier = 100
	maxDragStep          = 120
)
