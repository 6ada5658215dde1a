// Package drag turns pointer and touch gestures into marker coordinates.
package drag

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/pizarra/internal/domain/layout"
	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/pkg/logger"
	"github.com/okian/pizarra/pkg/metrics"
)

// State of the drag state machine.
type State int

// Drag states.
const (
	StateIdle State = iota
	StateDragging
)

func (s State) String() string {
	if s == StateDragging {
		return "dragging"
	}
	return "idle"
}

// Point is a pointer position in client pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Target is the layout map a gesture writes into.
type Target interface {
	Position(playerID string) (model.Coordinate, bool)
	SetPosition(playerID string, c model.Coordinate)
}

type gesture struct {
	target   Target
	playerID string
	origin   Point
	start    model.Coordinate
}

// Controller runs one gesture at a time: Idle -> Dragging -> Idle.
// Moves are written straight into the target, without debouncing and without
// coordinating with remote reloads.
type Controller struct {
	mu      sync.Mutex
	engine  *layout.Engine
	surface func() model.Surface
	log     logger.Logger
	active  *gesture
}

// NewController creates an idle Controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		engine:  layout.New(),
		surface: func() model.Surface { return model.Surface{} },
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start captures the pointer origin and the player's current coordinate,
// (0,0) when unplaced, and enters Dragging.
func (c *Controller) Start(target Target, pointer Point, playerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return fmt.Errorf("%w: player %s", ErrAlreadyDragging, c.active.playerID)
	}
	start, _ := target.Position(playerID)
	c.active = &gesture{
		target:   target,
		playerID: playerID,
		origin:   pointer,
		start:    start,
	}
	return nil
}

// Move places the player at start + (pointer - origin), clamped to the
// current surface, and returns the written coordinate.
func (c *Controller) Move(pointer Point) (model.Coordinate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.active
	if g == nil {
		return model.Coordinate{}, ErrNotDragging
	}
	s := c.surface()
	if !s.Measured() {
		return g.start, ErrSurfaceUnmeasured
	}

	next := c.engine.Clamp(model.Coordinate{
		X: g.start.X + (pointer.X - g.origin.X),
		Y: g.start.Y + (pointer.Y - g.origin.Y),
	}, s)
	g.target.SetPosition(g.playerID, next)
	metrics.RecordDragMove()
	return next, nil
}

// End returns to Idle. It reports whether a gesture was running.
func (c *Controller) End() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return false
	}
	c.log.Debug(context.Background(), "drag ended", logger.String("player_id", c.active.playerID))
	c.active = nil
	return true
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return StateDragging
	}
	return StateIdle
}

// Dragging returns the player being dragged, if any.
func (c *Controller) Dragging() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", false
	}
	return c.active.playerID, true
}
