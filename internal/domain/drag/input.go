package drag

import (
	"fmt"
	"sync"

	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/pkg/metrics"
)

// Kind names an input device family.
type Kind string

// Supported input kinds.
const (
	KindPointer Kind = "pointer"
	KindTouch   Kind = "touch"
)

// Phase of an input event.
type Phase string

// Input phases.
const (
	PhaseStart Phase = "start"
	PhaseMove  Phase = "move"
	PhaseEnd   Phase = "end"
)

// InputEvent is a raw client input. Pointer events carry X/Y, touch events
// carry Touches.
type InputEvent struct {
	Kind     Kind    `json:"input"`
	Phase    Phase   `json:"phase"`
	PlayerID string  `json:"player_id,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Touches  []Point `json:"touches,omitempty"`
}

// Result tells the client what happened to an input event.
type Result struct {
	Handled        bool              `json:"handled"`
	PreventDefault bool              `json:"prevent_default"`
	State          string            `json:"state"`
	PlayerID       string            `json:"player_id,omitempty"`
	Coordinate     *model.Coordinate `json:"coordinate,omitempty"`
}

// Adapter maps a device-specific event onto the shared state machine.
type Adapter interface {
	Kind() Kind
	Point(ev InputEvent) (Point, error)
	PreventDefault(phase Phase, dragging bool) bool
}

// PointerInput adapts mouse events.
type PointerInput struct{}

// Kind implements Adapter.
func (PointerInput) Kind() Kind { return KindPointer }

// Point implements Adapter.
func (PointerInput) Point(ev InputEvent) (Point, error) {
	return Point{X: ev.X, Y: ev.Y}, nil
}

// PreventDefault suppresses text selection when a drag starts.
func (PointerInput) PreventDefault(phase Phase, _ bool) bool {
	return phase == PhaseStart
}

// TouchInput adapts touch events, tracking the first touch point.
type TouchInput struct{}

// Kind implements Adapter.
func (TouchInput) Kind() Kind { return KindTouch }

// Point implements Adapter.
func (TouchInput) Point(ev InputEvent) (Point, error) {
	if len(ev.Touches) == 0 {
		return Point{}, ErrMissingTouchPoints
	}
	return ev.Touches[0], nil
}

// PreventDefault suppresses scroll and pan for every move while dragging.
func (TouchInput) PreventDefault(phase Phase, dragging bool) bool {
	return phase == PhaseMove && dragging
}

// Router feeds input events into a Controller. Move and end events are only
// forwarded while a gesture registered by a start event of the same kind is
// running; everything else is ignored.
type Router struct {
	ctrl     *Controller
	adapters map[Kind]Adapter

	mu        sync.Mutex
	listening Adapter
}

// NewRouter creates a Router with the pointer and touch adapters.
func NewRouter(ctrl *Controller) *Router {
	return &Router{
		ctrl: ctrl,
		adapters: map[Kind]Adapter{
			KindPointer: PointerInput{},
			KindTouch:   TouchInput{},
		},
	}
}

// Listening reports the input kind of the registered gesture, if any.
func (r *Router) Listening() (Kind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listening == nil {
		return "", false
	}
	return r.listening.Kind(), true
}

// Dispatch routes one input event. target is only used by start events.
func (r *Router) Dispatch(target Target, ev InputEvent) (Result, error) {
	switch ev.Phase {
	case PhaseStart:
		return r.start(target, ev)
	case PhaseMove:
		return r.move(ev)
	case PhaseEnd:
		return r.end(ev)
	default:
		return Result{State: r.ctrl.State().String()}, fmt.Errorf("%w: phase %q", ErrUnknownInput, ev.Phase)
	}
}

func (r *Router) start(target Target, ev InputEvent) (Result, error) {
	ad, ok := r.adapters[ev.Kind]
	if !ok {
		return Result{State: r.ctrl.State().String()}, fmt.Errorf("%w: %q", ErrUnknownInput, ev.Kind)
	}
	pt, err := ad.Point(ev)
	if err != nil {
		return Result{State: r.ctrl.State().String()}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ctrl.Start(target, pt, ev.PlayerID); err != nil {
		return Result{State: r.ctrl.State().String()}, err
	}
	r.listening = ad
	metrics.RecordDragGesture(string(ad.Kind()))

	return Result{
		Handled:        true,
		PreventDefault: ad.PreventDefault(PhaseStart, true),
		State:          StateDragging.String(),
		PlayerID:       ev.PlayerID,
	}, nil
}

func (r *Router) move(ev InputEvent) (Result, error) {
	r.mu.Lock()
	ad := r.listening
	r.mu.Unlock()
	if ad == nil || ad.Kind() != ev.Kind {
		return Result{State: r.ctrl.State().String()}, nil
	}

	res := Result{
		PreventDefault: ad.PreventDefault(PhaseMove, true),
		State:          StateDragging.String(),
	}
	pt, err := ad.Point(ev)
	if err != nil {
		return res, err
	}
	c, err := r.ctrl.Move(pt)
	if err != nil {
		return res, err
	}
	res.Handled = true
	res.PlayerID, _ = r.ctrl.Dragging()
	res.Coordinate = &c
	return res, nil
}

func (r *Router) end(ev InputEvent) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listening == nil || r.listening.Kind() != ev.Kind {
		return Result{State: r.ctrl.State().String()}, nil
	}
	playerID, _ := r.ctrl.Dragging()
	r.ctrl.End()
	r.listening = nil
	return Result{Handled: true, State: StateIdle.String(), PlayerID: playerID}, nil
}

// Cancel ends any running gesture and drops its listeners.
func (r *Router) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listening = nil
	return r.ctrl.End()
}
