package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/pizarra/internal/adapters/mq/listener"
	"github.com/okian/pizarra/internal/adapters/persistence"
	"github.com/okian/pizarra/internal/domain/board"
	"github.com/okian/pizarra/internal/domain/drag"
	"github.com/okian/pizarra/internal/domain/layout"
	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/pkg/logger"
	"github.com/okian/pizarra/pkg/metrics"
)

// Snapshot is what a client renders.
type Snapshot struct {
	SessionID string                      `json:"session_id"`
	EventID   string                      `json:"event_id"`
	Ready     bool                        `json:"ready"`
	Formation string                      `json:"formation"`
	Capacity  int                         `json:"capacity"`
	Selection []model.Player              `json:"selection"`
	Positions map[string]model.Coordinate `json:"positions"`
	Surface   model.Surface               `json:"surface"`
	Dragging  string                      `json:"dragging,omitempty"`
}

// SaveOutcome reports a completed save.
type SaveOutcome struct {
	RecordID string `json:"record_id"`
	Inserted bool   `json:"inserted"`
}

// Session is one client's view of the board: its active event, its own
// per-event arena, its surface and its drag gesture. Store round trips run
// outside the lock; a generation counter discards completions that arrive
// after the active event changed.
type Session struct {
	id  string
	svc *Service
	log logger.Logger

	surface atomic.Pointer[model.Surface]
	arena   *board.Arena
	ctrl    *drag.Controller
	router  *drag.Router

	mu       sync.Mutex
	active   string
	gen      uint64
	ready    bool
	closed   bool
	listener *listener.Listener

	watchMu  sync.Mutex
	watchers map[int]chan Snapshot
	nextW    int
}

func newSession(id string, svc *Service) *Session {
	s := &Session{
		id:       id,
		svc:      svc,
		log:      svc.logger.Named("session"),
		arena:    board.NewArena(board.WithCapacity(svc.capacity), board.WithDefaultFormation(svc.formation)),
		watchers: make(map[int]chan Snapshot),
	}
	s.surface.Store(&model.Surface{})
	s.ctrl = drag.NewController(
		drag.WithEngine(svc.engine),
		drag.WithSurface(s.Surface),
		drag.WithLogger(svc.logger),
	)
	s.router = drag.NewRouter(s.ctrl)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// EventID returns the active event, empty before Activate.
func (s *Session) EventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Surface returns the last measured surface.
func (s *Session) Surface() model.Surface { return *s.surface.Load() }

// Activate makes eventID the active event: the previous event's listener and
// gesture are dropped, the board is loaded and laid out, and a listener for
// the new event is started. Board operations are rejected until the load
// completes.
func (s *Session) Activate(ctx context.Context, eventID string) (Snapshot, error) {
	if eventID == "" {
		return Snapshot{}, fmt.Errorf("%w: empty event id", ErrNoActiveEvent)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
	s.router.Cancel()
	s.active = eventID
	s.ready = false
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	loaded, err := s.svc.persist.Load(ctx, eventID)
	if err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	if s.gen != gen || s.closed {
		s.mu.Unlock()
		metrics.RecordStaleCompletion()
		return s.Snapshot(), fmt.Errorf("%w: load of %s", ErrStaleEvent, eventID)
	}
	s.apply(ctx, eventID, loaded)
	s.ready = true
	l, err := listener.Start(ctx, s.svc.feed, eventID, s, listener.WithLogger(s.svc.logger))
	if err != nil {
		s.log.Warn(ctx, "change listener not started", logger.String("event_id", eventID), logger.Error(err))
	} else {
		s.listener = l
	}
	s.mu.Unlock()

	s.log.Info(ctx, "event activated",
		logger.String("session_id", s.id),
		logger.String("event_id", eventID),
		logger.Bool("found", loaded.Found),
	)
	return s.publish(), nil
}

// Reload implements listener.Reloader. A remote change overwrites local
// state, including unsaved drags. Reloads for an event that is no longer
// active are ignored.
func (s *Session) Reload(ctx context.Context, eventID string) error {
	s.mu.Lock()
	if s.active != eventID || s.closed {
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	s.mu.Unlock()

	loaded, err := s.svc.persist.Load(ctx, eventID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.gen != gen || s.closed {
		s.mu.Unlock()
		metrics.RecordStaleCompletion()
		return nil
	}
	s.apply(ctx, eventID, loaded)
	s.ready = true
	s.mu.Unlock()

	s.publish()
	return nil
}

// apply must be called with s.mu held.
func (s *Session) apply(ctx context.Context, eventID string, loaded persistence.Loaded) {
	b := s.arena.Board(eventID)
	if loaded.Found {
		b.SetFormation(loaded.Formation)
		b.ReplacePositions(loaded.Positions)
		if dropped := b.ReplaceSelection(loaded.Selection); dropped > 0 {
			s.log.Warn(ctx, "stored selection trimmed",
				logger.String("event_id", eventID),
				logger.Int("dropped", dropped),
				logger.Error(persistence.ErrMalformedRecord),
			)
		}
	}
	s.arrange(b)
}

// arrange must be called with s.mu held.
func (s *Session) arrange(b *board.Board) layout.Outcome {
	positions, outcome := s.svc.engine.Arrange(b.Positions(), b.Selection(), s.Surface())
	metrics.RecordLayoutArrangement(outcome.String())
	if outcome == layout.OutcomeSeeded || outcome == layout.OutcomeRescaled {
		b.ReplacePositions(positions)
	}
	return outcome
}

// activeBoard must be called with s.mu held.
func (s *Session) activeBoard() (*board.Board, error) {
	switch {
	case s.closed:
		return nil, ErrSessionClosed
	case s.active == "":
		return nil, ErrNoActiveEvent
	case !s.ready:
		return nil, fmt.Errorf("%w: %s", ErrNotReady, s.active)
	}
	return s.arena.Board(s.active), nil
}

// Resize records the measured surface and lays the active board out on it.
func (s *Session) Resize(size model.Surface) (layout.Outcome, Snapshot) {
	s.surface.Store(&size)

	s.mu.Lock()
	outcome := layout.OutcomeDeferred
	if b, err := s.activeBoard(); err == nil {
		outcome = s.arrange(b)
	}
	s.mu.Unlock()

	return outcome, s.publish()
}

// Toggle adds or removes playerID from the active selection. Newly selected
// players are given a grid cell when the surface is measured.
func (s *Session) Toggle(ctx context.Context, playerID string) (bool, Snapshot, error) {
	if playerID == "" {
		return false, s.Snapshot(), fmt.Errorf("%w: empty player id", ErrInvalidInput)
	}

	s.mu.Lock()
	b, err := s.activeBoard()
	if err != nil {
		s.mu.Unlock()
		return false, s.Snapshot(), err
	}
	selected, err := b.Toggle(playerID)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, board.ErrCapacity) {
			metrics.RecordSelectionRejected()
		}
		return false, s.Snapshot(), err
	}
	s.arrange(b)
	s.mu.Unlock()

	if selected {
		if err := s.svc.dir.LoadBatch(ctx, []string{playerID}); err != nil {
			s.log.Debug(ctx, "profile not loaded", logger.String("player_id", playerID), logger.Error(err))
		}
	}
	return selected, s.publish(), nil
}

// SeedFromAttendees fills an empty selection with the event's first
// attendees, up to capacity.
func (s *Session) SeedFromAttendees(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	_, err := s.activeBoard()
	eventID := s.active
	gen := s.gen
	s.mu.Unlock()
	if err != nil {
		return s.Snapshot(), err
	}

	ev, err := s.svc.store.GetEvent(ctx, eventID)
	if err != nil {
		return s.Snapshot(), err
	}
	if err := s.svc.dir.LoadBatch(ctx, ev.Attendees); err != nil {
		s.log.Warn(ctx, "attendee profiles unresolved", logger.String("event_id", eventID), logger.Error(err))
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		metrics.RecordStaleCompletion()
		return s.Snapshot(), fmt.Errorf("%w: seed of %s", ErrStaleEvent, eventID)
	}
	b := s.arena.Board(eventID)
	b.SeedFromAttendees(ev.Attendees)
	s.arrange(b)
	s.mu.Unlock()

	return s.publish(), nil
}

// SetFormation stores any label for the active event.
func (s *Session) SetFormation(label string) (Snapshot, error) {
	s.mu.Lock()
	b, err := s.activeBoard()
	if err == nil {
		b.SetFormation(label)
	}
	s.mu.Unlock()
	if err != nil {
		return s.Snapshot(), err
	}
	return s.publish(), nil
}

// Drag routes a pointer or touch event to the drag controller.
func (s *Session) Drag(ev drag.InputEvent) (drag.Result, error) {
	s.mu.Lock()
	b, err := s.activeBoard()
	if err != nil {
		s.mu.Unlock()
		return drag.Result{State: s.ctrl.State().String()}, err
	}
	if ev.Phase == drag.PhaseStart && !b.Selected(ev.PlayerID) {
		s.mu.Unlock()
		return drag.Result{State: s.ctrl.State().String()},
			fmt.Errorf("%w: player %q is not selected", ErrInvalidInput, ev.PlayerID)
	}
	res, err := s.router.Dispatch(b, ev)
	s.mu.Unlock()

	if res.Handled && ev.Phase != drag.PhaseStart {
		s.publish()
	}
	return res, err
}

// Save writes the active board. A save that completes after the active
// event changed reports ErrStaleEvent; the write itself has happened.
func (s *Session) Save(ctx context.Context) (SaveOutcome, error) {
	s.mu.Lock()
	b, err := s.activeBoard()
	if err != nil {
		s.mu.Unlock()
		return SaveOutcome{}, err
	}
	state := b.State()
	gen := s.gen
	s.mu.Unlock()

	res, err := s.svc.persist.Save(ctx, state)
	if err != nil {
		return SaveOutcome{}, err
	}
	out := SaveOutcome{RecordID: res.RecordID, Inserted: res.Inserted}

	s.mu.Lock()
	stale := s.gen != gen
	s.mu.Unlock()
	if stale {
		metrics.RecordStaleCompletion()
		return out, fmt.Errorf("%w: save of %s", ErrStaleEvent, state.EventID)
	}
	s.log.Info(ctx, "board saved",
		logger.String("session_id", s.id),
		logger.String("event_id", state.EventID),
		logger.Bool("inserted", res.Inserted),
	)
	return out, nil
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	eventID, ready := s.active, s.ready

	snap := Snapshot{
		SessionID: s.id,
		EventID:   eventID,
		Ready:     ready,
		Capacity:  s.arena.Capacity(),
		Surface:   s.Surface(),
		Selection: []model.Player{},
		Positions: map[string]model.Coordinate{},
		Formation: s.arena.DefaultFormation(),
	}
	if id, ok := s.ctrl.Dragging(); ok {
		snap.Dragging = id
	}
	if eventID == "" {
		return snap
	}
	state := s.arena.Board(eventID).State()
	snap.Formation = state.Formation
	snap.Selection = s.svc.dir.ResolveAll(state.Selection)
	snap.Positions = state.Positions
	return snap
}

// Watch returns a channel receiving the latest snapshot after every change.
// Slow watchers only see the most recent one. Call cancel to stop.
func (s *Session) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.watchMu.Lock()
	if s.watchers == nil {
		s.watchMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextW
	s.nextW++
	s.watchers[id] = ch
	s.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.watchMu.Lock()
			if _, ok := s.watchers[id]; ok {
				delete(s.watchers, id)
				close(ch)
			}
			s.watchMu.Unlock()
		})
	}
}

func (s *Session) publish() Snapshot {
	snap := s.Snapshot()
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}

// Close stops the listener and any gesture, and closes every watcher.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
	s.router.Cancel()
	s.mu.Unlock()

	s.watchMu.Lock()
	for _, ch := range s.watchers {
		close(ch)
	}
	s.watchers = nil
	s.watchMu.Unlock()
}
