// Package service wires the board components behind the HTTP API: one
// process-wide roster directory and store, and one Session per connected
// client.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/okian/pizarra/internal/adapters/mq/feed"
	"github.com/okian/pizarra/internal/adapters/persistence"
	"github.com/okian/pizarra/internal/adapters/storage"
	"github.com/okian/pizarra/internal/domain/board"
	"github.com/okian/pizarra/internal/domain/layout"
	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/internal/domain/rating"
	"github.com/okian/pizarra/internal/domain/roster"
	"github.com/okian/pizarra/pkg/logger"
	"github.com/okian/pizarra/pkg/metrics"
)

// Service implements the API dependencies of the tactical board.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   storage.Store
	feed    feed.Subscriber
	dir     *roster.Directory
	engine  *layout.Engine
	persist *persistence.Adapter

	// Configuration
	capacity  int
	formation string
	preload   int

	// State
	sessions map[string]*Session
	started  bool

	logger logger.Logger
}

// New constructs a Service over store, following board changes on sub.
func New(store storage.Store, sub feed.Subscriber, opts ...Option) *Service {
	s := &Service{
		store:     store,
		feed:      sub,
		capacity:  board.DefaultCapacity,
		formation: board.DefaultFormation,
		preload:   100,
		sessions:  make(map[string]*Session),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dir == nil {
		s.dir = roster.New(roster.WithFetcher(store), roster.WithLogger(s.logger))
	}
	if s.engine == nil {
		s.engine = layout.New()
	}
	s.persist = persistence.New(store, s.dir, persistence.WithLogger(s.logger))
	return s
}

// Start preloads the roster directory. A failed preload is logged; profiles
// are then fetched on demand.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if s.preload > 0 {
		profiles, err := s.store.ListProfiles(ctx, s.preload)
		if err != nil {
			metrics.RecordErrorByComponent("service", "preload")
			s.logger.Warn(ctx, "directory preload failed", logger.Error(err))
		} else {
			s.dir.Preload(ctx, profiles)
		}
	}

	s.started = true
	s.logger.Info(ctx, "board service started",
		logger.Int("capacity", s.capacity),
		logger.String("default_formation", s.formation),
		logger.Int("profiles", s.dir.Len()),
	)
	return nil
}

// Stop closes every session.
func (s *Service) Stop() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*Session)
	wasStarted := s.started
	s.started = false
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
	metrics.UpdateActiveSessions(0)
	if wasStarted {
		s.logger.Info(context.Background(), "board service stopped", logger.Int("sessions", len(sessions)))
	}
}

// Directory returns the shared roster directory.
func (s *Service) Directory() *roster.Directory { return s.dir }

// --- sessions ---

// OpenSession creates a client session with no active event.
func (s *Service) OpenSession(ctx context.Context) *Session {
	sess := newSession(uuid.NewString(), s)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.UpdateActiveSessions(n)
	s.logger.Debug(ctx, "session opened", logger.String("session_id", sess.id))
	return sess
}

// Session returns an open session.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// CloseSession stops the session's listener and forgets it.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	sess.Close()
	metrics.UpdateActiveSessions(n)
	s.logger.Debug(ctx, "session closed", logger.String("session_id", id))
	return nil
}

// --- profiles ---

// Profiles returns every profile known to the directory.
func (s *Service) Profiles(_ context.Context) []model.Player {
	return s.dir.Snapshot()
}

// UpsertProfile stores a profile and merges it into the directory.
func (s *Service) UpsertProfile(ctx context.Context, p model.Player) (model.Player, error) {
	out, err := s.store.UpsertProfile(ctx, p)
	if err != nil {
		return model.Player{}, err
	}
	s.dir.MergeProfiles(out)
	return out, nil
}

// --- events ---

// Events lists events by date.
func (s *Service) Events(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}

// Event returns one event.
func (s *Service) Event(ctx context.Context, id string) (model.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// CreateEvent stores a new event.
func (s *Service) CreateEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	return s.store.CreateEvent(ctx, ev)
}

// SetAttendance adds or removes playerID from the event's attendees.
func (s *Service) SetAttendance(ctx context.Context, eventID, playerID string, attending bool) (model.Event, error) {
	return s.store.SetAttendance(ctx, eventID, playerID, attending)
}

// Comments lists an event's comments, oldest first.
func (s *Service) Comments(ctx context.Context, eventID string) ([]model.Comment, error) {
	return s.store.ListComments(ctx, eventID)
}

// AddComment stores a comment on an event.
func (s *Service) AddComment(ctx context.Context, c model.Comment) (model.Comment, error) {
	return s.store.AddComment(ctx, c)
}

// --- ratings ---

// RatingSummary is the per-player result of an event's ratings.
type RatingSummary struct {
	Player  model.Player `json:"player"`
	Average float64      `json:"average"`
	Count   int          `json:"count"`
}

// Ratings summarizes an event's ratings, best average first.
func (s *Service) Ratings(ctx context.Context, eventID string) ([]RatingSummary, error) {
	ratings, err := s.store.ListRatings(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sums := rating.Summarize(ratings)
	ids := make([]string, 0, len(sums))
	for _, sum := range sums {
		ids = append(ids, sum.PlayerID)
	}
	if err := s.dir.LoadBatch(ctx, ids); err != nil {
		s.logger.Warn(ctx, "rating players unresolved", logger.String("event_id", eventID), logger.Error(err))
	}

	out := make([]RatingSummary, 0, len(sums))
	for _, sum := range sums {
		out = append(out, RatingSummary{
			Player:  s.dir.Resolve(sum.PlayerID),
			Average: sum.Average,
			Count:   sum.Count,
		})
	}
	return out, nil
}

// Rate validates and stores a rating. A rater's second rating of the same
// player for the same event replaces the first.
func (s *Service) Rate(ctx context.Context, r model.Rating) (model.Rating, error) {
	if err := rating.Validate(r); err != nil {
		return model.Rating{}, err
	}
	return s.store.UpsertRating(ctx, r)
}

// --- stats ---

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make(map[string]int)
	boards := 0
	for _, sess := range s.sessions {
		boards += len(sess.arena.Events())
		if id := sess.EventID(); id != "" {
			events[id]++
		}
	}
	active := make([]string, 0, len(events))
	for id := range events {
		active = append(active, id)
	}
	sort.Strings(active)

	return map[string]any{
		"started":       s.started,
		"sessions":      len(s.sessions),
		"active_events": active,
		"boards":        boards,
		"profiles":      s.dir.Len(),
		"capacity":      s.capacity,
	}
}
