// Package memstore is an in-memory storage.Store for development and tests.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pizarra/internal/adapters/storage"
	"github.com/okian/pizarra/internal/domain/model"
)

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	boards   map[string]model.BoardRecord // by record id
	profiles map[string]model.Player
	events   map[string]model.Event
	comments []model.Comment
	ratings  []model.Rating

	failNext error // returned by the next call, then cleared
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		boards:   make(map[string]model.BoardRecord),
		profiles: make(map[string]model.Player),
		events:   make(map[string]model.Event),
	}
}

// FailNext makes the next store call return err.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

// takeFailure must be called with the write lock held.
func (s *Store) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

// Close implements storage.Store.
func (s *Store) Close() error { return nil }

// FindBoard implements storage.BoardStore.
func (s *Store) FindBoard(_ context.Context, eventID string) (model.BoardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return model.BoardRecord{}, err
	}
	var (
		best  model.BoardRecord
		found bool
	)
	for _, rec := range s.boards {
		if rec.EventID != eventID {
			continue
		}
		if !found || rec.UpdatedAt.After(best.UpdatedAt) {
			best, found = rec, true
		}
	}
	if !found {
		return model.BoardRecord{}, fmt.Errorf("board for %s: %w", eventID, storage.ErrNotFound)
	}
	return cloneBoard(best), nil
}

// InsertBoard implements storage.BoardStore.
func (s *Store) InsertBoard(_ context.Context, rec model.BoardRecord) (model.BoardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return model.BoardRecord{}, err
	}
	if rec.EventID == "" {
		return model.BoardRecord{}, fmt.Errorf("%w: board without event id", storage.ErrInvalidInput)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, ok := s.boards[rec.ID]; ok {
		return model.BoardRecord{}, fmt.Errorf("board %s: %w", rec.ID, storage.ErrConflict)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now()
	}
	rec = cloneBoard(rec)
	s.boards[rec.ID] = rec
	return cloneBoard(rec), nil
}

// UpdateBoard implements storage.BoardStore.
func (s *Store) UpdateBoard(_ context.Context, rec model.BoardRecord) (model.BoardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return model.BoardRecord{}, err
	}
	if rec.ID == "" {
		return model.BoardRecord{}, fmt.Errorf("%w: board without id", storage.ErrInvalidInput)
	}
	if _, ok := s.boards[rec.ID]; !ok {
		return model.BoardRecord{}, fmt.Errorf("board %s: %w", rec.ID, storage.ErrNotFound)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now()
	}
	rec = cloneBoard(rec)
	s.boards[rec.ID] = rec
	return cloneBoard(rec), nil
}

func cloneBoard(rec model.BoardRecord) model.BoardRecord {
	rec.Selected = slices.Clone(rec.Selected)
	rec.Positions = slices.Clone(rec.Positions)
	if len(rec.Selected) == 0 {
		rec.Selected = []byte("[]")
	}
	if len(rec.Positions) == 0 {
		rec.Positions = []byte("{}")
	}
	return rec
}

// ListProfiles implements storage.ProfileStore.
func (s *Store) ListProfiles(_ context.Context, limit int) ([]model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	out := make([]model.Player, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ProfilesByIDs implements storage.ProfileStore.
func (s *Store) ProfilesByIDs(_ context.Context, ids []string) ([]model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	var out []model.Player
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpsertProfile implements storage.ProfileStore.
func (s *Store) UpsertProfile(_ context.Context, p model.Player) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return model.Player{}, err
	}
	if p.ID == "" {
		return model.Player{}, fmt.Errorf("%w: profile without id", storage.ErrInvalidInput)
	}
	s.profiles[p.ID] = p
	return p, nil
}

// GetEvent implements storage.EventStore.
func (s *Store) GetEvent(_ context.Context, id string) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return model.Event{}, err
	}
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	}
	ev.Attendees = slices.Clone(ev.Attendees)
	return ev, nil
}

// ListEvents implements storage.EventStore, ordered by date and time.
func (s *Store) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		ev.Attendees = slices.Clone(ev.Attendees)
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

// CreateEvent implements storage.EventStore.
func (s *Store) CreateEvent(_ context.Context, ev model.Event) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return model.Event{}, err
	}
	if ev.Title == "" {
		return model.Event{}, fmt.Errorf("%w: event without title", storage.ErrInvalidInput)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.Attendees = slices.Clone(ev.Attendees)
	if ev.Attendees == nil {
		ev.Attendees = []string{}
	}
	if ev.CreatorID != "" && !ev.Attends(ev.CreatorID) {
		ev.Attendees = append(ev.Attendees, ev.CreatorID)
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}
	s.events[ev.ID] = ev
	ev.Attendees = slices.Clone(ev.Attendees)
	return ev, nil
}

// SetAttendance implements storage.EventStore.
func (s *Store) SetAttendance(_ context.Context, eventID, playerID string, attending bool) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return model.Event{}, err
	}
	if playerID == "" {
		return model.Event{}, fmt.Errorf("%w: attendance without player", storage.ErrInvalidInput)
	}
	ev, ok := s.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	idx := slices.Index(ev.Attendees, playerID)
	switch {
	case attending && idx < 0:
		ev.Attendees = append(slices.Clone(ev.Attendees), playerID)
	case !attending && idx >= 0:
		ev.Attendees = slices.Delete(slices.Clone(ev.Attendees), idx, idx+1)
	}
	s.events[eventID] = ev
	ev.Attendees = slices.Clone(ev.Attendees)
	return ev, nil
}

// ListComments implements storage.CommentStore.
func (s *Store) ListComments(_ context.Context, eventID string) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	var out []model.Comment
	for _, c := range s.comments {
		if c.EventID != eventID {
			continue
		}
		c.AuthorName = s.profiles[c.AuthorID].Name
		out = append(out, c)
	}
	return out, nil
}

// AddComment implements storage.CommentStore.
func (s *Store) AddComment(_ context.Context, c model.Comment) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return model.Comment{}, err
	}
	if c.EventID == "" || c.AuthorID == "" || c.Text == "" {
		return model.Comment{}, fmt.Errorf("%w: comment needs event, author and text", storage.ErrInvalidInput)
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now()
	c.AuthorName = ""
	s.comments = append(s.comments, c)
	return c, nil
}

// ListRatings implements storage.RatingStore.
func (s *Store) ListRatings(_ context.Context, eventID string) ([]model.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	var out []model.Rating
	for _, r := range s.ratings {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

// UpsertRating implements storage.RatingStore.
func (s *Store) UpsertRating(_ context.Context, r model.Rating) (model.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return model.Rating{}, err
	}
	for i, existing := range s.ratings {
		if existing.PlayerID == r.PlayerID && existing.RaterID == r.RaterID && existing.EventID == r.EventID {
			s.ratings[i].Stars = r.Stars
			return s.ratings[i], nil
		}
	}
	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	s.ratings = append(s.ratings, r)
	return r, nil
}
