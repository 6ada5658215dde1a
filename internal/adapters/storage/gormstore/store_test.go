package gormstore_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/pizarra/internal/adapters/storage"
	"github.com/okian/pizarra/internal/adapters/storage/gormstore"
	"github.com/okian/pizarra/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *gormstore.Store {
	t.Helper()
	s, err := gormstore.Open(context.Background(), gormstore.DriverSQLite,
		filepath.Join(t.TempDir(), "pizarra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func intPtr(v int) *int { return &v }

func TestOpenUnknownDriver(t *testing.T) {
	_, err := gormstore.Open(context.Background(), "oracle", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestBoardRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.FindBoard(ctx, "ev-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	inserted, err := s.InsertBoard(ctx, model.BoardRecord{
		EventID:   "ev-1",
		Formation: "4-3-3",
		Selected:  json.RawMessage(`["a","b"]`),
		Positions: json.RawMessage(`{"a":{"x":10,"y":20}}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, inserted.ID)
	assert.False(t, inserted.UpdatedAt.IsZero())

	found, err := s.FindBoard(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, found.ID)
	assert.Equal(t, "4-3-3", found.Formation)
	assert.JSONEq(t, `["a","b"]`, string(found.Selected))
	assert.JSONEq(t, `{"a":{"x":10,"y":20}}`, string(found.Positions))

	found.Formation = "3-5-2"
	found.Positions = json.RawMessage(`{}`)
	found.UpdatedAt = time.Time{}
	_, err = s.UpdateBoard(ctx, found)
	require.NoError(t, err)

	again, err := s.FindBoard(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, again.ID)
	assert.Equal(t, "3-5-2", again.Formation)
	assert.JSONEq(t, `{}`, string(again.Positions))
}

func TestBoardDefaultsEmptyJSON(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.InsertBoard(ctx, model.BoardRecord{EventID: "ev-2", Formation: "4-4-2"})
	require.NoError(t, err)

	found, err := s.FindBoard(ctx, "ev-2")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(found.Selected))
	assert.JSONEq(t, `{}`, string(found.Positions))
}

func TestUpdateMissingBoard(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpdateBoard(context.Background(), model.BoardRecord{ID: "nope", EventID: "ev"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.UpdateBoard(context.Background(), model.BoardRecord{EventID: "ev"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertProfile(ctx, model.Player{ID: "p1", Name: "Ana", Number: intPtr(9), Position: "Delantera"})
	require.NoError(t, err)
	_, err = s.UpsertProfile(ctx, model.Player{ID: "p2", Name: "Berta"})
	require.NoError(t, err)
	_, err = s.UpsertProfile(ctx, model.Player{ID: "p1", Name: "Ana María", Number: intPtr(10)})
	require.NoError(t, err)

	_, err = s.UpsertProfile(ctx, model.Player{Name: "sin id"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	all, err := s.ListProfiles(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana María", all[0].Name)
	require.NotNil(t, all[0].Number)
	assert.Equal(t, 10, *all[0].Number)

	limited, err := s.ListProfiles(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	some, err := s.ProfilesByIDs(ctx, []string{"p2", "ghost"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "Berta", some[0].Name)

	none, err := s.ProfilesByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEventsAndAttendance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ev, err := s.CreateEvent(ctx, model.Event{
		Title:     "Partido vs Halcones",
		Date:      "2026-10-24",
		Time:      "18:00",
		CreatorID: "p1",
		Type:      "partido",
	})
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	assert.Equal(t, []string{"p1"}, ev.Attendees)

	_, err = s.CreateEvent(ctx, model.Event{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	ev, err = s.SetAttendance(ctx, ev.ID, "p2", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ev.Attendees)

	ev, err = s.SetAttendance(ctx, ev.ID, "p2", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ev.Attendees)

	ev, err = s.SetAttendance(ctx, ev.ID, "p1", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, ev.Attendees)

	got, err := s.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, got.Attendees)
	assert.Equal(t, "Partido vs Halcones", got.Title)

	_, err = s.GetEvent(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.SetAttendance(ctx, "missing", "p1", true)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := s.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertProfile(ctx, model.Player{ID: "p1", Name: "Ana"})
	require.NoError(t, err)

	_, err = s.AddComment(ctx, model.Comment{EventID: "ev", AuthorID: "p1", Text: "Llevo balones"})
	require.NoError(t, err)
	_, err = s.AddComment(ctx, model.Comment{EventID: "ev", AuthorID: "ghost", Text: "Voy"})
	require.NoError(t, err)
	_, err = s.AddComment(ctx, model.Comment{EventID: "ev"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	comments, err := s.ListComments(ctx, "ev")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	names := map[string]string{}
	for _, c := range comments {
		names[c.AuthorID] = c.AuthorName
	}
	assert.Equal(t, "Ana", names["p1"])
	assert.Equal(t, "", names["ghost"])
}

func TestRatingsUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.UpsertRating(ctx, model.Rating{PlayerID: "p1", RaterID: "p2", EventID: "ev", Stars: 3})
	require.NoError(t, err)

	second, err := s.UpsertRating(ctx, model.Rating{PlayerID: "p1", RaterID: "p2", EventID: "ev", Stars: 5})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Stars)

	_, err = s.UpsertRating(ctx, model.Rating{PlayerID: "p1", RaterID: "p3", EventID: "ev", Stars: 4})
	require.NoError(t, err)

	ratings, err := s.ListRatings(ctx, "ev")
	require.NoError(t, err)
	assert.Len(t, ratings, 2)
}
