// Package storage defines the contracts of the external relational store.
package storage

import (
	"context"

	"github.com/okian/pizarra/internal/domain/model"
)

// Table names of the club schema.
const (
	TableProfiles = "profiles"
	TableEvents   = "eventos"
	TableComments = "comentarios"
	TableRatings  = "calificaciones_jugadores"
	TableBoards   = "pizarras_tacticas"
)

// BoardStore persists tactical boards. There is at most one record per event;
// the record id is a surrogate key so callers query before insert or update.
type BoardStore interface {
	// FindBoard returns ErrNotFound when the event has no board.
	FindBoard(ctx context.Context, eventID string) (model.BoardRecord, error)
	// InsertBoard stores a new record and returns it with its id set.
	InsertBoard(ctx context.Context, rec model.BoardRecord) (model.BoardRecord, error)
	// UpdateBoard overwrites the record with rec.ID.
	UpdateBoard(ctx context.Context, rec model.BoardRecord) (model.BoardRecord, error)
}

// ProfileStore reads and writes member profiles.
type ProfileStore interface {
	ListProfiles(ctx context.Context, limit int) ([]model.Player, error)
	ProfilesByIDs(ctx context.Context, ids []string) ([]model.Player, error)
	UpsertProfile(ctx context.Context, p model.Player) (model.Player, error)
}

// EventStore reads and writes events and their attendance.
type EventStore interface {
	GetEvent(ctx context.Context, id string) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	CreateEvent(ctx context.Context, ev model.Event) (model.Event, error)
	SetAttendance(ctx context.Context, eventID, playerID string, attending bool) (model.Event, error)
}

// CommentStore reads and writes event comments.
type CommentStore interface {
	ListComments(ctx context.Context, eventID string) ([]model.Comment, error)
	AddComment(ctx context.Context, c model.Comment) (model.Comment, error)
}

// RatingStore reads and writes teammate ratings, one per rater, rated player
// and event.
type RatingStore interface {
	ListRatings(ctx context.Context, eventID string) ([]model.Rating, error)
	UpsertRating(ctx context.Context, r model.Rating) (model.Rating, error)
}

// Store is the full set of tables.
type Store interface {
	BoardStore
	ProfileStore
	EventStore
	CommentStore
	RatingStore
	Close() error
}
