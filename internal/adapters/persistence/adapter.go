// Package persistence mirrors per-event board state to and from the store.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pizarra/internal/adapters/storage"
	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/internal/domain/roster"
	"github.com/okian/pizarra/pkg/logger"
	"github.com/okian/pizarra/pkg/metrics"
)

// Adapter saves and loads BoardRecords.
type Adapter struct {
	store storage.BoardStore
	dir   *roster.Directory
	log   logger.Logger
	now   func() time.Time
}

// New creates an Adapter over store, resolving players through dir.
func New(store storage.BoardStore, dir *roster.Directory, opts ...Option) *Adapter {
	a := &Adapter{
		store: store,
		dir:   dir,
		log:   logger.Nop(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Loaded is the canonical in-memory form of a stored board.
type Loaded struct {
	Found     bool
	RecordID  string
	Formation string
	// Positions is empty when nothing was saved; HasPositions is false then
	// and default seeding is allowed.
	Positions    map[string]model.Coordinate
	HasPositions bool
	Selection    []string
	Kind         SelectedKind
	Malformed    int
	UpdatedAt    time.Time
}

// SaveResult describes a completed save.
type SaveResult struct {
	RecordID string
	Inserted bool
	Record   model.BoardRecord
}

// Save writes state as the event's single board record: the existing record
// is updated in place, otherwise a new one is inserted.
func (a *Adapter) Save(ctx context.Context, state model.BoardState) (SaveResult, error) {
	started := time.Now()
	res, err := a.save(ctx, state)
	ms := float64(time.Since(started).Microseconds()) / 1000
	switch {
	case err != nil:
		metrics.RecordBoardSave("error", ms)
		metrics.RecordErrorByComponent("persistence", "save")
		a.log.Error(ctx, "board save failed", logger.String("event_id", state.EventID), logger.Error(err))
	case res.Inserted:
		metrics.RecordBoardSave("inserted", ms)
	default:
		metrics.RecordBoardSave("updated", ms)
	}
	return res, err
}

func (a *Adapter) save(ctx context.Context, state model.BoardState) (SaveResult, error) {
	if state.EventID == "" {
		return SaveResult{}, fmt.Errorf("%w: save without event id", storage.ErrInvalidInput)
	}
	selected, err := EncodeSelected(state.Selection)
	if err != nil {
		return SaveResult{}, fmt.Errorf("encode selection: %w", err)
	}
	positions := state.Positions
	if positions == nil {
		positions = map[string]model.Coordinate{}
	}
	posRaw, err := json.Marshal(positions)
	if err != nil {
		return SaveResult{}, fmt.Errorf("encode positions: %w", err)
	}

	rec := model.BoardRecord{
		EventID:   state.EventID,
		Formation: state.Formation,
		Selected:  selected,
		Positions: posRaw,
		UpdatedAt: a.now(),
	}

	existing, err := a.store.FindBoard(ctx, state.EventID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		out, err := a.store.InsertBoard(ctx, rec)
		if err != nil {
			return SaveResult{}, fmt.Errorf("%w: insert board %s: %w", ErrTransientStore, state.EventID, err)
		}
		return SaveResult{RecordID: out.ID, Inserted: true, Record: out}, nil
	case err != nil:
		return SaveResult{}, fmt.Errorf("%w: find board %s: %w", ErrTransientStore, state.EventID, err)
	}

	rec.ID = existing.ID
	out, err := a.store.UpdateBoard(ctx, rec)
	if err != nil {
		return SaveResult{}, fmt.Errorf("%w: update board %s: %w", ErrTransientStore, state.EventID, err)
	}
	return SaveResult{RecordID: out.ID, Record: out}, nil
}

// Load reads the event's board. An absent record is not an error. Malformed
// selected entries and failed profile fetches degrade to placeholders.
func (a *Adapter) Load(ctx context.Context, eventID string) (Loaded, error) {
	started := time.Now()
	out, err := a.load(ctx, eventID)
	ms := float64(time.Since(started).Microseconds()) / 1000
	switch {
	case err != nil:
		metrics.RecordBoardLoad("error", ms)
		metrics.RecordErrorByComponent("persistence", "load")
		a.log.Error(ctx, "board load failed", logger.String("event_id", eventID), logger.Error(err))
	case out.Found:
		metrics.RecordBoardLoad("found", ms)
	default:
		metrics.RecordBoardLoad("absent", ms)
	}
	return out, err
}

func (a *Adapter) load(ctx context.Context, eventID string) (Loaded, error) {
	rec, err := a.store.FindBoard(ctx, eventID)
	if errors.Is(err, storage.ErrNotFound) {
		return Loaded{Positions: map[string]model.Coordinate{}}, nil
	}
	if err != nil {
		return Loaded{}, fmt.Errorf("%w: find board %s: %w", ErrTransientStore, eventID, err)
	}

	out := Loaded{
		Found:     true,
		RecordID:  rec.ID,
		Formation: rec.Formation,
		UpdatedAt: rec.UpdatedAt,
	}
	out.Positions = a.decodePositions(ctx, eventID, rec.Positions)
	out.HasPositions = len(out.Positions) > 0

	sel, err := DecodeSelected(rec.Selected)
	if err != nil {
		a.log.Warn(ctx, "degrading malformed selection",
			logger.String("event_id", eventID),
			logger.String("kind", sel.Kind.String()),
			logger.Error(err))
	}
	out.Kind = sel.Kind
	out.Malformed = sel.Malformed
	out.Selection = sel.IDs

	// Display players are resolved through the directory; stored snapshots
	// only fill identities it cannot name yet.
	switch sel.Kind {
	case SelectedSnapshots:
		merged := a.dir.MergeIfUnnamed(sel.Snapshots...)
		a.log.Debug(ctx, "selection snapshots merged",
			logger.String("event_id", eventID), logger.Int("merged", merged))
	case SelectedIDs:
		if err := a.dir.LoadBatch(ctx, sel.IDs); err != nil {
			a.log.Warn(ctx, "profile batch failed, using placeholders",
				logger.String("event_id", eventID), logger.Error(err))
		}
	}
	return out, nil
}

func (a *Adapter) decodePositions(ctx context.Context, eventID string, raw json.RawMessage) map[string]model.Coordinate {
	positions := map[string]model.Coordinate{}
	if len(raw) == 0 || string(raw) == "null" {
		return positions
	}
	if err := json.Unmarshal(raw, &positions); err != nil {
		a.log.Warn(ctx, "ignoring malformed positions",
			logger.String("event_id", eventID),
			logger.Error(fmt.Errorf("%w: positions: %v", ErrMalformedRecord, err)))
		return map[string]model.Coordinate{}
	}
	delete(positions, "")
	return positions
}
