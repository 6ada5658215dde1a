// Package board keeps the per-event selection and layout state.
package board

import (
	"fmt"
	"sort"
	"sync"

	"github.com/okian/pizarra/internal/domain/model"
)

// Board is the selection and layout of a single event.
// Selection is ordered and duplicate free. Positions may hold coordinates of
// players no longer selected; they are ignored, not pruned.
type Board struct {
	mu        sync.RWMutex
	eventID   string
	capacity  int
	formation string
	selection []string
	positions map[string]model.Coordinate
}

func newBoard(eventID string, capacity int, formation string) *Board {
	return &Board{
		eventID:   eventID,
		capacity:  capacity,
		formation: formation,
		positions: make(map[string]model.Coordinate),
	}
}

// EventID returns the event the board belongs to.
func (b *Board) EventID() string { return b.eventID }

// Toggle removes playerID if selected, otherwise appends it. Appending to a
// full selection fails with ErrCapacity and leaves the selection unchanged.
// The returned bool reports whether the player is selected afterwards.
func (b *Board) Toggle(playerID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, id := range b.selection {
		if id == playerID {
			b.selection = append(b.selection[:i:i], b.selection[i+1:]...)
			return false, nil
		}
	}
	if len(b.selection) >= b.capacity {
		return false, fmt.Errorf("%w: %d of %d", ErrCapacity, len(b.selection), b.capacity)
	}
	b.selection = append(b.selection, playerID)
	return true, nil
}

// Selected reports whether playerID is in the selection.
func (b *Board) Selected(playerID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, id := range b.selection {
		if id == playerID {
			return true
		}
	}
	return false
}

// Selection returns a copy of the selected identities in order.
func (b *Board) Selection() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.selection...)
}

// ReplaceSelection sets the selection, dropping blanks and duplicates and
// keeping at most capacity entries. It returns how many entries were dropped.
func (b *Board) ReplaceSelection(ids []string) int {
	clean := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	dropped := len(ids) - len(clean)

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(clean) > b.capacity {
		dropped += len(clean) - b.capacity
		clean = clean[:b.capacity]
	}
	b.selection = clean
	return dropped
}

// SeedFromAttendees selects the first attendees up to capacity when nothing
// is selected yet. It returns the resulting selection.
func (b *Board) SeedFromAttendees(attendees []string) []string {
	b.mu.RLock()
	empty := len(b.selection) == 0
	b.mu.RUnlock()
	if empty {
		b.ReplaceSelection(attendees)
	}
	return b.Selection()
}

// Formation returns the formation label.
func (b *Board) Formation() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.formation
}

// SetFormation stores any label as-is.
func (b *Board) SetFormation(label string) {
	b.mu.Lock()
	b.formation = label
	b.mu.Unlock()
}

// Positions returns a copy of the layout map.
func (b *Board) Positions() map[string]model.Coordinate {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copyPositions(b.positions)
}

// Position returns the coordinate of playerID, if placed.
func (b *Board) Position(playerID string) (model.Coordinate, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.positions[playerID]
	return c, ok
}

// SetPosition places a single player.
func (b *Board) SetPosition(playerID string, c model.Coordinate) {
	b.mu.Lock()
	b.positions[playerID] = c
	b.mu.Unlock()
}

// ReplacePositions swaps the whole layout map for a copy of positions.
func (b *Board) ReplacePositions(positions map[string]model.Coordinate) {
	cp := copyPositions(positions)
	b.mu.Lock()
	b.positions = cp
	b.mu.Unlock()
}

// State returns a consistent copy of the board.
func (b *Board) State() model.BoardState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return model.BoardState{
		EventID:   b.eventID,
		Formation: b.formation,
		Selection: append([]string(nil), b.selection...),
		Positions: copyPositions(b.positions),
	}
}

// Arena is the keyed store of boards, one per event id, created lazily.
type Arena struct {
	mu        sync.Mutex
	boards    map[string]*Board
	capacity  int
	formation string
}

// NewArena creates an empty Arena.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		boards:    make(map[string]*Board),
		capacity:  DefaultCapacity,
		formation: DefaultFormation,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Board returns the board of eventID, creating it on first use.
func (a *Arena) Board(eventID string) *Board {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.boards[eventID]
	if !ok {
		b = newBoard(eventID, a.capacity, a.formation)
		a.boards[eventID] = b
	}
	return b
}

// Events returns the ids of all boards held, sorted.
func (a *Arena) Events() []string {
	a.mu.Lock()
	ids := make([]string, 0, len(a.boards))
	for id := range a.boards {
		ids = append(ids, id)
	}
	a.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Capacity returns the per-event selection limit.
func (a *Arena) Capacity() int { return a.capacity }

// DefaultFormation returns the label new boards start with.
func (a *Arena) DefaultFormation() string { return a.formation }

// Toggle is a shortcut for Board(eventID).Toggle(playerID).
func (a *Arena) Toggle(eventID, playerID string) (bool, error) {
	return a.Board(eventID).Toggle(playerID)
}

// SetFormation is a shortcut for Board(eventID).SetFormation(label).
func (a *Arena) SetFormation(eventID, label string) {
	a.Board(eventID).SetFormation(label)
}

func copyPositions(in map[string]model.Coordinate) map[string]model.Coordinate {
	out := make(map[string]model.Coordinate, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
