package model

import (
	"encoding/json"
	"time"
)

// BoardRecord is the persisted tactical board of one event.
// Selected and Positions are kept raw; the persistence adapter decodes them.
type BoardRecord struct {
	ID        string          // surrogate key, not the event id
	EventID   string
	Formation string
	Selected  json.RawMessage // ["id", ...] or legacy [{"id":..,"nombre":..}, ...]
	Positions json.RawMessage // {"id": {"x":..,"y":..}}
	UpdatedAt time.Time
}

// BoardState is a point-in-time copy of one event's board.
type BoardState struct {
	EventID   string
	Formation string
	Selection []string
	Positions map[string]Coordinate
}
