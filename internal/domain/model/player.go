// Package model contains domain models passed between layers.
package model

import "strings"

// Player is a member profile as shown on the board.
// JSON names mirror the profiles table.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"nombre"`
	Number    *int   `json:"numero_polera"`
	Position  string `json:"posicion,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Named reports whether the player carries a non-blank display name.
func (p Player) Named() bool {
	return strings.TrimSpace(p.Name) != ""
}

// Coordinate is a marker's top-left corner in surface pixels.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Surface is the measured rendering area of the field.
type Surface struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Measured reports whether both dimensions are known.
func (s Surface) Measured() bool {
	return s.Width > 0 && s.Height > 0
}
