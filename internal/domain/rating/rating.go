// Package rating validates teammate ratings and aggregates them per player.
package rating

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/okian/pizarra/internal/domain/model"
)

// Star scale bounds.
const (
	MinStars = 1
	MaxStars = 5
)

// Validation errors.
var (
	ErrInvalidStars = errors.New("stars out of range")
	ErrSelfRating   = errors.New("players cannot rate themselves")
	ErrMissingField = errors.New("rating is missing a required field")
)

// Summary is the aggregate of every rating a player received in an event.
type Summary struct {
	PlayerID string  `json:"jugador_id"`
	Average  float64 `json:"promedio"`
	Count    int     `json:"cantidad"`
}

// Validate checks a rating before it is stored.
func Validate(r model.Rating) error {
	if r.PlayerID == "" || r.RaterID == "" || r.EventID == "" {
		return ErrMissingField
	}
	if r.PlayerID == r.RaterID {
		return ErrSelfRating
	}
	if r.Stars < MinStars || r.Stars > MaxStars {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidStars, r.Stars, MinStars, MaxStars)
	}
	return nil
}

// Summarize averages ratings per rated player, best first. Averages are
// rounded to two decimals; ties are broken by player id.
func Summarize(ratings []model.Rating) []Summary {
	type acc struct{ sum, n int }
	by := make(map[string]*acc)
	for _, r := range ratings {
		a, ok := by[r.PlayerID]
		if !ok {
			a = &acc{}
			by[r.PlayerID] = a
		}
		a.sum += r.Stars
		a.n++
	}

	out := make([]Summary, 0, len(by))
	for id, a := range by {
		avg := float64(a.sum) / float64(a.n)
		out = append(out, Summary{
			PlayerID: id,
			Average:  math.Round(avg*100) / 100,
			Count:    a.n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// ByRater returns the stars raterID gave, keyed by rated player.
func ByRater(ratings []model.Rating, raterID string) map[string]int {
	out := make(map[string]int)
	for _, r := range ratings {
		if r.RaterID == raterID {
			out[r.PlayerID] = r.Stars
		}
	}
	return out
}
