// Package layout places player markers on a measured surface.
package layout

import (
	"math"

	"github.com/okian/pizarra/internal/domain/model"
)

const (
	marginRatio = 0.1
	mobileCols  = 2
	desktopCols = 3
)

// Outcome tells what Arrange did.
type Outcome int

// Arrange outcomes.
const (
	OutcomeDeferred Outcome = iota // surface not measured yet
	OutcomeNoop                    // nothing selected
	OutcomeSeeded                  // empty layout filled with the default grid
	OutcomeRescaled                // existing layout clamped, unplaced players added
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeferred:
		return "deferred"
	case OutcomeNoop:
		return "noop"
	case OutcomeSeeded:
		return "seeded"
	case OutcomeRescaled:
		return "rescaled"
	default:
		return "unknown"
	}
}

// Engine computes default placements and keeps coordinates inside a surface.
// It is stateless apart from its geometry and safe for concurrent use.
type Engine struct {
	markerSize float64
	breakpoint float64
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		markerSize: DefaultMarkerSize,
		breakpoint: DefaultMobileBreakpoint,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MarkerSize returns the marker edge length.
func (e *Engine) MarkerSize() float64 { return e.markerSize }

// Arrange is the single entry point for layout upkeep. It returns a new map
// and never modifies positions.
//
// An unmeasured surface defers, an empty selection is a no-op, an empty layout
// is seeded with the default grid, anything else is clamped into the surface
// with unplaced selected players put at their grid cell. Running it again on
// its own output with the same surface changes nothing.
func (e *Engine) Arrange(positions map[string]model.Coordinate, selection []string, s model.Surface) (map[string]model.Coordinate, Outcome) {
	if !s.Measured() {
		return clone(positions), OutcomeDeferred
	}
	if len(selection) == 0 {
		return clone(positions), OutcomeNoop
	}
	if len(positions) == 0 {
		return e.SeedDefaults(selection, s), OutcomeSeeded
	}

	out := e.Rescale(positions, s)
	var grid map[string]model.Coordinate
	for _, id := range selection {
		if _, ok := out[id]; ok {
			continue
		}
		if grid == nil {
			grid = e.SeedDefaults(selection, s)
		}
		out[id] = grid[id]
	}
	return out, OutcomeRescaled
}

// SeedDefaults lays the selection out on a grid: two columns on narrow
// surfaces, three otherwise, with 10% margins and each marker centred in its
// cell. It returns nil when the surface is unmeasured or nothing is selected.
func (e *Engine) SeedDefaults(selection []string, s model.Surface) map[string]model.Coordinate {
	if !s.Measured() || len(selection) == 0 {
		return nil
	}

	cols := desktopCols
	if s.Width < e.breakpoint {
		cols = mobileCols
	}
	rows := (len(selection) + cols - 1) / cols

	marginX := s.Width * marginRatio
	marginY := s.Height * marginRatio
	cellW := (s.Width - 2*marginX) / float64(cols)
	cellH := (s.Height - 2*marginY) / float64(rows)
	half := e.markerSize / 2

	out := make(map[string]model.Coordinate, len(selection))
	for i, id := range selection {
		row, col := i/cols, i%cols
		out[id] = e.Clamp(model.Coordinate{
			X: marginX + float64(col)*cellW + cellW/2 - half,
			Y: marginY + float64(row)*cellH + cellH/2 - half,
		}, s)
	}
	return out
}

// Rescale clamps every coordinate into the surface. It does not move players
// proportionally.
func (e *Engine) Rescale(positions map[string]model.Coordinate, s model.Surface) map[string]model.Coordinate {
	out := make(map[string]model.Coordinate, len(positions))
	for id, c := range positions {
		out[id] = e.Clamp(c, s)
	}
	return out
}

// Bounds returns the largest x and y a marker may take on s. A surface
// smaller than the marker yields 0.
func (e *Engine) Bounds(s model.Surface) (maxX, maxY float64) {
	return math.Max(0, s.Width-e.markerSize), math.Max(0, s.Height-e.markerSize)
}

// Clamp forces c into [0, w-marker] x [0, h-marker]. NaN becomes 0.
func (e *Engine) Clamp(c model.Coordinate, s model.Surface) model.Coordinate {
	maxX, maxY := e.Bounds(s)
	return model.Coordinate{X: clamp(c.X, maxX), Y: clamp(c.Y, maxY)}
}

// InBounds reports whether c already lies inside the surface.
func (e *Engine) InBounds(c model.Coordinate, s model.Surface) bool {
	return e.Clamp(c, s) == c
}

func clamp(v, upper float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > upper {
		return upper
	}
	return v
}

func clone(in map[string]model.Coordinate) map[string]model.Coordinate {
	out := make(map[string]model.Coordinate, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
