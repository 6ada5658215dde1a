package boardsim

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pizarra/pkg/logger"
)

// waitConverged polls every session until its board matches want or the
// settle time runs out. It returns how long convergence took.
func waitConverged(ctx context.Context, client *HTTPClient, sessions []string, want Board, settle time.Duration) (time.Duration, error) {
	start := time.Now()
	deadline := start.Add(settle)
	pending := append([]string(nil), sessions...)

	for {
		var still []string
		var lastDiff string
		for _, id := range pending {
			got, err := client.board(ctx, id)
			if err != nil {
				return 0, err
			}
			if diff := boardDiff(want, got); diff != "" {
				still = append(still, id)
				lastDiff = diff
			}
		}
		if len(still) == 0 {
			return time.Since(start), nil
		}
		pending = still

		if time.Now().After(deadline) {
			return 0, fmt.Errorf("%w: %d of %d sessions differ after %s (%s)", ErrNotConverged, len(still), len(sessions), settle, lastDiff)
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// boardDiff describes the first difference between two boards, or "" when
// they show the same formation, selection and positions.
func boardDiff(want, got Board) string {
	if !got.Ready {
		return "session " + got.SessionID + " not ready"
	}
	if want.EventID != got.EventID {
		return fmt.Sprintf("event %q != %q", got.EventID, want.EventID)
	}
	if want.Formation != got.Formation {
		return fmt.Sprintf("formation %q != %q", got.Formation, want.Formation)
	}
	if len(want.Selection) != len(got.Selection) {
		return fmt.Sprintf("selection size %d != %d", len(got.Selection), len(want.Selection))
	}
	for i := range want.Selection {
		if want.Selection[i].ID != got.Selection[i].ID {
			return fmt.Sprintf("selection[%d] %s != %s", i, got.Selection[i].ID, want.Selection[i].ID)
		}
	}
	if len(want.Positions) != len(got.Positions) {
		return fmt.Sprintf("positions size %d != %d", len(got.Positions), len(want.Positions))
	}
	for id, c := range want.Positions {
		if g, ok := got.Positions[id]; !ok || g != c {
			return fmt.Sprintf("position of %s %v != %v", id, g, c)
		}
	}
	return ""
}

// displayBoard logs the converged board.
func displayBoard(ctx context.Context, b Board, verbose bool) {
	log := logger.Get().Named("boardsim")
	log.Info(ctx, "final board",
		logger.String("event_id", b.EventID),
		logger.String("formation", b.Formation),
		logger.Int("selected", len(b.Selection)),
	)
	if !verbose {
		return
	}
	for _, p := range b.Selection {
		c := b.Positions[p.ID]
		log.Info(ctx, "player",
			logger.String("id", p.ID),
			logger.String("name", p.Name),
			logger.Float64("x", c.X),
			logger.Float64("y", c.Y),
		)
	}
}
