package boardsim

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/pizarra/pkg/logger"
)

type dragCounters struct {
	attempted  atomic.Int64
	successful atomic.Int64
	failed     atomic.Int64
	saved      atomic.Int64
	saveFailed atomic.Int64
}

// runClients drives every client session concurrently: each performs
// cfg.Drags pointer gestures on random selected players and then saves.
func runClients(ctx context.Context, cfg *Config, client *HTTPClient, sessions []string, stats *Stats) {
	log := logger.Get().Named("boardsim")
	log.Info(ctx, "running clients", logger.Int("clients", len(sessions)), logger.Int("drags", cfg.Drags))

	var counters dragCounters
	jobs := make(chan string, len(sessions))
	var wg sync.WaitGroup

	for i := 0; i < len(sessions); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sessionID := range jobs {
				runClient(ctx, cfg, client, sessionID, &counters, log)
			}
		}()
	}

	for _, id := range sessions {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	stats.DragsAttempted = int(counters.attempted.Load())
	stats.DragsSuccessful = int(counters.successful.Load())
	stats.DragsFailed = int(counters.failed.Load())
	stats.SavesSuccessful += int(counters.saved.Load())
	stats.SavesFailed += int(counters.saveFailed.Load())

	log.Info(ctx, "clients finished",
		logger.Int("dragsSuccessful", stats.DragsSuccessful),
		logger.Int("dragsFailed", stats.DragsFailed),
		logger.Int("savesFailed", stats.SavesFailed),
	)
}

func runClient(ctx context.Context, cfg *Config, client *HTTPClient, sessionID string, c *dragCounters, log logger.Logger) {
	for i := 0; i < cfg.Drags; i++ {
		if ctx.Err() != nil {
			return
		}
		c.attempted.Add(1)
		if err := dragOnce(ctx, client, sessionID); err != nil {
			c.failed.Add(1)
			if cfg.Verbose {
				log.Debug(ctx, "drag failed", logger.String("session_id", sessionID), logger.Error(err))
			}
			continue
		}
		c.successful.Add(1)
	}

	if _, err := client.save(ctx, sessionID); err != nil {
		c.saveFailed.Add(1)
		log.Warn(ctx, "client save failed", logger.String("session_id", sessionID), logger.Error(err))
		return
	}
	c.saved.Add(1)
}

// dragOnce moves one random selected player by a random offset.
func dragOnce(ctx context.Context, client *HTTPClient, sessionID string) error {
	b, err := client.board(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(b.Selection) == 0 {
		return nil
	}
	playerID := b.Selection[randomIndex(len(b.Selection))].ID

	if _, err := client.drag(ctx, sessionID, "start", DragInput{Input: "pointer", PlayerID: playerID}); err != nil {
		return err
	}
	_, moveErr := client.drag(ctx, sessionID, "move", DragInput{Input: "pointer", X: dragStep(), Y: dragStep()})
	if _, err := client.drag(ctx, sessionID, "end", DragInput{Input: "pointer"}); err != nil && moveErr == nil {
		return err
	}
	return moveErr
}
