package boardsim

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/pizarra/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete simulation and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	log := logger.Get().Named("boardsim")
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting board simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("clients", cfg.Clients),
		logger.Int("members", cfg.Members),
		logger.Int("drags", cfg.Drags),
		logger.Duration("settle", cfg.Settle),
	)

	// Step 1: Check service health
	if err := client.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Create members and an event they all attend
	ev, err := setupEvent(ctx, client, cfg, stats)
	if err != nil {
		return stats, fmt.Errorf("event setup failed: %w", err)
	}

	// Step 3: Open the coordinator and client sessions on the event
	coordinator, err := openOn(ctx, client, cfg, ev.ID)
	if err != nil {
		return stats, fmt.Errorf("coordinator session failed: %w", err)
	}
	sessions := []string{coordinator}
	defer func() { closeAll(context.WithoutCancel(ctx), client, sessions) }()

	clients := make([]string, 0, cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		id, err := openOn(ctx, client, cfg, ev.ID)
		if err != nil {
			return stats, fmt.Errorf("client session %d failed: %w", i, err)
		}
		clients = append(clients, id)
		sessions = append(sessions, id)
	}
	stats.SessionsOpened = len(sessions)

	// Step 4: Seed the lineup from attendance and share it
	seeded, err := client.seed(ctx, coordinator)
	if err != nil {
		return stats, fmt.Errorf("seed failed: %w", err)
	}
	if _, err := client.save(ctx, coordinator); err != nil {
		return stats, fmt.Errorf("initial save failed: %w", err)
	}
	stats.SavesSuccessful++
	if _, err := waitConverged(ctx, client, clients, seeded, cfg.Settle); err != nil {
		return stats, fmt.Errorf("initial lineup not shared: %w", err)
	}

	// Step 5: Drag concurrently
	runClients(ctx, cfg, client, clients, stats)

	// Step 6: Final save, then every session must show the stored board
	if _, err := client.save(ctx, coordinator); err != nil {
		return stats, fmt.Errorf("final save failed: %w", err)
	}
	stats.SavesSuccessful++

	verifier, err := openOn(ctx, client, cfg, ev.ID)
	if err != nil {
		return stats, fmt.Errorf("verifier session failed: %w", err)
	}
	sessions = append(sessions, verifier)
	stored, err := client.board(ctx, verifier)
	if err != nil {
		return stats, err
	}
	took, err := waitConverged(ctx, client, sessions[:len(sessions)-1], stored, cfg.Settle)
	if err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}
	stats.ConvergedAfter = took
	displayBoard(ctx, stored, cfg.Verbose)

	// Step 7: Save the final board to file
	if err := saveBoardToFile(ctx, cfg, stored); err != nil {
		log.Warn(ctx, "failed to save board to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "simulation completed successfully")
	return stats, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg == nil:
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	case cfg.BaseURL == "":
		return fmt.Errorf("%w: empty base url", ErrInvalidConfig)
	case cfg.Clients <= 0:
		return fmt.Errorf("%w: clients must be positive", ErrInvalidConfig)
	case cfg.Members <= 0:
		return fmt.Errorf("%w: members must be positive", ErrInvalidConfig)
	case cfg.Drags < 0:
		return fmt.Errorf("%w: drags must not be negative", ErrInvalidConfig)
	case cfg.Width <= 0 || cfg.Height <= 0:
		return fmt.Errorf("%w: surface must be positive", ErrInvalidConfig)
	case cfg.Settle <= 0:
		return fmt.Errorf("%w: settle must be positive", ErrInvalidConfig)
	}
	return nil
}

func setupEvent(ctx context.Context, client *HTTPClient, cfg *Config, stats *Stats) (Event, error) {
	members := generateMembers(cfg.Members)
	for _, m := range members {
		if err := client.putProfile(ctx, m); err != nil {
			return Event{}, err
		}
		stats.ProfilesCreated++
	}

	ev, err := client.createEvent(ctx, generateEvent(members[0].ID, time.Now()))
	if err != nil {
		return Event{}, err
	}
	for _, m := range members[1:] {
		if err := client.attend(ctx, ev.ID, m.ID); err != nil {
			return Event{}, err
		}
	}
	logger.Get().Named("boardsim").Info(ctx, "event ready", logger.String("event_id", ev.ID), logger.Int("attendees", len(members)))
	return ev, nil
}

// openOn opens a session, activates eventID and reports the surface.
func openOn(ctx context.Context, client *HTTPClient, cfg *Config, eventID string) (string, error) {
	id, err := client.openSession(ctx)
	if err != nil {
		return "", err
	}
	if _, err := client.activate(ctx, id, eventID); err != nil {
		return id, err
	}
	if err := client.measure(ctx, id, cfg.Width, cfg.Height); err != nil {
		return id, err
	}
	return id, nil
}

func closeAll(ctx context.Context, client *HTTPClient, sessions []string) {
	for _, id := range sessions {
		if err := client.closeSession(ctx, id); err != nil {
			logger.Get().Named("boardsim").Debug(ctx, "close session failed", logger.String("session_id", id), logger.Error(err))
		}
	}
}

// saveBoardToFile writes the converged board as indented JSON.
func saveBoardToFile(ctx context.Context, cfg *Config, b Board) error {
	filename := cfg.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "board_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Named("boardsim").Info(ctx, "board saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, dragsPerSecond float64

	if stats.DragsAttempted > 0 {
		successRate = float64(stats.DragsSuccessful) / float64(stats.DragsAttempted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		dragsPerSecond = float64(stats.DragsAttempted) / stats.Duration.Seconds()
	}

	logger.Get().Named("boardsim").Info(ctx, "final statistics",
		logger.Int("profilesCreated", stats.ProfilesCreated),
		logger.Int("sessionsOpened", stats.SessionsOpened),
		logger.Int("dragsAttempted", stats.DragsAttempted),
		logger.Int("dragsSuccessful", stats.DragsSuccessful),
		logger.Int("dragsFailed", stats.DragsFailed),
		logger.Int("savesSuccessful", stats.SavesSuccessful),
		logger.Int("savesFailed", stats.SavesFailed),
		logger.Duration("convergedAfter", stats.ConvergedAfter),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("dragsPerSecond", dragsPerSecond),
	)
}
