package boardsim

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/pizarra/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to both the console and logFile.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "board_sim_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the board simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Pizarra Board Simulator
=======================

Opens several board sessions on one event, drags players concurrently,
saves, and checks that every session converges on the stored board.

Usage:
  go run ./cmd/board-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -clients int
        Concurrent board sessions (default 4)
  -members int
        Member profiles created for the event (default 14)
  -drags int
        Drag gestures per client (default 20)
  -timeout duration
        HTTP request timeout (default 10s)
  -settle duration
        How long to wait for sessions to converge (default 10s)
  -output string
        Output file for the final board (default: board_TIMESTAMP.json)
  -log string
        Log file for run output (default: board_sim_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run ./cmd/board-sim

  # Ten clients hammering one board
  go run ./cmd/board-sim -clients 10 -drags 50 -url http://localhost:8080
`)
}
