package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/pizarra/internal/boardsim"
)

// Default configuration constants.
const (
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		clients    = flag.Int("clients", boardsim.DefaultClients, "Concurrent board sessions")
		members    = flag.Int("members", boardsim.DefaultMembers, "Member profiles created for the event")
		drags      = flag.Int("drags", boardsim.DefaultDrags, "Drag gestures per client")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", boardsim.DefaultSettle, "How long to wait for sessions to converge")
		outputFile = flag.String("output", "", "Output file for the final board (default: board_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for run output (default: board_sim_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		boardsim.ShowHelp()
		return
	}

	if err := boardsim.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &boardsim.Config{
		BaseURL:    *baseURL,
		Clients:    *clients,
		Members:    *members,
		Drags:      *drags,
		Width:      boardsim.DefaultWidth,
		Height:     boardsim.DefaultHeight,
		Timeout:    *timeout,
		Settle:     *settle,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if _, err := boardsim.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
