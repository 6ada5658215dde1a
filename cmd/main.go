package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/pizarra/internal/adapters/http/api"
	"github.com/okian/pizarra/internal/adapters/mq/feed"
	"github.com/okian/pizarra/internal/adapters/storage"
	"github.com/okian/pizarra/internal/adapters/storage/gormstore"
	"github.com/okian/pizarra/internal/adapters/storage/memstore"
	service "github.com/okian/pizarra/internal/app"
	"github.com/okian/pizarra/internal/config"
	"github.com/okian/pizarra/internal/domain/layout"
	"github.com/okian/pizarra/pkg/logger"
	"github.com/okian/pizarra/pkg/metrics"
)

// HTTP server timeout constants. No WriteTimeout: websocket connections are
// long lived and bound each write themselves.
const (
	readTimeout            = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> .env -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "store close failed", logger.Error(err))
		}
	}()

	hub := feed.NewHub(feed.WithBufferSize(cfg.FeedBuffer), feed.WithLogger(log))
	defer func() { _ = hub.Close() }()

	svc := newService(cfg, storage.NewNotifying(store, hub), hub, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	apiServer := api.NewServer(svc,
		api.WithLogger(log),
		api.WithWriteTimeout(time.Duration(cfg.WSWriteTimeoutMS)*time.Millisecond),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Routes(),
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// openStore builds the configured storage backend.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (storage.Store, error) {
	switch driver := strings.ToLower(cfg.DBDriver); driver {
	case config.DriverMemory:
		log.Warn(ctx, "using in-memory store; boards are lost on restart")
		return memstore.New(), nil
	case config.DriverSQLite, config.DriverPostgres:
		st, err := gormstore.Open(ctx, driver, cfg.DBDSN, gormstore.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: unknown db_driver %q", config.ErrInvalidConfig, cfg.DBDriver)
	}
}

// newService wires the board service from configuration.
func newService(cfg *config.Config, store storage.Store, sub feed.Subscriber, log logger.Logger) *service.Service {
	engine := layout.New(
		layout.WithMarkerSize(cfg.MarkerSize),
		layout.WithMobileBreakpoint(cfg.MobileBreakpoint),
	)
	return service.New(store, sub,
		service.WithLogger(log),
		service.WithEngine(engine),
		service.WithCapacity(cfg.MaxSelection),
		service.WithDefaultFormation(cfg.DefaultFormation),
		service.WithDirectoryPreload(cfg.DirectoryPreload),
	)
}

// startServiceMetricsUpdater periodically exports service gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if n, ok := stats["sessions"].(int); ok {
		metrics.UpdateActiveSessions(n)
	}
	if n, ok := stats["profiles"].(int); ok {
		metrics.UpdateDirectorySize(n)
	}
}
