// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/engine"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/vault"
	"github.com/starford/raido/internal/watch"
	"github.com/starford/raido/internal/waypoint"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. With the MCP stdio transport
	// enabled, stdout belongs to the protocol and logs go to stderr.
	logOut := os.Stdout
	if cfg.MCP.Enabled {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("marker_text", cfg.Sync.MarkerText),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize rebuild journal.
	jr, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	defer jr.Close()

	// Initial structure load.
	tree, err := vault.Scan(store.Root())
	if err != nil {
		return fmt.Errorf("scan vault: %w", err)
	}
	logger.Info("Vault scanned", slog.Int("nodes", tree.Len()))

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	markers := waypoint.NewMarkers(cfg.Sync.MarkerText)
	eng := engine.New(tree, store, markers, jr, logger, cfg.Sync.Debounce(),
		broker.PublishWaypointEvent)

	// Resolve pre-existing flags before the watcher subscribes, so the
	// startup enumeration never floods the pending set.
	eng.InitialScan()

	// Build API router.
	apiRouter := api.NewRouter(eng, jr, cfg.Auth.AuthEnabled(), cfg.Auth.Token,
		http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	events := make(chan watch.Event, 256)

	// Start file watcher.
	g.Go(func() error {
		return watch.Run(gCtx, store.Root(), logger, events)
	})

	// Start sync engine loop.
	g.Go(func() error {
		return eng.Run(gCtx, events)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Optional MCP stdio server. Detached from the group: ServeStdio
	// returns only when stdin closes, and process exit covers it.
	if cfg.MCP.Enabled {
		mcpSrv := mcpserver.New(store, jr, eng, markers)
		go func() {
			logger.Info("Starting MCP stdio server")
			if err := mcpSrv.ServeStdio(); err != nil {
				logger.Error("MCP server error", slog.String("error", err.Error()))
			}
		}()
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Release the watcher and engine loops.
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
