// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command resolved starts the Lumina entity resolution server.
//
// The server resolves loose natural-language text ("kc royals", "seahwks",
// "my team") to canonical team and holiday entities with confidence scores,
// and accepts catalog overlays at runtime via HTTP or a watched directory.
//
// Usage:
//
//	go run ./cmd/resolved
//	go run ./cmd/resolved -port 9090
//	go run ./cmd/resolved -overlay-dir /etc/lumina/overlays
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/resolve/health
//
//	# Resolve a query
//	curl -X POST http://localhost:8080/v1/resolve/resolve \
//	  -H "Content-Type: application/json" \
//	  -d '{"query": "go chiefs"}'
//
//	# Apply a catalog overlay
//	curl -X POST http://localhost:8080/v1/resolve/overlay \
//	  -H "Content-Type: application/yaml" \
//	  --data-binary @overlay.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"

	"github.com/lumina-home/lumina/services/resolve"
	"github.com/lumina-home/lumina/services/resolve/overlay"
	badgerstore "github.com/lumina-home/lumina/services/resolve/storage/badger"
)

// shutdownTimeout bounds how long in-flight requests may run after SIGTERM.
const shutdownTimeout = 10 * time.Second

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	stateDir := flag.String("state-dir", "", "Directory for overlay persistence (default ~/.lumina/resolved)")
	overlayDir := flag.String("overlay-dir", "", "Directory to watch for overlay files (disabled if empty)")
	flag.Parse()

	// Set Gin mode
	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := slog.Default()

	// Set up W3C TraceContext propagator for distributed tracing.
	// Trace context flows from incoming HTTP headers through all handlers.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Open overlay persistence BadgerDB. Graceful degradation: if the
	// database is unavailable, overlays still apply but do not survive
	// restarts.
	var store overlay.Store
	var stateDB *badgerstore.DB
	dir := resolveStateDir(*stateDir)
	if dir != "" {
		cfg := badgerstore.DefaultConfig()
		cfg.Path = dir
		db, err := badgerstore.OpenDB(cfg)
		if err != nil {
			logger.Warn("Overlay BadgerDB unavailable, overlay persistence disabled",
				slog.String("path", dir),
				slog.String("error", err.Error()),
			)
		} else {
			stateDB = db
			store = overlay.NewBadgerStore(db, logger)
			logger.Info("Overlay BadgerDB opened", slog.String("path", dir))
		}
	}

	svc, err := resolve.NewService(resolve.ServiceConfig{
		Logger: logger,
		Store:  store,
	})
	if err != nil {
		logger.Error("Failed to build resolve service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Resolve service ready",
		slog.Int("entities", svc.EntityCount()),
		slog.String("overlay_version", svc.OverlayVersion()),
	)

	handlers := resolve.NewHandlers(svc, logger)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("lumina-resolve"))
	if *debug {
		router.Use(gin.Logger())
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes under /v1/resolve
	v1 := router.Group("/v1/resolve")
	resolve.RegisterRoutes(v1, handlers)

	printBanner(*port, svc.EntityCount(), *overlayDir)

	// Cancel the run context on SIGINT/SIGTERM; the server and the overlay
	// watcher both stop through it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	if *overlayDir != "" {
		watcher, err := overlay.NewWatcher(*overlayDir, func(ctx context.Context, data []byte, source string) error {
			_, applyErr := svc.ApplyOverlay(ctx, data, source)
			return applyErr
		}, logger)
		if err != nil {
			logger.Error("Failed to set up overlay watcher",
				slog.String("dir", *overlayDir),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		group.Go(func() error {
			return watcher.Run(ctx)
		})
		logger.Info("Overlay directory watch enabled", slog.String("dir", *overlayDir))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: router,
	}

	group.Go(func() error {
		logger.Info("Starting Lumina resolve server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down Lumina resolve server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
	}

	if stateDB != nil {
		if err := stateDB.Close(); err != nil {
			logger.Warn("Failed to close overlay BadgerDB", slog.String("error", err.Error()))
		}
	}
}

// resolveStateDir picks the overlay persistence directory: the -state-dir
// flag, then LUMINA_STATE_DIR, then ~/.lumina/resolved. Returns "" when no
// directory can be determined, which disables persistence.
func resolveStateDir(flagDir string) string {
	if flagDir != "" {
		return flagDir
	}
	if env := os.Getenv("LUMINA_STATE_DIR"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lumina", "resolved")
}

func printBanner(port, entities int, overlayDir string) {
	watchStatus := "DISABLED (set -overlay-dir to enable)"
	if overlayDir != "" {
		watchStatus = overlayDir
	}

	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                     LUMINA RESOLVE SERVER                         ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Natural-language entity resolution for teams and holidays.       ║
║  Entities loaded: %-4d                                            ║
║  Overlay watch:   %-45s   ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/v1/resolve/health            │  ║
║  │                                                             │  ║
║  │ # Resolve a query                                           │  ║
║  │ curl -X POST http://localhost:%d/v1/resolve/resolve \ │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"query": "go chiefs"}'                               │  ║
║  │                                                             │  ║
║  │ # List entities                                             │  ║
║  │ curl http://localhost:%d/v1/resolve/entities | jq     │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── POST /resolve     resolve a query to an entity               ║
║  ├── GET  /entities    list (filter with ?category=)              ║
║  ├── GET  /entities/:id                                           ║
║  ├── POST /overlay     apply a catalog overlay                    ║
║  └── GET  /health, /ready, /metrics                               ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, entities, watchStatus, port, port, port)
}
