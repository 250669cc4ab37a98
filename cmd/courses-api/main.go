// main is the entry point of the Courses API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the configured storage backend and seed it if empty
//  4. Build the router
//  5. Start the HTTP server in a separate goroutine
//  6. Block until SIGINT or SIGTERM arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/courses-api --config=config/local.yaml
//
// or
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/courses-api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/courses-api/internal/config"
	"github.com/aanand-mishra/courses-api/internal/http/router"
	"github.com/aanand-mishra/courses-api/internal/logger"
	"github.com/aanand-mishra/courses-api/internal/storage"
	"github.com/aanand-mishra/courses-api/internal/storage/memory"
	"github.com/aanand-mishra/courses-api/internal/storage/sqlite"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code. Deferred cleanup has finished by the
// time it returns.
func run() int {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := logger.New(cfg.Env)

	log.Info().
		Str("env", cfg.Env).
		Str("storage", cfg.Storage.Driver).
		Str("version", "1.0.0").
		Msg("starting courses-api")

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	// Everything past this point sees only the storage.Storage interface.
	store, closeStore, err := openStorage(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialise storage")
		return 1
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()

	if cfg.Storage.Seed {
		seeded, err := storage.Seed(context.Background(), store)
		if err != nil {
			log.Error().Err(err).Msg("failed to seed storage")
			return 1
		}
		log.Info().Bool("seeded", seeded).Msg("storage initialised")
	}

	// ── 4. Build Router ───────────────────────────────────────────────────
	handler := router.New(store, cfg.Auth, log)

	// ── 5. Create and Start the HTTP Server ───────────────────────────────
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.HTTPServer.Addr).Msg("server started")

		// ErrServerClosed is the normal result of Shutdown.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		log.Error().Err(err).Msg("server encountered an error")
		return 1
	case <-done:
	}

	log.Info().Msg("shutdown signal received, stopping server...")

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server gracefully")
		return 1
	}

	log.Info().Msg("server stopped gracefully")
	return 0
}

// openStorage returns the backend named by cfg.Storage.Driver and the
// function that releases it.
func openStorage(cfg *config.Config) (storage.Storage, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return memory.New(), func() error { return nil }, nil
	}
}
