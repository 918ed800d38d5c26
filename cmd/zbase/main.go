// Package main is the entry point for the ZBase category service.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zbase/internal/cache"
	"zbase/internal/category"
	"zbase/internal/config"
	"zbase/internal/database"
	"zbase/internal/handlers"
	"zbase/internal/middleware"
	"zbase/internal/router"
	"zbase/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON elsewhere.
	slog.SetDefault(newLogger(cfg))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"storage", cfg.StorageDriver,
		"cache", cfg.CacheEnabled,
		"trust_proxy", cfg.TrustProxy,
	)

	// Category storage: PostgreSQL or the in-memory store.
	var (
		categoryStore category.Storage
		cacheLog      handlers.InvalidationLog
		db            *sql.DB
	)
	switch cfg.StorageDriver {
	case config.DriverMemory:
		categoryStore = store.NewMemoryStore()
		slog.Warn("using in-memory category storage, data is lost on restart")
	default:
		db, err = database.Connect(cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		// Run pending migrations.
		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		categoryStore = store.NewCategoryStore(db)
		cacheLog = store.NewCacheLogStore(db)
	}

	manager := category.NewManager(categoryStore)

	// Seed development data (no-op if categories already exist).
	if cfg.IsDev() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Seed(ctx, manager)
		cancel()
		if err != nil {
			slog.Error("failed to seed categories", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey for response caching. The API works without it.
	var respCache handlers.ResponseCache
	if cfg.CacheEnabled {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Warn("valkey unavailable, response cache disabled", "error", err)
		} else {
			defer valkeyClient.Close()
			respCache = cache.NewCategoryCache(valkeyClient, cfg.CacheTTL)
		}
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()

	categoryHandlers := handlers.NewCategories(manager, respCache, cacheLog)

	// Set up the Chi router with all middleware and routes.
	r := router.New(categoryHandlers, limiter, cfg.TrustProxy)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// newLogger returns a text logger at debug level in development and a JSON
// logger at info level elsewhere.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsDev() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
