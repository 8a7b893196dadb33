// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Lectio HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the SQLite store and run migrations (idempotent).
//  4. Seed the administrator on an empty store.
//  5. Load the source catalog.
//  6. Connect to Redis when configured.
//  7. Wire domain services and HTTP handlers.
//  8. Start background workers (reconciliation, backups, event relay).
//  9. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/lectio/internal/api"
	"github.com/taibuivan/lectio/internal/library"
	"github.com/taibuivan/lectio/internal/notify"
	"github.com/taibuivan/lectio/internal/platform/config"
	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/platform/migration"
	redisstore "github.com/taibuivan/lectio/internal/platform/redis"
	"github.com/taibuivan/lectio/internal/platform/sec"
	"github.com/taibuivan/lectio/internal/platform/sqlite"
	"github.com/taibuivan/lectio/internal/reconcile"
	"github.com/taibuivan/lectio/internal/source"
	"github.com/taibuivan/lectio/internal/source/remote"
	"github.com/taibuivan/lectio/internal/system/backup"
	"github.com/taibuivan/lectio/internal/system/setting"
	"github.com/taibuivan/lectio/internal/users/account"
	"github.com/taibuivan/lectio/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("[Lectio] service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Duration("sync_interval", cfg.ReconcileInterval()),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. SQLite ─────────────────────────────────────────────────────────
	db, err := sqlite.Open(startupCtx, cfg.DatabasePath, log)
	must(log, err, "open sqlite store")
	defer func() {
		log.Info("closing sqlite store")
		if cerr := db.Close(); cerr != nil {
			log.Error("sqlite close error", slog.Any("error", cerr))
		}
	}()

	must(log, migration.RunUp(db, log), "run migrations")

	// ── 4. First Boot ─────────────────────────────────────────────────────
	userRepository := account.NewUserRepository(db)
	accountService := account.NewService(userRepository, log)
	settingService := setting.NewService(setting.NewRepository(db), log)

	seeded, err := accountService.Bootstrap(startupCtx, account.BootstrapInput{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
	})
	must(log, err, "seed administrator")

	if seeded {
		must(log, settingService.SetRegistrationOpen(startupCtx, cfg.AllowRegistration), "seed registration setting")
	}

	// ── 5. Sources ────────────────────────────────────────────────────────
	// Per-call deadlines come from each catalog entry; the client itself has none.
	providerClient := &http.Client{}
	registry, err := remote.LoadRegistry(cfg.SourcesFile, providerClient, log)
	must(log, err, "load source catalog")

	walker := source.NewWalker(cfg.MaxChapterPages)

	// ── 6. Redis (optional) ───────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.UsesRedis() {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
	}

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	tokenService, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	must(log, err, "initialize token service")

	repositories := library.NewRepositories(db)
	libraryService := library.NewService(library.Dependencies{
		Repositories:  repositories,
		Registry:      registry,
		Walker:        walker,
		ImageMaxBytes: cfg.ImageMaxBytes,
		Logger:        log,
	})

	hub := notify.NewHub(log)
	var sink notify.Sink = hub
	if rdb != nil {
		sink = notify.NewRedisSink(rdb, constants.RedisChannelEvents)
	}

	scheduler := reconcile.New(reconcile.Config{
		Interval:    cfg.ReconcileInterval(),
		Concurrency: cfg.SyncConcurrency,
		RunOnStart:  cfg.SyncOnStart,
	}, reconcile.Dependencies{
		Novels:     repositories.Novels,
		Chapters:   repositories.Chapters,
		Favourites: repositories.Favourites,
		Registry:   registry,
		Walker:     walker,
		Sink:       sink,
		Logger:     log,
	})

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return sqlite.Ping(ctx, db)
		},
		CheckCache: redisCheck(rdb),
	}, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(auth.NewService(userRepository, settingService, tokenService, cfg.AccessTokenTTL, log)),
		Account:   account.NewHandler(accountService),
		Settings:  setting.NewHandler(settingService),
		Library:   library.NewHandler(libraryService),
		Sync:      reconcile.NewHandler(scheduler),
		Live:      notify.NewHandler(hub, cfg.CORSOrigins),
	}

	// ── 8. Background Workers ─────────────────────────────────────────────
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	workers, workerCtx := errgroup.WithContext(rootCtx)
	workers.Go(func() error { return scheduler.Run(workerCtx) })
	workers.Go(func() error {
		backups := backup.NewService(db, backup.Config{
			Dir:      cfg.BackupDir,
			Interval: cfg.BackupInterval,
			Retain:   cfg.BackupRetain,
		}, log)
		return backups.Run(workerCtx)
	})
	if rdb != nil {
		workers.Go(func() error {
			return notify.NewRelay(rdb, constants.RedisChannelEvents, hub, log).Run(workerCtx)
		})
	}

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log, tokenService, handlers)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal, server error or a failed worker.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown signal received")
	case <-workerCtx.Done():
		log.Error("background worker stopped", slog.Any("error", context.Cause(workerCtx)))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}
	stop()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	hub.Close()
	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
	}

	if err := workers.Wait(); err != nil {
		log.Error("background worker error", slog.Any("error", err))
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger with the application attribute.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// redisCheck returns the readiness probe for rdb, or nil when Redis is not used.
func redisCheck(rdb *goredis.Client) func(ctx context.Context) error {
	if rdb == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return redisstore.Ping(ctx, rdb)
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
