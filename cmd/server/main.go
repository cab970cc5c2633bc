// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomtom215/tripsync/internal/actions"
	"github.com/tomtom215/tripsync/internal/api"
	"github.com/tomtom215/tripsync/internal/auth"
	"github.com/tomtom215/tripsync/internal/config"
	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/notify"
	"github.com/tomtom215/tripsync/internal/presence"
	"github.com/tomtom215/tripsync/internal/store"
	"github.com/tomtom215/tripsync/internal/supervisor"
	"github.com/tomtom215/tripsync/internal/supervisor/services"
	ws "github.com/tomtom215/tripsync/internal/websocket"
)

func main() {
	// A missing .env is normal in containers; real environment wins.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("store_driver", cfg.Store.Driver).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("redis_enabled", cfg.Redis.Enabled).
		Msg("Starting Tripsync with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Str("driver", cfg.Store.Driver).Msg("Store opened")

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	hubOpts := []ws.Option{
		ws.WithSendBuffer(cfg.WebSocket.SendBuffer),
		ws.WithInboundLimit(cfg.WebSocket.InboundRate, cfg.WebSocket.InboundBurst),
	}
	if mirror := initPresenceMirror(ctx, cfg); mirror != nil {
		defer func() { _ = mirror.Close() }()
		hubOpts = append(hubOpts, ws.WithPresenceObserver(mirror))
		tree.AddMessagingService(mirror)
	}
	hub := ws.NewHub(hubOpts...)
	tree.AddMessagingService(services.NewHubService(hub))

	if sweeper := initSweeper(cfg, st); sweeper != nil {
		tree.AddDataService(sweeper)
	}

	svc := actions.NewService(st, hub)

	authMiddleware, err := initAuth(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	router := api.NewRouter(api.NewHandler(cfg, hub, svc, st), authMiddleware)
	server := &http.Server{
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// initPresenceMirror connects the Redis presence mirror. The mirror is
// observational, so an unreachable Redis disables it instead of aborting
// startup.
func initPresenceMirror(ctx context.Context, cfg *config.Config) *presence.RedisMirror {
	if !cfg.Redis.Enabled {
		logging.Info().Msg("Presence mirror disabled (REDIS_ENABLED=false)")
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	mirror, err := presence.Connect(pingCtx, cfg.Redis)
	if err != nil {
		logging.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, presence mirror disabled")
		return nil
	}
	logging.Info().Str("addr", cfg.Redis.Addr).Str("key", cfg.Redis.Key).Msg("Presence mirror enabled")
	return mirror
}

// initSweeper builds the notification retention sweeper, or nil when
// retention is disabled.
func initSweeper(cfg *config.Config, st store.Store) *notify.Sweeper {
	if cfg.Notify.Retention <= 0 {
		logging.Info().Msg("Notification retention disabled (NOTIFY_RETENTION=0)")
		return nil
	}
	sweeper, err := notify.NewSweeper(st, cfg.Notify.Retention, cfg.Notify.SweepSchedule)
	if err != nil {
		// Config validation already checked the schedule.
		logging.Fatal().Err(err).Msg("Failed to create notification sweeper")
	}
	return sweeper
}

func initAuth(cfg *config.Config) (*auth.Middleware, error) {
	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode == config.AuthModeJWT {
		var err error
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return nil, err
		}
	}
	return auth.NewMiddleware(cfg.Security.AuthMode, jwtManager)
}
