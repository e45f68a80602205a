// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

// Package main is the entry point for the Contactd server.
//
// Contactd is a contact management REST API with per-user address books,
// JWT authentication with email verification, and Redis-backed response
// caching.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config.yaml, and
//     environment variables (Koanf v2)
//  2. Database: PostgreSQL via pgx with schema bootstrap
//  3. Cache: Redis when enabled, otherwise an in-process store
//  4. Mailer: SMTP delivery for verification and password reset links
//  5. HTTP Server: chi router with auth middleware and rate limiting
//
// # Configuration
//
// Required environment variables:
//   - DATABASE_URL: PostgreSQL connection string
//   - JWT_SECRET: 32+ character secret for token signing
//
// Optional:
//   - REDIS_ENABLED=true with REDIS_ADDR for shared caching
//   - MAIL_ENABLED=true with MAIL_HOST, MAIL_USERNAME, MAIL_PASSWORD,
//     MAIL_FROM for outbound email (disabled mail logs links instead)
//   - PORT: listen port (default 8000)
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting new connections, waits for in-flight requests up to the
// configured shutdown timeout, then closes the cache and database.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/ykravets/contactd/internal/api"
	"github.com/ykravets/contactd/internal/auth"
	"github.com/ykravets/contactd/internal/cache"
	"github.com/ykravets/contactd/internal/config"
	"github.com/ykravets/contactd/internal/database"
	"github.com/ykravets/contactd/internal/logging"
	"github.com/ykravets/contactd/internal/mail"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Bool("redis_enabled", cfg.Redis.Enabled).
		Bool("mail_enabled", cfg.Mail.Enabled).
		Msg("Starting Contactd")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	var store cache.Store
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisStore(&cfg.Redis)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		store = redisStore
		logging.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	} else {
		store = cache.NewMemoryStore()
		logging.Info().Msg("Redis disabled, using in-process cache")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache")
		}
	}()

	var mailer mail.Mailer
	if cfg.Mail.Enabled {
		mailer = mail.NewSMTPMailer(&cfg.Mail, cfg.Server.BaseURL)
	} else {
		mailer = mail.NoopMailer{}
		logging.Warn().Msg("Mail delivery disabled, links will be logged")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Auth)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token manager")
	}

	handler := api.NewHandler(api.HandlerDeps{
		Contacts: db,
		Users:    db,
		JWT:      jwtManager,
		Hasher:   auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Mailer:   mailer,
		Cache:    cache.NewResponseCache(store),
		DB:       db,
		CacheDB:  store,
		Config:   cfg,
	})
	authMW := auth.NewMiddleware(jwtManager, db).
		WithUserCache(store, cfg.Auth.AccessTokenTTL)
	router := api.NewRouter(handler, authMW)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
	logging.Info().Msg("Server stopped")
}
