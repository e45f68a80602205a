// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/ykravets/contactd/internal/config"
	"github.com/ykravets/contactd/internal/logging"
)

// DB wraps the Postgres connection pool and provides data access methods.
type DB struct {
	conn *sqlx.DB
	cfg  *config.DatabaseConfig
}

// New opens a connection pool and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sqlx.Connect("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := &DB{conn: conn, cfg: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.initSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Database connection established")
	return db, nil
}

// schema is idempotent so startup can run it unconditionally.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		username        VARCHAR(40) NOT NULL UNIQUE,
		email           VARCHAR(255) NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		avatar          VARCHAR(255),
		refresh_token   VARCHAR(512),
		is_verified     BOOLEAN NOT NULL DEFAULT FALSE,
		role            VARCHAR(16) NOT NULL DEFAULT 'user',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id          BIGSERIAL PRIMARY KEY,
		first_name  VARCHAR(50) NOT NULL,
		last_name   VARCHAR(50) NOT NULL,
		email       VARCHAR(255) NOT NULL,
		phone       VARCHAR(20),
		birthday    DATE,
		description VARCHAR(255),
		user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (email, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_user_id ON contacts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_birthday ON contacts(birthday)`,
}

func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// Ping verifies database connectivity for health checks.
func (db *DB) Ping(ctx context.Context) error {
	var one int
	if err := db.conn.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}
