// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ykravets/contactd/internal/models"
)

// CreateUser inserts a new account with the default user role.
func (db *DB) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	var created models.User
	err := db.conn.GetContext(ctx, &created,
		`INSERT INTO users (username, email, hashed_password, avatar, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING *`,
		user.Username, user.Email, user.HashedPassword, user.Avatar, role)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &created, nil
}

func (db *DB) getUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := db.conn.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByID returns the user with the given id.
func (db *DB) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	return db.getUser(ctx, "SELECT * FROM users WHERE id = $1", userID)
}

// GetUserByUsername returns the user with the given username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, "SELECT * FROM users WHERE username = $1", username)
}

// GetUserByEmail returns the user with the given email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "SELECT * FROM users WHERE email = $1", email)
}

// GetUserByUsernameAndRefreshToken matches a refresh grant against the
// stored token so a rotated or revoked token cannot be replayed.
func (db *DB) GetUserByUsernameAndRefreshToken(ctx context.Context, username, refreshToken string) (*models.User, error) {
	return db.getUser(ctx,
		"SELECT * FROM users WHERE username = $1 AND refresh_token = $2",
		username, refreshToken)
}

// UpdateRefreshToken stores the latest refresh token on the user row.
// A nil token revokes the session.
func (db *DB) UpdateRefreshToken(ctx context.Context, userID int64, refreshToken *string) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE users SET refresh_token = $1 WHERE id = $2", refreshToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	return requireRowAffected(res)
}

// ConfirmEmail marks the account with the given email as verified.
func (db *DB) ConfirmEmail(ctx context.Context, email string) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE users SET is_verified = TRUE WHERE email = $1", email)
	if err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	return requireRowAffected(res)
}

// UpdateAvatar stores a new avatar URL and returns the updated user.
func (db *DB) UpdateAvatar(ctx context.Context, email, avatarURL string) (*models.User, error) {
	var user models.User
	err := db.conn.GetContext(ctx, &user,
		"UPDATE users SET avatar = $1 WHERE email = $2 RETURNING *", avatarURL, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	return &user, nil
}

// UpdatePassword replaces the stored password hash.
func (db *DB) UpdatePassword(ctx context.Context, email, hashedPassword string) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE users SET hashed_password = $1 WHERE email = $2", hashedPassword, email)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
