// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package models

import "time"

// Role constants define the standard roles in the system.
const (
	// RoleUser is the default role with access to own contacts only.
	RoleUser = "user"

	// RoleAdmin can read any user's contacts and inherits user permissions.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleUser, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User is an account holder. The password hash and refresh token never
// leave the server; JSON tags expose only the public profile.
type User struct {
	ID             int64     `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	Avatar         *string   `json:"avatar,omitempty" db:"avatar"`
	RefreshToken   *string   `json:"-" db:"refresh_token"`
	IsVerified     bool      `json:"is_verified" db:"is_verified"`
	Role           string    `json:"role" db:"role"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TokenPair is the response body of login and refresh operations.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
