// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package models

import "time"

// Contact is one address-book entry owned by a user. Email is unique per
// owner, not globally.
type Contact struct {
	ID          int64      `json:"id" db:"id"`
	FirstName   string     `json:"first_name" db:"first_name"`
	LastName    string     `json:"last_name" db:"last_name"`
	Email       string     `json:"email" db:"email"`
	Phone       *string    `json:"phone,omitempty" db:"phone"`
	Birthday    *time.Time `json:"birthday,omitempty" db:"birthday"`
	Description *string    `json:"description,omitempty" db:"description"`
	UserID      int64      `json:"user_id" db:"user_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// FilterRow exposes the contact's filterable columns for in-memory
// predicate evaluation.
func (c *Contact) FilterRow() map[string]any {
	row := map[string]any{
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"email":      c.Email,
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
	if c.Phone != nil {
		row["phone"] = *c.Phone
	}
	if c.Birthday != nil {
		row["birthday"] = *c.Birthday
	}
	return row
}
