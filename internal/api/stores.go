// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package api

import (
	"context"

	"github.com/ykravets/contactd/internal/filter"
	"github.com/ykravets/contactd/internal/models"
)

// ContactStore is the persistence surface the contact handlers depend on.
// *database.DB implements it; tests substitute stubs.
type ContactStore interface {
	ListContacts(ctx context.Context, userID int64, req filter.Request, skip, limit int) ([]models.Contact, error)
	GetContactByID(ctx context.Context, contactID, userID int64) (*models.Contact, error)
	GetContactByEmail(ctx context.Context, email string, userID int64) (*models.Contact, error)
	GetContactByEmailExcludingID(ctx context.Context, email string, contactID, userID int64) (*models.Contact, error)
	CreateContact(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	UpdateContact(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	DeleteContact(ctx context.Context, contactID, userID int64) (*models.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID int64, skip, limit, days int) ([]models.Contact, error)
}

// UserStore is the persistence surface the auth and user handlers depend
// on.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsernameAndRefreshToken(ctx context.Context, username, refreshToken string) (*models.User, error)
	UpdateRefreshToken(ctx context.Context, userID int64, refreshToken *string) error
	ConfirmEmail(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email, avatarURL string) (*models.User, error)
	UpdatePassword(ctx context.Context, email, hashedPassword string) error
}

// Pinger is a dependency the health endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}
