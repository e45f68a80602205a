// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package api

import (
	"time"

	"github.com/ykravets/contactd/internal/models"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=40"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of POST /api/auth/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// PasswordResetRequest is the body of POST /api/auth/request-password-reset.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AvatarRequest is the body of PATCH /api/users/avatar.
type AvatarRequest struct {
	AvatarURL string `json:"avatar" validate:"required,url,max=255"`
}

// ContactRequest is the body of contact create and update operations.
// Birthday uses the 2006-01-02 date form.
type ContactRequest struct {
	FirstName   string  `json:"first_name" validate:"required,min=1,max=50"`
	LastName    string  `json:"last_name" validate:"required,min=1,max=50"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Birthday    *string `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=255"`
}

// toModel converts a validated request into a contact owned by userID.
func (req *ContactRequest) toModel(userID int64) (*models.Contact, error) {
	contact := &models.Contact{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Description: req.Description,
		UserID:      userID,
	}
	if req.Birthday != nil {
		birthday, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			return nil, err
		}
		contact.Birthday = &birthday
	}
	return contact, nil
}
