// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package api

import (
	"context"
	"crypto/md5" //nolint:gosec // gravatar addressing, not password hashing
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ykravets/contactd/internal/auth"
	"github.com/ykravets/contactd/internal/database"
	"github.com/ykravets/contactd/internal/logging"
	"github.com/ykravets/contactd/internal/models"
	"github.com/ykravets/contactd/internal/validation"
)

// mailTimeout bounds background email delivery.
const mailTimeout = time.Minute

// Register creates an account and mails a verification link.
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	if _, err := h.users.GetUserByEmail(ctx, req.Email); err == nil {
		respondDetail(w, http.StatusConflict, "User with this email already exists")
		return
	}
	if _, err := h.users.GetUserByUsername(ctx, req.Username); err == nil {
		respondDetail(w, http.StatusConflict, "User with this username already exists")
		return
	}

	hashed, err := h.hasher.Hash(req.Password)
	if err != nil {
		logging.Error().Err(err).Msg("Password hashing failed")
		respondDetail(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	avatar := gravatarURL(req.Email)
	user, err := h.users.CreateUser(ctx, &models.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
		Avatar:         &avatar,
	})
	if errors.Is(err, database.ErrDuplicateEmail) {
		respondDetail(w, http.StatusConflict, "User with this email already exists")
		return
	}
	if err != nil {
		logging.Error().Err(err).Msg("User creation failed")
		respondDetail(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := h.jwt.GenerateEmailVerifyToken(user.Username, user.Email)
	if err != nil {
		logging.Error().Err(err).Msg("Verification token generation failed")
		respondDetail(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	go h.sendMail(func(ctx context.Context) error {
		return h.mailer.SendVerificationEmail(ctx, user.Email, user.Username, token)
	})

	respondJSON(w, http.StatusCreated, user)
}

// gravatarURL derives the default avatar from the email address per the
// Gravatar addressing convention.
func gravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x", md5.Sum([]byte(normalized))) //nolint:gosec
}

// sendMail runs one email delivery in the background with its own
// timeout, detached from the request context.
func (h *Handler) sendMail(send func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
	defer cancel()
	if err := send(ctx); err != nil {
		logging.Error().Err(err).Msg("Email delivery failed")
	}
}

// ConfirmEmail marks the account from the token as verified.
// GET /api/auth/confirmed_email/{token}
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	claims, err := h.jwt.ValidateToken(token, auth.TokenEmailVerify)
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid verification token")
		return
	}

	ctx := r.Context()
	user, err := h.users.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		respondDetail(w, http.StatusBadRequest, "Verification error")
		return
	}
	if user.IsVerified {
		respondJSON(w, http.StatusOK, messageResponse{Message: "Your email has already been confirmed."})
		return
	}

	if err := h.users.ConfirmEmail(ctx, claims.Email); err != nil {
		logging.Error().Err(err).Msg("Email confirmation failed")
		respondDetail(w, http.StatusInternalServerError, "Verification error")
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully"})
}

// Login verifies credentials and issues a token pair. The refresh token
// is stored on the user row so it can be matched and rotated later.
// Credentials are accepted as a JSON body or an OAuth2-style form post.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLoginRequest(r)
	if err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	user, err := h.users.GetUserByUsername(ctx, req.Username)
	if err != nil || !h.hasher.Verify(user.HashedPassword, req.Password) {
		respondDetail(w, http.StatusUnauthorized, "User or password is incorrect")
		return
	}
	if !user.IsVerified {
		respondDetail(w, http.StatusUnauthorized, "Email not confirmed")
		return
	}

	pair, err := h.issueTokenPair(ctx, user)
	if err != nil {
		logging.Error().Err(err).Str("username", sanitizeLogValue(req.Username)).Msg("Token issuance failed")
		respondDetail(w, http.StatusInternalServerError, "Login failed")
		return
	}
	respondJSON(w, http.StatusOK, pair)
}

func decodeLoginRequest(r *http.Request) (*LoginRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		return &LoginRequest{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}, nil
	}

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// RefreshToken exchanges a valid stored refresh token for a new pair.
// POST /api/auth/refresh-token
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	claims, err := h.jwt.ValidateToken(req.RefreshToken, auth.TokenRefresh)
	if err != nil {
		respondDetail(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	ctx := r.Context()
	user, err := h.users.GetUserByUsernameAndRefreshToken(ctx, claims.Subject, req.RefreshToken)
	if err != nil {
		respondDetail(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	pair, err := h.issueTokenPair(ctx, user)
	if err != nil {
		logging.Error().Err(err).Msg("Token rotation failed")
		respondDetail(w, http.StatusInternalServerError, "Token refresh failed")
		return
	}
	respondJSON(w, http.StatusOK, pair)
}

func (h *Handler) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	access, err := h.jwt.GenerateAccessToken(user.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := h.jwt.GenerateRefreshToken(user.Username)
	if err != nil {
		return nil, err
	}
	if err := h.users.UpdateRefreshToken(ctx, user.ID, &refresh); err != nil {
		return nil, err
	}
	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// RequestPasswordReset mails a reset link. It answers identically whether
// or not the email belongs to an account.
// POST /api/auth/request-password-reset
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err == nil {
		token, tokenErr := h.jwt.GeneratePasswordResetToken(user.Username, user.Email)
		if tokenErr != nil {
			logging.Error().Err(tokenErr).Msg("Reset token generation failed")
		} else {
			go h.sendMail(func(ctx context.Context) error {
				return h.mailer.SendPasswordResetEmail(ctx, user.Email, user.Username, token)
			})
		}
	} else if !errors.Is(err, database.ErrNotFound) {
		logging.Error().Err(err).Msg("Password reset lookup failed")
	}

	respondJSON(w, http.StatusOK, messageResponse{
		Message: "If the email is registered, a reset link has been sent.",
	})
}

// ResetPassword sets a new password from a valid reset token and revokes
// the active session.
// POST /api/auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	claims, err := h.jwt.ValidateToken(req.Token, auth.TokenPasswordReset)
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid or expired reset token")
		return
	}

	hashed, err := h.hasher.Hash(req.Password)
	if err != nil {
		logging.Error().Err(err).Msg("Password hashing failed")
		respondDetail(w, http.StatusInternalServerError, "Password reset failed")
		return
	}

	ctx := r.Context()
	if err := h.users.UpdatePassword(ctx, claims.Email, hashed); err != nil {
		respondDetail(w, http.StatusBadRequest, "Password reset failed")
		return
	}

	// Force re-login with the new password.
	if user, err := h.users.GetUserByEmail(ctx, claims.Email); err == nil {
		if err := h.users.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
			logging.Error().Err(err).Msg("Session revocation failed")
		}
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset"})
}
