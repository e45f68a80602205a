// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package api

import (
	"net/http"

	"github.com/ykravets/contactd/internal/auth"
	"github.com/ykravets/contactd/internal/logging"
	"github.com/ykravets/contactd/internal/validation"
)

// Me returns the authenticated user's profile.
// GET /api/users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateAvatar replaces the authenticated user's avatar URL.
// PATCH /api/users/avatar
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req AvatarRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := h.users.UpdateAvatar(r.Context(), user.Email, req.AvatarURL)
	if err != nil {
		logging.Error().Err(err).Int64("user_id", user.ID).Msg("Avatar update failed")
		respondDetail(w, http.StatusInternalServerError, "Avatar update failed")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
