// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package api

import (
	"net/http"

	"github.com/ykravets/contactd/internal/logging"
)

// Health reports readiness of the database and cache backends.
// GET /api/healthchecker
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Ping(ctx); err != nil {
		logging.Error().Err(err).Msg("Database health check failed")
		respondDetail(w, http.StatusInternalServerError, "Database is unavailable")
		return
	}
	if h.cacheDB != nil {
		if err := h.cacheDB.Ping(ctx); err != nil {
			logging.Error().Err(err).Msg("Cache health check failed")
			respondDetail(w, http.StatusInternalServerError, "Cache is unavailable")
			return
		}
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Welcome to Contactd!"})
}
