// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ykravets/contactd/internal/auth"
	"github.com/ykravets/contactd/internal/cache"
	"github.com/ykravets/contactd/internal/database"
	"github.com/ykravets/contactd/internal/filter"
	"github.com/ykravets/contactd/internal/logging"
	"github.com/ykravets/contactd/internal/models"
	"github.com/ykravets/contactd/internal/validation"
)

const defaultBirthdayDays = 7

// ListContacts returns the authenticated user's contacts, optionally
// narrowed by a query expression and paginated with skip/limit.
// GET /api/contacts
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	query := r.URL.Query().Get("query")
	skip := intQueryParam(r, "skip", 0)
	limit := intQueryParam(r, "limit", 0)
	skip, limit = h.clampPagination(skip, limit)

	req, err := filter.Parse(database.ContactFilter, query)
	if err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	// Admins read across all address books; those reads bypass the
	// per-user cache so owner writes stay the only invalidation path.
	scope := user.ID
	if user.IsAdmin() {
		scope = database.AllUsers
	}

	ctx := r.Context()
	key := cache.ContactListKey(user.ID, skip, limit, query)
	var contacts []models.Contact
	if scope != database.AllUsers && h.cache.GetJSON(ctx, key, &contacts) {
		respondJSON(w, http.StatusOK, contacts)
		return
	}

	contacts, err = h.contacts.ListContacts(ctx, scope, req, skip, limit)
	if err != nil {
		logging.Error().Err(err).Int64("user_id", user.ID).Msg("Contact listing failed")
		respondDetail(w, http.StatusInternalServerError, "Could not list contacts")
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	if scope != database.AllUsers {
		h.cache.SetJSON(ctx, key, contacts, cache.ContactListTTL)
	}
	respondJSON(w, http.StatusOK, contacts)
}

// GetContact returns one of the authenticated user's contacts by id.
// GET /api/contacts/{id}
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := contactID(r)
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid contact id")
		return
	}

	scope := user.ID
	if user.IsAdmin() {
		scope = database.AllUsers
	}

	ctx := r.Context()
	key := cache.ContactItemKey(user.ID, id)
	var contact models.Contact
	if scope != database.AllUsers && h.cache.GetJSON(ctx, key, &contact) {
		respondJSON(w, http.StatusOK, &contact)
		return
	}

	found, err := h.contacts.GetContactByID(ctx, id, scope)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondDetail(w, http.StatusNotFound, "Contact not found")
			return
		}
		logging.Error().Err(err).Int64("contact_id", id).Msg("Contact lookup failed")
		respondDetail(w, http.StatusInternalServerError, "Could not fetch contact")
		return
	}
	if scope != database.AllUsers {
		h.cache.SetJSON(ctx, key, found, cache.ContactItemTTL)
	}
	respondJSON(w, http.StatusOK, found)
}

// CreateContact adds a contact for the authenticated user. A contact
// email must be unique within that user's address book.
// POST /api/contacts
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	contact, err := req.toModel(user.ID)
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	if _, err := h.contacts.GetContactByEmail(ctx, contact.Email, user.ID); err == nil {
		respondDetail(w, http.StatusConflict, "Contact with this email already exists")
		return
	}

	created, err := h.contacts.CreateContact(ctx, contact)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			respondDetail(w, http.StatusConflict, "Contact with this email already exists")
			return
		}
		logging.Error().Err(err).Int64("user_id", user.ID).Msg("Contact creation failed")
		respondDetail(w, http.StatusInternalServerError, "Could not create contact")
		return
	}
	h.cache.InvalidateContacts(ctx, user.ID)
	respondJSON(w, http.StatusCreated, created)
}

// UpdateContact replaces a contact's fields.
// PUT /api/contacts/{id}
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := contactID(r)
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid contact id")
		return
	}

	var req ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	contact, err := req.toModel(user.ID)
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	contact.ID = id

	ctx := r.Context()
	if _, err := h.contacts.GetContactByEmailExcludingID(ctx, contact.Email, id, user.ID); err == nil {
		respondDetail(w, http.StatusConflict, "Contact with this email already exists")
		return
	}

	updated, err := h.contacts.UpdateContact(ctx, contact)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondDetail(w, http.StatusNotFound, "Contact not found")
			return
		}
		if errors.Is(err, database.ErrDuplicateEmail) {
			respondDetail(w, http.StatusConflict, "Contact with this email already exists")
			return
		}
		logging.Error().Err(err).Int64("contact_id", id).Msg("Contact update failed")
		respondDetail(w, http.StatusInternalServerError, "Could not update contact")
		return
	}
	h.cache.InvalidateContacts(ctx, user.ID)
	respondJSON(w, http.StatusOK, updated)
}

// DeleteContact removes a contact and returns the deleted row.
// DELETE /api/contacts/{id}
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := contactID(r)
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid contact id")
		return
	}

	ctx := r.Context()
	deleted, err := h.contacts.DeleteContact(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondDetail(w, http.StatusNotFound, "Contact not found")
			return
		}
		logging.Error().Err(err).Int64("contact_id", id).Msg("Contact deletion failed")
		respondDetail(w, http.StatusInternalServerError, "Could not delete contact")
		return
	}
	h.cache.InvalidateContacts(ctx, user.ID)
	respondJSON(w, http.StatusOK, deleted)
}

// UpcomingBirthdays lists contacts whose birthday falls within the next
// time_range days, year ignored.
// GET /api/contacts/get-upcoming-birthday
func (h *Handler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	days := intQueryParam(r, "time_range", defaultBirthdayDays)
	if days < 1 {
		days = defaultBirthdayDays
	}
	skip := intQueryParam(r, "skip", 0)
	limit := intQueryParam(r, "limit", 0)
	skip, limit = h.clampPagination(skip, limit)

	ctx := r.Context()
	key := cache.BirthdaysKey(user.ID, skip, limit, days)
	var contacts []models.Contact
	if h.cache.GetJSON(ctx, key, &contacts) {
		respondJSON(w, http.StatusOK, contacts)
		return
	}

	contacts, err := h.contacts.UpcomingBirthdays(ctx, user.ID, skip, limit, days)
	if err != nil {
		logging.Error().Err(err).Int64("user_id", user.ID).Msg("Birthday lookup failed")
		respondDetail(w, http.StatusInternalServerError, "Could not list birthdays")
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	h.cache.SetJSON(ctx, key, contacts, cache.BirthdaysTTL)
	respondJSON(w, http.StatusOK, contacts)
}

func contactID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
