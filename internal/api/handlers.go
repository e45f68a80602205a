// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package api

import (
	"github.com/ykravets/contactd/internal/auth"
	"github.com/ykravets/contactd/internal/cache"
	"github.com/ykravets/contactd/internal/config"
	"github.com/ykravets/contactd/internal/mail"
)

// Handler carries the dependencies shared by all endpoint handlers.
type Handler struct {
	contacts ContactStore
	users    UserStore
	jwt      *auth.JWTManager
	hasher   *auth.PasswordHasher
	mailer   mail.Mailer
	cache    *cache.ResponseCache
	db       Pinger
	cacheDB  Pinger
	cfg      *config.Config
}

// HandlerDeps bundles the constructor arguments for Handler.
type HandlerDeps struct {
	Contacts ContactStore
	Users    UserStore
	JWT      *auth.JWTManager
	Hasher   *auth.PasswordHasher
	Mailer   mail.Mailer
	Cache    *cache.ResponseCache
	DB       Pinger
	CacheDB  Pinger
	Config   *config.Config
}

// NewHandler creates the handler set.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		contacts: deps.Contacts,
		users:    deps.Users,
		jwt:      deps.JWT,
		hasher:   deps.Hasher,
		mailer:   deps.Mailer,
		cache:    deps.Cache,
		db:       deps.DB,
		cacheDB:  deps.CacheDB,
		cfg:      deps.Config,
	}
}

// clampPagination applies the configured page size bounds. Negative skip
// becomes zero; limit falls back to the default and is capped at the
// maximum.
func (h *Handler) clampPagination(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = h.cfg.API.DefaultPageSize
	}
	if limit > h.cfg.API.MaxPageSize {
		limit = h.cfg.API.MaxPageSize
	}
	return skip, limit
}
