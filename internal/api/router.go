// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/ykravets/contactd/internal/auth"
	"github.com/ykravets/contactd/internal/middleware"
)

// loginRateLimit caps credential-guessing attempts per client IP.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
	meRateWindow    = time.Minute
)

// NewRouter assembles the full route tree.
func NewRouter(h *Handler, authMW *auth.Middleware) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(h.cfg.API.RateLimitReqs, h.cfg.API.RateLimitWindow))

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthchecker", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Get("/confirmed_email/{token}", h.ConfirmEmail)
			r.With(httprate.LimitByIP(loginRateLimit, loginRateWindow)).
				Post("/login", h.Login)
			r.Post("/refresh-token", h.RefreshToken)
			r.Post("/request-password-reset", h.RequestPasswordReset)
			r.Post("/reset-password", h.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", h.ListContacts)
				r.Post("/", h.CreateContact)
				r.Get("/get-upcoming-birthday", h.UpcomingBirthdays)
				r.Get("/{id}", h.GetContact)
				r.Put("/{id}", h.UpdateContact)
				r.Delete("/{id}", h.DeleteContact)
			})

			r.Route("/users", func(r chi.Router) {
				r.With(httprate.LimitByIP(h.cfg.API.MeRateLimitReqs, meRateWindow)).
					Get("/me", h.Me)
				r.With(authMW.RequireAdmin).Patch("/avatar", h.UpdateAvatar)
			})
		})
	})

	return r
}
