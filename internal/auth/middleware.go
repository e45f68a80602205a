// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package auth

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ykravets/contactd/internal/cache"
	"github.com/ykravets/contactd/internal/logging"
	"github.com/ykravets/contactd/internal/models"
)

type contextKey string

const (
	userContextKey   contextKey = "auth_user"
	claimsContextKey contextKey = "auth_claims"
)

// UserLoader resolves the username carried in a token to a stored account.
type UserLoader interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Middleware authenticates requests with Bearer access tokens.
type Middleware struct {
	jwt       *JWTManager
	users     UserLoader
	userCache cache.Store
	userTTL   time.Duration
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(jwt *JWTManager, users UserLoader) *Middleware {
	return &Middleware{jwt: jwt, users: users}
}

// WithUserCache caches verified account lookups keyed by a digest of the
// access token, sparing one query per authenticated request.
func (m *Middleware) WithUserCache(store cache.Store, ttl time.Duration) *Middleware {
	m.userCache = store
	m.userTTL = ttl
	return m
}

// Authenticate validates the Authorization header, loads the account, and
// requires a verified email. The user and claims are placed on the request
// context for handlers downstream.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearerToken(r)
		if tokenString == "" {
			unauthorized(w, "Not authenticated")
			return
		}

		claims, err := m.jwt.ValidateToken(tokenString, TokenAccess)
		if err != nil {
			logging.Debug().Err(err).Msg("Access token rejected")
			unauthorized(w, "Could not validate credentials")
			return
		}

		user, err := m.loadUser(r.Context(), tokenString, claims.Subject)
		if err != nil {
			unauthorized(w, "Could not validate credentials")
			return
		}
		if !user.IsVerified {
			unauthorized(w, "Email not confirmed")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loadUser resolves the token subject, consulting the user cache when one
// is configured. Only verified accounts are cached, so the verification
// check stays a pure read.
func (m *Middleware) loadUser(ctx context.Context, token, username string) (*models.User, error) {
	if m.userCache == nil {
		return m.users.GetUserByUsername(ctx, username)
	}

	key := userCacheKey(token)
	if data, err := m.userCache.Get(ctx, key); err == nil {
		var user models.User
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
	}

	user, err := m.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		if data, err := json.Marshal(user); err == nil {
			if err := m.userCache.Set(ctx, key, data, m.userTTL); err != nil {
				logging.Debug().Err(err).Msg("User cache write failed")
			}
		}
	}
	return user, nil
}

func userCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("auth:user:%x", sum[:16])
}

// RequireAdmin allows only admin accounts past. It must run after
// Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			unauthorized(w, "Not authenticated")
			return
		}
		if !user.IsAdmin() {
			writeDetail(w, http.StatusForbidden, "Access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the authenticated user placed by Authenticate.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}

// ClaimsFromContext returns the access token claims placed by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// ContextWithUser is a test helper for handlers that expect an
// authenticated user on the context.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
