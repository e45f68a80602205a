// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ykravets/contactd/internal/cache"
	"github.com/ykravets/contactd/internal/models"
)

type stubUserLoader struct {
	users map[string]*models.User
	calls int
}

func (s *stubUserLoader) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.calls++
	user, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return user, nil
}

func newTestMiddleware(t *testing.T, users ...*models.User) (*Middleware, *JWTManager) {
	t.Helper()
	m := newTestManager(t)
	loader := &stubUserLoader{users: map[string]*models.User{}}
	for _, u := range users {
		loader.users[u.Username] = u
	}
	return NewMiddleware(m, loader), m
}

func okHandler(called *bool, gotUser **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if u, ok := UserFromContext(r.Context()); ok {
			*gotUser = u
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateSuccess(t *testing.T) {
	user := &models.User{ID: 1, Username: "alice", IsVerified: true, Role: models.RoleUser}
	mw, jwt := newTestMiddleware(t, user)

	token, err := jwt.GenerateAccessToken("alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	var called bool
	var gotUser *models.User
	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.Authenticate(okHandler(&called, &gotUser)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !called {
		t.Fatal("next handler was not called")
	}
	if gotUser == nil || gotUser.ID != 1 {
		t.Errorf("context user = %+v, want id 1", gotUser)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	verified := &models.User{ID: 1, Username: "alice", IsVerified: true, Role: models.RoleUser}
	unverified := &models.User{ID: 2, Username: "bob", IsVerified: false, Role: models.RoleUser}
	mw, jwt := newTestMiddleware(t, verified, unverified)

	refreshToken, err := jwt.GenerateRefreshToken("alice")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	bobToken, err := jwt.GenerateAccessToken("bob")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	ghostToken, err := jwt.GenerateAccessToken("ghost")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantDetail string
	}{
		{"missing header", "", "Not authenticated"},
		{"not bearer", "Basic abc", "Not authenticated"},
		{"garbage token", "Bearer garbage", "Could not validate credentials"},
		{"refresh token as access", "Bearer " + refreshToken, "Could not validate credentials"},
		{"unknown user", "Bearer " + ghostToken, "Could not validate credentials"},
		{"unverified email", "Bearer " + bobToken, "Email not confirmed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var gotUser *models.User
			req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			mw.Authenticate(okHandler(&called, &gotUser)).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("next handler was called")
			}
			if !strings.Contains(rec.Body.String(), tt.wantDetail) {
				t.Errorf("body = %q, want detail %q", rec.Body.String(), tt.wantDetail)
			}
		})
	}
}

func TestAuthenticateUserCache(t *testing.T) {
	verified := &models.User{ID: 1, Username: "alice", IsVerified: true, Role: models.RoleUser}
	unverified := &models.User{ID: 2, Username: "bob", IsVerified: false, Role: models.RoleUser}
	jwt := newTestManager(t)
	loader := &stubUserLoader{users: map[string]*models.User{
		"alice": verified,
		"bob":   unverified,
	}}
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	mw := NewMiddleware(jwt, loader).WithUserCache(store, time.Minute)

	aliceToken, err := jwt.GenerateAccessToken("alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	serve := func(token string) *httptest.ResponseRecorder {
		var called bool
		var gotUser *models.User
		req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mw.Authenticate(okHandler(&called, &gotUser)).ServeHTTP(rec, req)
		return rec
	}

	serve(aliceToken)
	if rec := serve(aliceToken); rec.Code != http.StatusOK {
		t.Fatalf("cached request status = %d, want 200", rec.Code)
	}
	if loader.calls != 1 {
		t.Errorf("loader queried %d times, want 1", loader.calls)
	}

	// Unverified accounts are never cached.
	bobToken, err := jwt.GenerateAccessToken("bob")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	serve(bobToken)
	serve(bobToken)
	if loader.calls != 3 {
		t.Errorf("loader queried %d times, want 3", loader.calls)
	}
}

func TestRequireAdmin(t *testing.T) {
	mw, _ := newTestMiddleware(t)

	tests := []struct {
		name       string
		user       *models.User
		wantStatus int
	}{
		{"admin allowed", &models.User{Username: "root", Role: models.RoleAdmin}, http.StatusOK},
		{"user forbidden", &models.User{Username: "alice", Role: models.RoleUser}, http.StatusForbidden},
		{"no user", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var gotUser *models.User
			req := httptest.NewRequest(http.MethodPatch, "/api/users/avatar", nil)
			if tt.user != nil {
				req = req.WithContext(ContextWithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()

			mw.RequireAdmin(okHandler(&called, &gotUser)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
