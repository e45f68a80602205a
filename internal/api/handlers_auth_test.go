// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ykravets/contactd/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var created models.User
	decodeBody(t, rec, &created)
	if created.Username != "alice" || created.Email != "alice@example.com" {
		t.Errorf("created user = %+v", created)
	}
	if created.IsVerified {
		t.Error("new user must not be verified")
	}
	if created.Avatar == nil || !strings.HasPrefix(*created.Avatar, "https://www.gravatar.com/avatar/") {
		t.Errorf("avatar = %v, want gravatar URL", created.Avatar)
	}

	stored, err := env.users.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("stored user missing: %v", err)
	}
	if stored.HashedPassword == "correct horse" {
		t.Error("password stored in plain text")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)

	rec := doRequest(t, env.router, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	assertDetail(t, rec, http.StatusConflict, "User with this email already exists")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)

	rec := doRequest(t, env.router, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "correct horse",
	})
	assertDetail(t, rec, http.StatusConflict, "User with this username already exists")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Username: "ab",
		Email:    "not-an-email",
		Password: "short",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)

	rec := doRequest(t, env.router, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Username: "alice",
		Password: "correct horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var pair models.TokenPair
	decodeBody(t, rec, &pair)
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("token pair incomplete")
	}
	if pair.TokenType != "bearer" {
		t.Errorf("token_type = %q, want %q", pair.TokenType, "bearer")
	}

	stored := env.users.byID[user.ID]
	if stored.RefreshToken == nil || *stored.RefreshToken != pair.RefreshToken {
		t.Error("refresh token not persisted")
	}
}

func TestLoginForm(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)

	form := url.Values{"username": {"alice"}, "password": {"correct horse"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var pair models.TokenPair
	decodeBody(t, rec, &pair)
	if pair.AccessToken == "" {
		t.Error("access token missing")
	}
}

func TestLoginRejections(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)
	env.addUser(t, "bob", "bob@example.com", "correct horse", false, models.RoleUser)

	tests := []struct {
		name       string
		req        LoginRequest
		wantDetail string
	}{
		{"wrong password", LoginRequest{Username: "alice", Password: "guess"}, "User or password is incorrect"},
		{"unknown user", LoginRequest{Username: "mallory", Password: "correct horse"}, "User or password is incorrect"},
		{"unverified email", LoginRequest{Username: "bob", Password: "correct horse"}, "Email not confirmed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, env.router, http.MethodPost, "/api/auth/login", "", tt.req)
			assertDetail(t, rec, http.StatusUnauthorized, tt.wantDetail)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)

	refresh, err := env.jwt.GenerateRefreshToken("alice")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	env.users.byID[user.ID].RefreshToken = &refresh

	rec := doRequest(t, env.router, http.MethodPost, "/api/auth/refresh-token", "", RefreshRequest{
		RefreshToken: refresh,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var pair models.TokenPair
	decodeBody(t, rec, &pair)
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("token pair incomplete")
	}

	stored := env.users.byID[user.ID]
	if stored.RefreshToken == nil || *stored.RefreshToken != pair.RefreshToken {
		t.Error("rotated refresh token not persisted")
	}
}

func TestRefreshTokenRejections(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)

	orphan, err := env.jwt.GenerateRefreshToken("alice")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	access, err := env.jwt.GenerateAccessToken("alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage token", "not-a-token"},
		{"access token kind", access},
		{"token not stored", orphan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, env.router, http.MethodPost, "/api/auth/refresh-token", "", RefreshRequest{
				RefreshToken: tt.token,
			})
			assertDetail(t, rec, http.StatusUnauthorized, "Invalid or expired refresh token")
		})
	}
}

func TestConfirmEmail(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice", "alice@example.com", "correct horse", false, models.RoleUser)

	token, err := env.jwt.GenerateEmailVerifyToken("alice", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateEmailVerifyToken: %v", err)
	}

	rec := doRequest(t, env.router, http.MethodGet, "/api/auth/confirmed_email/"+token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body messageResponse
	decodeBody(t, rec, &body)
	if body.Message != "Email verified successfully" {
		t.Errorf("message = %q", body.Message)
	}
	if !env.users.byID[user.ID].IsVerified {
		t.Error("user still unverified")
	}

	rec = doRequest(t, env.router, http.MethodGet, "/api/auth/confirmed_email/"+token, "", nil)
	decodeBody(t, rec, &body)
	if body.Message != "Your email has already been confirmed." {
		t.Errorf("repeat message = %q", body.Message)
	}
}

func TestConfirmEmailInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	access, err := env.jwt.GenerateAccessToken("alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	for _, token := range []string{"bogus", access} {
		rec := doRequest(t, env.router, http.MethodGet, "/api/auth/confirmed_email/"+token, "", nil)
		assertDetail(t, rec, http.StatusUnprocessableEntity, "Invalid verification token")
	}
}

func TestRequestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)

	// The response must not reveal whether the email is registered.
	for _, email := range []string{"alice@example.com", "nobody@example.com"} {
		rec := doRequest(t, env.router, http.MethodPost, "/api/auth/request-password-reset", "", PasswordResetRequest{
			Email: email,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status for %q = %d, want %d", email, rec.Code, http.StatusOK)
		}
		var body messageResponse
		decodeBody(t, rec, &body)
		if body.Message != "If the email is registered, a reset link has been sent." {
			t.Errorf("message = %q", body.Message)
		}
	}
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)
	oldHash := user.HashedPassword
	session := "stored-refresh"
	env.users.byID[user.ID].RefreshToken = &session

	token, err := env.jwt.GeneratePasswordResetToken("alice", "alice@example.com")
	if err != nil {
		t.Fatalf("GeneratePasswordResetToken: %v", err)
	}

	rec := doRequest(t, env.router, http.MethodPost, "/api/auth/reset-password", "", ResetPasswordRequest{
		Token:    token,
		Password: "brand new secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
	}

	stored := env.users.byID[user.ID]
	if stored.HashedPassword == oldHash {
		t.Error("password unchanged")
	}
	if !env.hasher.Verify(stored.HashedPassword, "brand new secret") {
		t.Error("new password does not verify")
	}
	if stored.RefreshToken != nil {
		t.Error("refresh token not revoked")
	}
}

func TestResetPasswordInvalidToken(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)

	rec := doRequest(t, env.router, http.MethodPost, "/api/auth/reset-password", "", ResetPasswordRequest{
		Token:    "bogus",
		Password: "brand new secret",
	})
	assertDetail(t, rec, http.StatusUnprocessableEntity, "Invalid or expired reset token")
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)

	rec := doRequest(t, env.router, http.MethodGet, "/api/users/me", env.bearer(t, "alice"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got models.User
	decodeBody(t, rec, &got)
	if got.ID != user.ID || got.Username != "alice" {
		t.Errorf("user = %+v", got)
	}
	if got.HashedPassword != "" {
		t.Error("hashed password leaked in response")
	}
}

func TestMeUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodGet, "/api/users/me", "", nil)
	assertDetail(t, rec, http.StatusUnauthorized, "Not authenticated")
}

func TestMeUnverifiedUser(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "correct horse", false, models.RoleUser)

	rec := doRequest(t, env.router, http.MethodGet, "/api/users/me", env.bearer(t, "alice"), nil)
	assertDetail(t, rec, http.StatusUnauthorized, "Email not confirmed")
}

func TestUpdateAvatar(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "root", "root@example.com", "correct horse", true, models.RoleAdmin)

	rec := doRequest(t, env.router, http.MethodPatch, "/api/users/avatar", env.bearer(t, "root"), AvatarRequest{
		AvatarURL: "https://cdn.example.com/root.png",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
	}
	stored := env.users.byID[admin.ID]
	if stored.Avatar == nil || *stored.Avatar != "https://cdn.example.com/root.png" {
		t.Error("avatar not persisted")
	}
}

func TestUpdateAvatarForbiddenForUserRole(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "correct horse", true, models.RoleUser)

	rec := doRequest(t, env.router, http.MethodPatch, "/api/users/avatar", env.bearer(t, "alice"), AvatarRequest{
		AvatarURL: "https://cdn.example.com/alice.png",
	})
	assertDetail(t, rec, http.StatusForbidden, "Access denied")
}
