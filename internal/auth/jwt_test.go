// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/ykravets/contactd/internal/config"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:       strings.Repeat("s", 32),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		VerifyTokenTTL:  7 * 24 * time.Hour,
		ResetTokenTTL:   15 * time.Minute,
	}
}

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testAuthConfig())
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManagerEmptySecret(t *testing.T) {
	_, err := NewJWTManager(&config.AuthConfig{})
	if err == nil {
		t.Error("NewJWTManager() error = nil, want error for empty secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)

	tests := []struct {
		name      string
		issue     func() (string, error)
		tokenType string
		wantEmail string
	}{
		{"access", func() (string, error) { return m.GenerateAccessToken("alice") }, TokenAccess, ""},
		{"refresh", func() (string, error) { return m.GenerateRefreshToken("alice") }, TokenRefresh, ""},
		{"email verify", func() (string, error) { return m.GenerateEmailVerifyToken("alice", "a@example.com") }, TokenEmailVerify, "a@example.com"},
		{"password reset", func() (string, error) { return m.GeneratePasswordResetToken("alice", "a@example.com") }, TokenPasswordReset, "a@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.issue()
			if err != nil {
				t.Fatalf("issue error = %v", err)
			}
			claims, err := m.ValidateToken(token, tt.tokenType)
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if claims.Subject != "alice" {
				t.Errorf("Subject = %q, want %q", claims.Subject, "alice")
			}
			if claims.Email != tt.wantEmail {
				t.Errorf("Email = %q, want %q", claims.Email, tt.wantEmail)
			}
		})
	}
}

func TestValidateTokenWrongType(t *testing.T) {
	m := newTestManager(t)

	token, err := m.GenerateAccessToken("alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := m.ValidateToken(token, TokenRefresh); err == nil {
		t.Error("ValidateToken() accepted an access token as refresh, want error")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AccessTokenTTL = -time.Minute
	m, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := m.GenerateAccessToken("alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := m.ValidateToken(token, TokenAccess); err == nil {
		t.Error("ValidateToken() accepted an expired token, want error")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := newTestManager(t)

	otherCfg := testAuthConfig()
	otherCfg.JWTSecret = strings.Repeat("x", 32)
	other, err := NewJWTManager(otherCfg)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := other.GenerateAccessToken("alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := m.ValidateToken(token, TokenAccess); err == nil {
		t.Error("ValidateToken() accepted a token signed with a different secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.ValidateToken("not.a.token", TokenAccess); err == nil {
		t.Error("ValidateToken() accepted garbage input")
	}
}
