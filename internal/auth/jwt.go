// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ykravets/contactd/internal/config"
)

// Token kinds carried in the token_type claim. Every issued token names
// its purpose so an access token can never be replayed as a refresh grant
// or an email link.
const (
	TokenAccess        = "access"
	TokenRefresh       = "refresh"
	TokenEmailVerify   = "email_verify"
	TokenPasswordReset = "password_reset"
)

// Claims represents the JWT payload for all token kinds. Subject holds the
// username; Email is set on email-verify and password-reset tokens.
type Claims struct {
	TokenType string `json:"token_type"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager creates and validates the application's JWT tokens.
// It uses HMAC-SHA256 signing; the secret length is enforced by config
// validation.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	verifyTTL  time.Duration
	resetTTL   time.Duration
}

// NewJWTManager creates a token manager from the auth configuration.
func NewJWTManager(cfg *config.AuthConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required but was empty")
	}
	return &JWTManager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		verifyTTL:  cfg.VerifyTokenTTL,
		resetTTL:   cfg.ResetTokenTTL,
	}, nil
}

func (m *JWTManager) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *JWTManager) issue(tokenType, username, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	return m.sign(&Claims{
		TokenType: tokenType,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	})
}

// GenerateAccessToken issues a short-lived token authorizing API requests.
func (m *JWTManager) GenerateAccessToken(username string) (string, error) {
	return m.issue(TokenAccess, username, "", m.accessTTL)
}

// GenerateRefreshToken issues a long-lived token exchangeable for a new
// token pair. The caller stores it on the user row so it can be revoked.
func (m *JWTManager) GenerateRefreshToken(username string) (string, error) {
	return m.issue(TokenRefresh, username, "", m.refreshTTL)
}

// GenerateEmailVerifyToken issues the token embedded in the confirmation
// link sent after registration.
func (m *JWTManager) GenerateEmailVerifyToken(username, email string) (string, error) {
	return m.issue(TokenEmailVerify, username, email, m.verifyTTL)
}

// GeneratePasswordResetToken issues the short-lived token embedded in a
// password reset link.
func (m *JWTManager) GeneratePasswordResetToken(username, email string) (string, error) {
	return m.issue(TokenPasswordReset, username, email, m.resetTTL)
}

// ValidateToken verifies signature, expiry, and that the token carries the
// expected token_type. A valid token of the wrong kind is rejected.
func (m *JWTManager) ValidateToken(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("unexpected token type %q, want %q", claims.TokenType, wantType)
	}
	return claims, nil
}
