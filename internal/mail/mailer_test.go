// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package mail

import (
	"strings"
	"testing"
)

func TestBuildMessageHeaders(t *testing.T) {
	msg := buildMessage("noreply@contactd.dev", "user@example.com", "Confirm your email", "<p>hi</p>")

	for _, want := range []string{
		"From: Contactd <noreply@contactd.dev>\r\n",
		"To: user@example.com\r\n",
		"Subject: Confirm your email\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n",
		"\r\n\r\n<p>hi</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestVerificationBodyContainsLink(t *testing.T) {
	body := verificationBody("alice", "http://localhost:8000/api/auth/confirmed_email/tok123")
	if !strings.Contains(body, "confirmed_email/tok123") {
		t.Errorf("body missing confirmation link: %s", body)
	}
	if !strings.Contains(body, "alice") {
		t.Errorf("body missing username: %s", body)
	}
}

func TestResetBodyContainsLink(t *testing.T) {
	body := resetBody("alice", "http://localhost:8000/reset-password?token=tok123")
	if !strings.Contains(body, "token=tok123") {
		t.Errorf("body missing reset link: %s", body)
	}
}

func TestMailerLinkShapes(t *testing.T) {
	// Trailing slash on the base URL must not double up in links.
	m := NewSMTPMailer(nil, "http://localhost:8000/")
	if m.baseURL != "http://localhost:8000" {
		t.Errorf("baseURL = %q, want trimmed", m.baseURL)
	}
}
