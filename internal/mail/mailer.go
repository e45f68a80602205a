// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

// Package mail delivers account email: the verification link sent after
// registration and the password reset link.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/ykravets/contactd/internal/config"
	"github.com/ykravets/contactd/internal/logging"
)

// Mailer sends account lifecycle email.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, username, token string) error
	SendPasswordResetEmail(ctx context.Context, to, username, token string) error
}

// SMTPMailer implements Mailer over SMTP with optional TLS and auth.
type SMTPMailer struct {
	cfg     *config.MailConfig
	baseURL string
	timeout time.Duration
}

// NewSMTPMailer creates a mailer. baseURL is the public server URL that
// email links point at.
func NewSMTPMailer(cfg *config.MailConfig, baseURL string) *SMTPMailer {
	return &SMTPMailer{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 30 * time.Second,
	}
}

// SendVerificationEmail mails the confirmation link for a new account.
func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, username, token string) error {
	link := fmt.Sprintf("%s/api/auth/confirmed_email/%s", m.baseURL, token)
	msg := buildMessage(m.cfg.From, to, "Confirm your email", verificationBody(username, link))
	return m.send(ctx, to, msg)
}

// SendPasswordResetEmail mails a password reset link.
func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, username, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token)
	msg := buildMessage(m.cfg.From, to, "Reset your password", resetBody(username, link))
	return m.send(ctx, to, msg)
}

func verificationBody(username, link string) string {
	return fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>Thank you for registering. Please confirm your email address by following the link below.</p>
<p><a href=%q>Confirm email</a></p>
<p>The link is valid for 7 days. If you did not register, ignore this message.</p>
</body></html>`, username, link)
}

func resetBody(username, link string) string {
	return fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>A password reset was requested for your account. Follow the link below to choose a new password.</p>
<p><a href=%q>Reset password</a></p>
<p>The link is valid for 15 minutes. If you did not request a reset, ignore this message.</p>
</body></html>`, username, link)
}

// buildMessage constructs the RFC 5322 message with headers.
func buildMessage(from, to, subject, htmlBody string) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: Contactd <%s>\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")
	return msg.String()
}

func (m *SMTPMailer) send(ctx context.Context, to, msg string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if m.cfg.UseTLS {
		conn = tls.Client(conn, &tls.Config{
			ServerName: m.cfg.Host,
			MinVersion: tls.VersionTLS12,
		})
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if m.cfg.UseStartTLS && !m.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: m.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// Quit failures after a delivered message are not send failures.
	_ = client.Quit()
	return nil
}

// NoopMailer logs instead of sending. Used when mail is disabled so
// registration still works in development.
type NoopMailer struct{}

func (NoopMailer) SendVerificationEmail(_ context.Context, to, _, token string) error {
	logging.Info().Str("to", to).Str("token", token).Msg("Mail disabled, verification email not sent")
	return nil
}

func (NoopMailer) SendPasswordResetEmail(_ context.Context, to, _, token string) error {
	logging.Info().Str("to", to).Str("token", token).Msg("Mail disabled, password reset email not sent")
	return nil
}
