// Package mail sends transactional email for verification and invitations.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pemba1s1/Expenso-sub000/internal/config"
	log "github.com/sirupsen/logrus"
)

// Mailer sends a single message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns an SMTP mailer, or a logging no-op when no host is configured.
func New(cfg config.SMTPConfig) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

type smtpMailer struct {
	cfg config.SMTPConfig
}

// Send delivers the message over authenticated SMTP.
func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if ctx != nil {
		if errCtx := ctx.Err(); errCtx != nil {
			return errCtx
		}
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if errSend := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); errSend != nil {
		return fmt.Errorf("mail: send to %s: %w", to, errSend)
	}
	return nil
}

// noopMailer logs instead of sending, for local development.
type noopMailer struct{}

func (noopMailer) Send(_ context.Context, to, subject, _ string) error {
	log.Infof("mail disabled, skipping %q to %s", subject, to)
	return nil
}
