package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ledgerline/reconcile-backend/internal/infrastructure/config"
)

// SMTP delivers alerts as plain-text email.
type SMTP struct {
	cfg config.SMTPConfig

	// sendMail is swappable for tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP creates an email notifier.
func NewSMTP(cfg config.SMTPConfig) *SMTP {
	return &SMTP{
		cfg:      cfg,
		sendMail: smtp.SendMail,
	}
}

// Send composes and sends one message to all recipients.
func (s *SMTP) Send(ctx context.Context, subject, body string, recipients []string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := s.sendMail(addr, auth, s.cfg.From, recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	return nil
}
