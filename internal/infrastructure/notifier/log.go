package notifier

import (
	"context"
	"log/slog"
)

// Log writes alerts to the application log instead of delivering them.
// The default channel for local development.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log-only notifier.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Send logs the alert and always succeeds.
func (l *Log) Send(ctx context.Context, subject, body string, recipients []string) error {
	l.logger.Info("alert (log channel)",
		"subject", subject,
		"recipients", recipients,
		"body", body,
	)
	return nil
}
