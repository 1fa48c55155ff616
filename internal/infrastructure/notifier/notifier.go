// Package notifier provides alert delivery channels: webhook, SMTP email,
// and a log-only fallback for local development.
package notifier

import (
	"fmt"
	"log/slog"

	"github.com/ledgerline/reconcile-backend/internal/application/notify"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/config"
)

// New builds the delivery channel selected in config.
func New(cfg config.NotificationsConfig, logger *slog.Logger) (notify.Notifier, error) {
	switch cfg.Channel {
	case "webhook":
		return NewWebhook(cfg.Webhook, logger), nil
	case "smtp":
		return NewSMTP(cfg.SMTP), nil
	case "log":
		return NewLog(logger), nil
	default:
		return nil, fmt.Errorf("unknown notification channel %q", cfg.Channel)
	}
}
