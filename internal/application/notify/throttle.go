// Package notify decides when unmatched-transaction alerts fire and records
// every attempt in the notification history. Actual delivery is delegated
// to a Notifier collaborator.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// Notifier delivers a composed alert to the given recipients.
type Notifier interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

// Settings are the read-only configuration inputs for alerting, passed in
// explicitly rather than read from ambient process state.
type Settings struct {
	Enabled            bool
	UnmatchedThreshold int
	Recipients         []string
	ThrottleWindow     time.Duration
}

// DefaultSettings returns the standard alerting configuration.
func DefaultSettings() Settings {
	return Settings{
		Enabled:            true,
		UnmatchedThreshold: 5,
		ThrottleWindow:     time.Hour,
	}
}

// Outcome reports what a notification attempt did and why.
type Outcome struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
	LogID  int64  `json:"log_id,omitempty"`
}

// Throttle gates unmatched-transaction alerts: at most one successful alert
// per throttle window, and only once the unmatched count crosses the
// configured threshold.
type Throttle struct {
	repo     storage.Repository
	notifier Notifier
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewThrottle creates a throttle with the given collaborators.
func NewThrottle(repo storage.Repository, notifier Notifier, settings Settings, logger *slog.Logger) *Throttle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Throttle{
		repo:     repo,
		notifier: notifier,
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Intended for tests.
func (t *Throttle) WithClock(now func() time.Time) *Throttle {
	t.now = now
	return t
}

// CheckAndNotify sends an unmatched-transaction alert unless a successful
// one already went out within the throttle window.
func (t *Throttle) CheckAndNotify(ctx context.Context) (Outcome, error) {
	last, err := t.repo.LatestSuccessfulNotification(storage.NotificationTypeUnmatched)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Outcome{}, fmt.Errorf("failed to read notification history: %w", err)
	}
	if err == nil && t.now().Sub(last.Timestamp) < t.settings.ThrottleWindow {
		t.logger.Debug("alert throttled",
			"last_sent", last.Timestamp,
			"window", t.settings.ThrottleWindow,
		)
		return Outcome{Sent: false, Reason: "throttled"}, nil
	}

	return t.SendUnmatchedNotification(ctx)
}

// SendUnmatchedNotification composes and delivers the alert if configuration
// and the current unmatched count allow it. A delivery failure is captured
// in the notification log and never propagates as an error.
func (t *Throttle) SendUnmatchedNotification(ctx context.Context) (Outcome, error) {
	if !t.settings.Enabled {
		return Outcome{Sent: false, Reason: "notifications disabled"}, nil
	}

	unmatched, err := t.repo.ListTransactionsByStatus(storage.TransactionStatusUnmatched)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to list unmatched transactions: %w", err)
	}
	if len(unmatched) < t.settings.UnmatchedThreshold {
		return Outcome{Sent: false, Reason: "below threshold"}, nil
	}

	if len(t.settings.Recipients) == 0 {
		t.logger.Warn("unmatched transactions over threshold but no alert recipients configured",
			"unmatched_count", len(unmatched),
		)
		return Outcome{Sent: false, Reason: "no recipients"}, nil
	}

	total, err := t.repo.CountTransactions()
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to count transactions: %w", err)
	}
	totalAmount, err := t.repo.TotalAmountByStatus(storage.TransactionStatusUnmatched)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to total unmatched amounts: %w", err)
	}

	subject := fmt.Sprintf("%d unmatched bank transactions need review", len(unmatched))
	body := composeBody(unmatched, total, totalAmount.StringFixed(2))

	sendErr := t.notifier.Send(ctx, subject, body, t.settings.Recipients)

	entry := &storage.NotificationLog{
		NotificationType:  storage.NotificationTypeUnmatched,
		Recipients:        t.settings.Recipients,
		UnmatchedCount:    len(unmatched),
		TotalTransactions: total,
		Timestamp:         t.now(),
		Success:           sendErr == nil,
	}
	if sendErr != nil {
		entry.ErrorMessage = sendErr.Error()
	}

	logID, logErr := t.repo.AppendNotificationLog(entry)
	if logErr != nil {
		t.logger.Error("failed to append notification log", "error", logErr)
	}

	if sendErr != nil {
		t.logger.Error("alert delivery failed",
			"recipients", len(t.settings.Recipients),
			"error", sendErr,
		)
		return Outcome{Sent: false, Reason: "delivery failed: " + sendErr.Error(), LogID: logID}, nil
	}

	t.logger.Info("unmatched-transaction alert sent",
		"unmatched_count", len(unmatched),
		"recipients", len(t.settings.Recipients),
	)
	return Outcome{Sent: true, LogID: logID}, nil
}

// maxDetailLines caps how many transactions the alert body itemizes.
const maxDetailLines = 5

func composeBody(unmatched []*storage.BankTransaction, total int, totalAmount string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unmatched bank transactions: %d of %d total\n", len(unmatched), total)
	fmt.Fprintf(&b, "Total unmatched amount: %s\n\n", totalAmount)

	limit := len(unmatched)
	if limit > maxDetailLines {
		limit = maxDetailLines
	}
	for _, tx := range unmatched[:limit] {
		fmt.Fprintf(&b, "- #%d %s %s %q ref=%s\n",
			tx.ID,
			tx.Date.Format("2006-01-02"),
			tx.Amount.StringFixed(2),
			tx.Description,
			tx.ReferenceNumber,
		)
	}
	if len(unmatched) > limit {
		fmt.Fprintf(&b, "... and %d more\n", len(unmatched)-limit)
	}
	return b.String()
}
