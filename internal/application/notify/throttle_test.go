package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

type mockNotifier struct {
	calls      int
	subject    string
	body       string
	recipients []string
	err        error
}

func (m *mockNotifier) Send(ctx context.Context, subject, body string, recipients []string) error {
	m.calls++
	m.subject = subject
	m.body = body
	m.recipients = recipients
	return m.err
}

var fixedNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func testSettings() Settings {
	s := DefaultSettings()
	s.Recipients = []string{"ops@example.com"}
	return s
}

func addUnmatched(repo *storage.MockRepository, n int) {
	for i := 0; i < n; i++ {
		repo.AddTransaction("10.00", fmt.Sprintf("deposit %d", i), "")
	}
}

func TestSendUnmatchedNotification_Disabled(t *testing.T) {
	repo := storage.NewMockRepository()
	notifier := &mockNotifier{}
	settings := testSettings()
	settings.Enabled = false
	throttle := NewThrottle(repo, notifier, settings, nil)

	outcome, err := throttle.SendUnmatchedNotification(context.Background())

	require.NoError(t, err)
	assert.False(t, outcome.Sent)
	assert.Equal(t, "notifications disabled", outcome.Reason)
	assert.Zero(t, notifier.calls)
	assert.Zero(t, repo.AppendNotificationCalls)
}

func TestSendUnmatchedNotification_BelowThreshold(t *testing.T) {
	repo := storage.NewMockRepository()
	addUnmatched(repo, 4)
	notifier := &mockNotifier{}
	throttle := NewThrottle(repo, notifier, testSettings(), nil)

	outcome, err := throttle.SendUnmatchedNotification(context.Background())

	require.NoError(t, err)
	assert.False(t, outcome.Sent)
	assert.Equal(t, "below threshold", outcome.Reason)
	assert.Zero(t, notifier.calls)
}

func TestSendUnmatchedNotification_NoRecipients(t *testing.T) {
	repo := storage.NewMockRepository()
	addUnmatched(repo, 5)
	notifier := &mockNotifier{}
	settings := testSettings()
	settings.Recipients = nil
	throttle := NewThrottle(repo, notifier, settings, nil)

	outcome, err := throttle.SendUnmatchedNotification(context.Background())

	require.NoError(t, err)
	assert.False(t, outcome.Sent)
	assert.Equal(t, "no recipients", outcome.Reason)
	assert.Zero(t, notifier.calls)
}

func TestSendUnmatchedNotification_Success(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	addUnmatched(repo, 5)
	notifier := &mockNotifier{}
	throttle := NewThrottle(repo, notifier, testSettings(), nil).
		WithClock(func() time.Time { return fixedNow })

	// Act
	outcome, err := throttle.SendUnmatchedNotification(context.Background())

	// Assert
	require.NoError(t, err)
	assert.True(t, outcome.Sent)
	assert.NotZero(t, outcome.LogID)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "5 unmatched bank transactions need review", notifier.subject)
	assert.Contains(t, notifier.body, "Unmatched bank transactions: 5 of 5 total")
	assert.Contains(t, notifier.body, "Total unmatched amount: 50.00")

	require.NotNil(t, repo.LastNotificationLog)
	assert.True(t, repo.LastNotificationLog.Success)
	assert.Equal(t, storage.NotificationTypeUnmatched, repo.LastNotificationLog.NotificationType)
	assert.Equal(t, 5, repo.LastNotificationLog.UnmatchedCount)
	assert.Equal(t, fixedNow, repo.LastNotificationLog.Timestamp)
}

func TestSendUnmatchedNotification_BodyCapsDetails(t *testing.T) {
	repo := storage.NewMockRepository()
	addUnmatched(repo, 7)
	notifier := &mockNotifier{}
	throttle := NewThrottle(repo, notifier, testSettings(), nil)

	_, err := throttle.SendUnmatchedNotification(context.Background())

	require.NoError(t, err)
	assert.Contains(t, notifier.body, "... and 2 more")
}

func TestSendUnmatchedNotification_DeliveryFailureLogged(t *testing.T) {
	repo := storage.NewMockRepository()
	addUnmatched(repo, 5)
	notifier := &mockNotifier{err: errors.New("smtp timeout")}
	throttle := NewThrottle(repo, notifier, testSettings(), nil)

	outcome, err := throttle.SendUnmatchedNotification(context.Background())

	// A delivery failure never propagates as an error.
	require.NoError(t, err)
	assert.False(t, outcome.Sent)
	assert.Contains(t, outcome.Reason, "delivery failed")

	require.NotNil(t, repo.LastNotificationLog)
	assert.False(t, repo.LastNotificationLog.Success)
	assert.Equal(t, "smtp timeout", repo.LastNotificationLog.ErrorMessage)
}

func TestCheckAndNotify_ThrottledInsideWindow(t *testing.T) {
	repo := storage.NewMockRepository()
	addUnmatched(repo, 5)
	_, err := repo.AppendNotificationLog(&storage.NotificationLog{
		NotificationType: storage.NotificationTypeUnmatched,
		Success:          true,
		Timestamp:        fixedNow.Add(-30 * time.Minute),
	})
	require.NoError(t, err)
	notifier := &mockNotifier{}
	throttle := NewThrottle(repo, notifier, testSettings(), nil).
		WithClock(func() time.Time { return fixedNow })

	outcome, err := throttle.CheckAndNotify(context.Background())

	require.NoError(t, err)
	assert.False(t, outcome.Sent)
	assert.Equal(t, "throttled", outcome.Reason)
	assert.Zero(t, notifier.calls)
}

func TestCheckAndNotify_SendsAfterWindowElapsed(t *testing.T) {
	repo := storage.NewMockRepository()
	addUnmatched(repo, 5)
	_, err := repo.AppendNotificationLog(&storage.NotificationLog{
		NotificationType: storage.NotificationTypeUnmatched,
		Success:          true,
		Timestamp:        fixedNow.Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	notifier := &mockNotifier{}
	throttle := NewThrottle(repo, notifier, testSettings(), nil).
		WithClock(func() time.Time { return fixedNow })

	outcome, err := throttle.CheckAndNotify(context.Background())

	require.NoError(t, err)
	assert.True(t, outcome.Sent)
	assert.Equal(t, 1, notifier.calls)
}

func TestCheckAndNotify_FailedAttemptsDoNotThrottle(t *testing.T) {
	repo := storage.NewMockRepository()
	addUnmatched(repo, 5)
	// Only successful notifications start the throttle window.
	_, err := repo.AppendNotificationLog(&storage.NotificationLog{
		NotificationType: storage.NotificationTypeUnmatched,
		Success:          false,
		Timestamp:        fixedNow.Add(-5 * time.Minute),
	})
	require.NoError(t, err)
	notifier := &mockNotifier{}
	throttle := NewThrottle(repo, notifier, testSettings(), nil).
		WithClock(func() time.Time { return fixedNow })

	outcome, err := throttle.CheckAndNotify(context.Background())

	require.NoError(t, err)
	assert.True(t, outcome.Sent)
}

func TestCheckAndNotify_NoHistorySends(t *testing.T) {
	repo := storage.NewMockRepository()
	addUnmatched(repo, 5)
	notifier := &mockNotifier{}
	throttle := NewThrottle(repo, notifier, testSettings(), nil)

	outcome, err := throttle.CheckAndNotify(context.Background())

	require.NoError(t, err)
	assert.True(t, outcome.Sent)
}

func TestSendUnmatchedNotification_ListError(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.ListTransactionsErr = errors.New("disk gone")
	throttle := NewThrottle(repo, &mockNotifier{}, testSettings(), nil)

	_, err := throttle.SendUnmatchedNotification(context.Background())

	assert.Error(t, err)
}
