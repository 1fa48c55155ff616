package handlers

import (
	"context"
	"net/http"

	"github.com/ledgerline/reconcile-backend/internal/api/dto"
	"github.com/ledgerline/reconcile-backend/internal/application/notify"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// AlertService triggers the unmatched-transaction alert pipeline.
// Satisfied by *notify.Throttle.
type AlertService interface {
	CheckAndNotify(ctx context.Context) (notify.Outcome, error)
}

// NotificationsHandler serves the notification history and manual triggers.
type NotificationsHandler struct {
	repo   storage.Repository
	alerts AlertService
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(repo storage.Repository, alerts AlertService) *NotificationsHandler {
	return &NotificationsHandler{repo: repo, alerts: alerts}
}

// List handles GET /api/notifications - newest rows first.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 50)

	logs, err := h.repo.ListNotificationLogs(limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	if logs == nil {
		logs = []*storage.NotificationLog{}
	}
	WriteJSON(w, http.StatusOK, dto.NotificationListResponse{
		Notifications: logs,
		TotalCount:    len(logs),
	})
}

// Check handles POST /api/notifications/check - runs the throttled alert
// check on demand and reports the outcome.
func (h *NotificationsHandler) Check(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.alerts.CheckAndNotify(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	WriteJSON(w, http.StatusOK, outcome)
}
