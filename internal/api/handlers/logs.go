package handlers

import (
	"net/http"

	"github.com/ledgerline/reconcile-backend/internal/api/dto"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// LogsHandler serves the reconciliation audit trail.
type LogsHandler struct {
	repo storage.Repository
}

// NewLogsHandler creates a new logs handler.
func NewLogsHandler(repo storage.Repository) *LogsHandler {
	return &LogsHandler{repo: repo}
}

// List handles GET /api/logs - newest rows first.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 50)

	logs, err := h.repo.ListLogs(limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	if logs == nil {
		logs = []*storage.ReconciliationLog{}
	}
	WriteJSON(w, http.StatusOK, dto.LogListResponse{
		Logs:       logs,
		TotalCount: len(logs),
	})
}
