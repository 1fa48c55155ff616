package handlers

import (
	"errors"
	"net/http"

	"github.com/ledgerline/reconcile-backend/internal/api/dto"
	"github.com/ledgerline/reconcile-backend/internal/application/reconcile"
	"github.com/ledgerline/reconcile-backend/internal/domain/matching"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// ReconcileHandler exposes the reconciliation operations.
type ReconcileHandler struct {
	orchestrator *reconcile.Orchestrator
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(orchestrator *reconcile.Orchestrator) *ReconcileHandler {
	return &ReconcileHandler{orchestrator: orchestrator}
}

// writeReconcileError maps orchestrator errors onto API error responses.
func writeReconcileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		WriteError(w, http.StatusNotFound, dto.NotFoundError("record"))
	case errors.Is(err, reconcile.ErrAlreadyMatched):
		WriteError(w, http.StatusConflict, dto.ConflictError("transaction is already matched"))
	case errors.Is(err, reconcile.ErrInvoicePaid):
		WriteError(w, http.StatusConflict, dto.ConflictError("invoice is already paid"))
	case errors.Is(err, matching.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, dto.ValidationError("transaction cannot be matched: "+err.Error()))
	default:
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// Process handles POST /api/reconcile/transactions/{id}.
func (h *ReconcileHandler) Process(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid transaction ID"))
		return
	}

	result, err := h.orchestrator.ProcessSingle(r.Context(), id)
	if err != nil {
		writeReconcileError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Bulk handles POST /api/reconcile. An empty body reconciles every
// unmatched transaction.
func (h *ReconcileHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkReconcileRequest
	if r.ContentLength > 0 {
		if err := DecodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
			return
		}
	}

	summary, err := h.orchestrator.Bulk(r.Context(), req.TransactionIDs)
	if err != nil {
		writeReconcileError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, summary)
}

// Reprocess handles POST /api/reconcile/transactions/{id}/reprocess.
func (h *ReconcileHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid transaction ID"))
		return
	}

	result, err := h.orchestrator.Reprocess(r.Context(), id)
	if err != nil {
		writeReconcileError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// ManualMatch handles POST /api/reconcile/manual.
func (h *ReconcileHandler) ManualMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.ManualMatchRequest
	if err := DecodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}
	if req.TransactionID <= 0 || req.InvoiceID <= 0 {
		WriteError(w, http.StatusBadRequest, dto.ValidationError("transaction_id and invoice_id are required"))
		return
	}

	result, err := h.orchestrator.ManualMatch(r.Context(), req.TransactionID, req.InvoiceID)
	if err != nil {
		writeReconcileError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Stats handles GET /api/reconcile/stats.
func (h *ReconcileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orchestrator.Stats(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}
