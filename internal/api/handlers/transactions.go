package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/reconcile-backend/internal/api/dto"
	"github.com/ledgerline/reconcile-backend/internal/application/reconcile"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// TransactionsHandler handles bank transaction HTTP requests.
type TransactionsHandler struct {
	repo         storage.Repository
	orchestrator *reconcile.Orchestrator
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo storage.Repository, orchestrator *reconcile.Orchestrator) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, orchestrator: orchestrator}
}

// Create handles POST /api/transactions.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := DecodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		WriteError(w, http.StatusBadRequest, dto.ValidationError("date must be formatted YYYY-MM-DD"))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) || amount.Exponent() < -2 {
		WriteError(w, http.StatusBadRequest, dto.ValidationError("amount must be a positive decimal with at most two decimal places"))
		return
	}

	id, err := h.repo.CreateTransaction(&storage.BankTransaction{
		Date:            date,
		Description:     req.Description,
		Amount:          amount,
		ReferenceNumber: req.ReferenceNumber,
		Status:          storage.TransactionStatusUnmatched,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	resp := dto.CreateTransactionResponse{ID: id}
	if req.AutoReconcile && h.orchestrator != nil {
		result, err := h.orchestrator.ProcessSingle(r.Context(), id)
		if err != nil {
			writeReconcileError(w, err)
			return
		}
		resp.Reconciliation = &result
	}

	WriteJSON(w, http.StatusCreated, resp)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid transaction ID"))
		return
	}

	tx, err := h.repo.GetTransaction(id)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	WriteJSON(w, http.StatusOK, tx)
}

// List handles GET /api/transactions with an optional status filter.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	var transactions []*storage.BankTransaction
	var err error

	switch status := r.URL.Query().Get("status"); status {
	case "":
		transactions, err = h.repo.ListTransactions()
	case string(storage.TransactionStatusUnmatched), string(storage.TransactionStatusMatched):
		transactions, err = h.repo.ListTransactionsByStatus(storage.TransactionStatus(status))
	default:
		WriteError(w, http.StatusBadRequest, dto.ValidationError("status must be unmatched or matched"))
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	if transactions == nil {
		transactions = []*storage.BankTransaction{}
	}
	WriteJSON(w, http.StatusOK, dto.TransactionListResponse{
		Transactions: transactions,
		TotalCount:   len(transactions),
	})
}
