package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/reconcile-backend/internal/api/dto"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// InvoicesHandler handles invoice-related HTTP requests.
type InvoicesHandler struct {
	repo storage.Repository
}

// NewInvoicesHandler creates a new invoices handler.
func NewInvoicesHandler(repo storage.Repository) *InvoicesHandler {
	return &InvoicesHandler{repo: repo}
}

// Create handles POST /api/invoices.
func (h *InvoicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInvoiceRequest
	if err := DecodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}
	if req.CustomerID <= 0 {
		WriteError(w, http.StatusBadRequest, dto.ValidationError("customer_id is required"))
		return
	}
	amount, err := decimal.NewFromString(req.AmountDue)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) || amount.Exponent() < -2 {
		WriteError(w, http.StatusBadRequest, dto.ValidationError("amount_due must be a positive decimal with at most two decimal places"))
		return
	}

	id, err := h.repo.CreateInvoice(&storage.Invoice{
		CustomerID:      req.CustomerID,
		AmountDue:       amount,
		Status:          storage.InvoiceStatusUnpaid,
		ReferenceNumber: req.ReferenceNumber,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	WriteJSON(w, http.StatusCreated, dto.IDResponse{ID: id})
}

// Get handles GET /api/invoices/{id}.
func (h *InvoicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid invoice ID"))
		return
	}

	inv, err := h.repo.GetInvoice(id)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(w, http.StatusNotFound, dto.NotFoundError("invoice"))
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	WriteJSON(w, http.StatusOK, inv)
}

// List handles GET /api/invoices with an optional status filter.
func (h *InvoicesHandler) List(w http.ResponseWriter, r *http.Request) {
	var invoices []*storage.Invoice
	var err error

	switch status := r.URL.Query().Get("status"); status {
	case "":
		invoices, err = h.repo.ListInvoices()
	case string(storage.InvoiceStatusUnpaid), string(storage.InvoiceStatusPaid):
		invoices, err = h.repo.ListInvoicesByStatus(storage.InvoiceStatus(status))
	default:
		WriteError(w, http.StatusBadRequest, dto.ValidationError("status must be unpaid or paid"))
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	if invoices == nil {
		invoices = []*storage.Invoice{}
	}
	WriteJSON(w, http.StatusOK, dto.InvoiceListResponse{
		Invoices:   invoices,
		TotalCount: len(invoices),
	})
}
