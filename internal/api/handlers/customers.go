package handlers

import (
	"net/http"
	"strings"

	"github.com/ledgerline/reconcile-backend/internal/api/dto"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// CustomersHandler handles customer-related HTTP requests.
type CustomersHandler struct {
	repo storage.Repository
}

// NewCustomersHandler creates a new customers handler.
func NewCustomersHandler(repo storage.Repository) *CustomersHandler {
	return &CustomersHandler{repo: repo}
}

// Create handles POST /api/customers.
func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCustomerRequest
	if err := DecodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteError(w, http.StatusBadRequest, dto.ValidationError("name is required"))
		return
	}

	id, err := h.repo.CreateCustomer(&storage.Customer{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	WriteJSON(w, http.StatusCreated, dto.IDResponse{ID: id})
}

// List handles GET /api/customers.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.repo.ListCustomers()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	if customers == nil {
		customers = []*storage.Customer{}
	}
	WriteJSON(w, http.StatusOK, dto.CustomerListResponse{
		Customers:  customers,
		TotalCount: len(customers),
	})
}
