package dto

import (
	"github.com/ledgerline/reconcile-backend/internal/application/reconcile"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// IDResponse acknowledges a created record.
type IDResponse struct {
	ID int64 `json:"id"`
}

// CreateTransactionResponse acknowledges an ingested bank transaction.
// Reconciliation is set when the request asked for auto reconciliation
// and the pipeline ran.
type CreateTransactionResponse struct {
	ID             int64             `json:"id"`
	Reconciliation *reconcile.Result `json:"reconciliation,omitempty"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status string `json:"status"`
}

// CustomerListResponse wraps a customer listing.
type CustomerListResponse struct {
	Customers  []*storage.Customer `json:"customers"`
	TotalCount int                 `json:"total_count"`
}

// InvoiceListResponse wraps an invoice listing.
type InvoiceListResponse struct {
	Invoices   []*storage.Invoice `json:"invoices"`
	TotalCount int                `json:"total_count"`
}

// TransactionListResponse wraps a bank transaction listing.
type TransactionListResponse struct {
	Transactions []*storage.BankTransaction `json:"transactions"`
	TotalCount   int                        `json:"total_count"`
}

// LogListResponse wraps a reconciliation log listing, newest first.
type LogListResponse struct {
	Logs       []*storage.ReconciliationLog `json:"logs"`
	TotalCount int                          `json:"total_count"`
}

// NotificationListResponse wraps a notification history listing, newest first.
type NotificationListResponse struct {
	Notifications []*storage.NotificationLog `json:"notifications"`
	TotalCount    int                        `json:"total_count"`
}
