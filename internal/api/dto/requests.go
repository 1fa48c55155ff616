package dto

// CreateCustomerRequest is the body for POST /api/customers.
type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateInvoiceRequest is the body for POST /api/invoices.
// AmountDue is a decimal string, e.g. "1500.00".
type CreateInvoiceRequest struct {
	CustomerID      int64  `json:"customer_id"`
	AmountDue       string `json:"amount_due"`
	ReferenceNumber string `json:"reference_number"`
}

// CreateTransactionRequest is the body for POST /api/transactions.
// Date is formatted as 2006-01-02; Amount is a decimal string.
// AutoReconcile runs the matching pipeline on the new transaction
// immediately after it is stored.
type CreateTransactionRequest struct {
	Date            string `json:"date"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	ReferenceNumber string `json:"reference_number"`
	AutoReconcile   bool   `json:"auto_reconcile"`
}

// BulkReconcileRequest is the body for POST /api/reconcile.
// An empty or missing transaction ID list reconciles every unmatched
// transaction.
type BulkReconcileRequest struct {
	TransactionIDs []int64 `json:"transaction_ids"`
}

// ManualMatchRequest is the body for POST /api/reconcile/manual.
type ManualMatchRequest struct {
	TransactionID int64 `json:"transaction_id"`
	InvoiceID     int64 `json:"invoice_id"`
}
