package reconcile

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors for state conflicts the API layer maps to client errors.
var (
	// ErrAlreadyMatched is returned when a match is attempted on a
	// transaction that is already matched. Use Reprocess instead.
	ErrAlreadyMatched = errors.New("transaction is already matched")

	// ErrInvoicePaid is returned when a manual match targets an invoice
	// that is no longer unpaid.
	ErrInvoicePaid = errors.New("invoice is already paid")
)

// Status is the outcome of one reconciliation attempt.
type Status string

const (
	StatusMatched   Status = "matched"
	StatusUnmatched Status = "unmatched"
)

// highConfidenceMin is the cutoff for counting a match as high-confidence
// in bulk summaries.
const highConfidenceMin = 0.8

// Result describes what one reconciliation attempt did to one transaction.
type Result struct {
	TransactionID int64   `json:"transaction_id"`
	Status        Status  `json:"status"`
	InvoiceID     *int64  `json:"invoice_id,omitempty"`
	Reason        string  `json:"reason"`
	Confidence    float64 `json:"confidence"`
	LogID         int64   `json:"log_id"`
}

// Detail is one bulk-run line item: the reconciliation result together
// with the transaction fields needed to render the run without further
// lookups.
type Detail struct {
	Result
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
}

// Summary aggregates one bulk reconciliation run.
type Summary struct {
	RunID                 uuid.UUID `json:"run_id"`
	TotalProcessed        int       `json:"total_processed"`
	Matched               int       `json:"matched"`
	Unmatched             int       `json:"unmatched"`
	HighConfidenceMatches int       `json:"high_confidence_matches"`
	LowConfidenceMatches  int       `json:"low_confidence_matches"`
	Details               []Detail  `json:"details"`
}

// Stats is a point-in-time snapshot of reconciliation progress.
type Stats struct {
	TotalTransactions     int             `json:"total_transactions"`
	MatchedTransactions   int             `json:"matched_transactions"`
	UnmatchedTransactions int             `json:"unmatched_transactions"`
	TotalInvoices         int             `json:"total_invoices"`
	PaidInvoices          int             `json:"paid_invoices"`
	UnpaidInvoices        int             `json:"unpaid_invoices"`
	AutoMatches           int             `json:"auto_matches"`
	ManualMatches         int             `json:"manual_matches"`
	HighConfidenceLogs    int             `json:"high_confidence_logs"`
	MatchRate             float64         `json:"match_rate"`
	PaymentRate           float64         `json:"payment_rate"`
	TotalUnmatchedAmount  decimal.Decimal `json:"total_unmatched_amount"`
}
