package storage

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

// TransactionStatus is the lifecycle state of a bank transaction.
type TransactionStatus string

const (
	TransactionStatusUnmatched TransactionStatus = "unmatched"
	TransactionStatusMatched   TransactionStatus = "matched"
)

// Who (or what) performed a match.
const (
	MatchedByAuto   = "auto"
	MatchedByManual = "manual"
)

// NotificationTypeUnmatched is the notification type for unmatched-transaction alerts.
const NotificationTypeUnmatched = "unmatched_transactions"

// Customer is a billing counterparty. Immutable once created.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Invoice is an outstanding receivable for one customer.
// CustomerName is joined from the customers table on read and is never
// written back.
type Invoice struct {
	ID              int64           `json:"id"`
	CustomerID      int64           `json:"customer_id"`
	CustomerName    string          `json:"customer_name,omitempty"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	Status          InvoiceStatus   `json:"status"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
}

// BankTransaction is one statement line created by the ingestion side.
// Only the reconciliation pipeline mutates its status.
type BankTransaction struct {
	ID              int64             `json:"id"`
	Date            time.Time         `json:"date"`
	Description     string            `json:"description"`
	Amount          decimal.Decimal   `json:"amount"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	Status          TransactionStatus `json:"status"`
}

// ReconciliationLog is one append-only audit row per reconciliation attempt.
// InvoiceID is nil when the attempt ended unmatched. Rows are never updated
// or deleted; the history is the audit trail.
type ReconciliationLog struct {
	ID              int64     `json:"id"`
	TransactionID   int64     `json:"transaction_id"`
	InvoiceID       *int64    `json:"invoice_id,omitempty"`
	MatchedBy       string    `json:"matched_by"`
	MatchReason     string    `json:"match_reason"`
	ConfidenceScore float64   `json:"confidence_score"`
	Timestamp       time.Time `json:"timestamp"`
}

// NotificationLog is one append-only row per alert attempt, success or not.
type NotificationLog struct {
	ID                int64     `json:"id"`
	NotificationType  string    `json:"notification_type"`
	Recipients        []string  `json:"recipients"`
	UnmatchedCount    int       `json:"unmatched_count"`
	TotalTransactions int       `json:"total_transactions"`
	Timestamp         time.Time `json:"timestamp"`
	Success           bool      `json:"success"`
	ErrorMessage      string    `json:"error_message,omitempty"`
}

// recipientsToText serializes the ordered recipient list for storage.
func recipientsToText(recipients []string) string {
	return strings.Join(recipients, ",")
}

// recipientsFromText restores the recipient list from its stored form.
func recipientsFromText(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, ",")
}
