package storage

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
//
// Every list query returns rows in insertion order (id ascending). The
// matching strategies' first-match-wins behavior depends on that contract.
type Repository interface {
	CustomerRepository
	InvoiceRepository
	TransactionRepository
	ReconciliationLogRepository
	NotificationLogRepository
	Close() error
}

// CustomerRepository handles customer records.
type CustomerRepository interface {
	// CreateCustomer inserts a customer and returns its ID.
	CreateCustomer(c *Customer) (int64, error)

	// ListCustomers returns all customers in insertion order.
	ListCustomers() ([]*Customer, error)
}

// InvoiceRepository handles invoice records.
type InvoiceRepository interface {
	// CreateInvoice inserts an invoice and returns its ID.
	CreateInvoice(inv *Invoice) (int64, error)

	// GetInvoice retrieves an invoice by ID, with the customer name joined.
	// Returns ErrNotFound if it does not exist.
	GetInvoice(id int64) (*Invoice, error)

	// ListInvoices returns all invoices in insertion order, customer
	// names joined.
	ListInvoices() ([]*Invoice, error)

	// ListInvoicesByStatus returns invoices with the given status in
	// insertion order, customer names joined.
	ListInvoicesByStatus(status InvoiceStatus) ([]*Invoice, error)

	// ListUnpaidInvoicesByAmount returns unpaid invoices whose amount_due
	// exactly equals amount, in insertion order, customer names joined.
	// This is the candidate set for the matching engine.
	ListUnpaidInvoicesByAmount(amount decimal.Decimal) ([]*Invoice, error)

	// CountInvoices returns the total number of invoices.
	CountInvoices() (int, error)

	// CountInvoicesByStatus returns the number of invoices with the status.
	CountInvoicesByStatus(status InvoiceStatus) (int, error)
}

// TransactionRepository handles bank transaction records.
type TransactionRepository interface {
	// CreateTransaction inserts a transaction and returns its ID.
	CreateTransaction(t *BankTransaction) (int64, error)

	// GetTransaction retrieves a transaction by ID.
	// Returns ErrNotFound if it does not exist.
	GetTransaction(id int64) (*BankTransaction, error)

	// ListTransactions returns all transactions in insertion order.
	ListTransactions() ([]*BankTransaction, error)

	// ListTransactionsByStatus returns transactions with the given status
	// in insertion order.
	ListTransactionsByStatus(status TransactionStatus) ([]*BankTransaction, error)

	// CountTransactions returns the total number of transactions.
	CountTransactions() (int, error)

	// CountTransactionsByStatus returns the number of transactions with the status.
	CountTransactionsByStatus(status TransactionStatus) (int, error)

	// TotalAmountByStatus sums the amounts of transactions with the status.
	TotalAmountByStatus(status TransactionStatus) (decimal.Decimal, error)
}

// ReconciliationLogRepository handles the append-only reconciliation audit
// trail and the paired status mutations.
//
// RecordMatch and RevertTransaction are the only ways invoice and
// transaction statuses change; each executes as a single database
// transaction so a status flip can never land without its log row.
type ReconciliationLogRepository interface {
	// RecordMatch atomically marks the invoice paid, the transaction
	// matched, and appends entry (with the given transaction and invoice
	// IDs). Returns the new log row's ID.
	RecordMatch(txID, invoiceID int64, entry *ReconciliationLog) (int64, error)

	// RecordNoMatch appends an unmatched log row (invoice NULL) for the
	// transaction. No status changes. Returns the new log row's ID.
	RecordNoMatch(txID int64, entry *ReconciliationLog) (int64, error)

	// RevertTransaction atomically sets the transaction back to unmatched
	// and, when invoiceID is non-nil, the invoice back to unpaid.
	RevertTransaction(txID int64, invoiceID *int64) error

	// LatestLogWithInvoice returns the most recent log row for the
	// transaction that references a non-null invoice, or ErrNotFound.
	LatestLogWithInvoice(txID int64) (*ReconciliationLog, error)

	// ListLogs returns the newest limit log rows, newest first.
	ListLogs(limit int) ([]*ReconciliationLog, error)

	// CountLogsByMatchedBy counts log rows by the matched_by value.
	CountLogsByMatchedBy(matchedBy string) (int, error)

	// CountLogsByMinConfidence counts log rows with confidence >= min.
	CountLogsByMinConfidence(min float64) (int, error)
}

// NotificationLogRepository handles the append-only notification history.
type NotificationLogRepository interface {
	// AppendNotificationLog inserts a notification log row and returns its ID.
	AppendNotificationLog(n *NotificationLog) (int64, error)

	// LatestSuccessfulNotification returns the most recent successful
	// notification of the given type, or ErrNotFound.
	LatestSuccessfulNotification(notificationType string) (*NotificationLog, error)

	// ListNotificationLogs returns the newest limit rows, newest first.
	ListNotificationLogs(limit int) ([]*NotificationLog, error)
}
