package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Storage provides SQLite database access for reconciliation records.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// amountText converts a decimal amount to its canonical stored form.
// All money columns hold exactly this representation, so exact-amount
// lookups are plain string equality.
func amountText(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func parseAmount(text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed stored amount %q: %w", text, err)
	}
	return d, nil
}

// ================================================================
// CUSTOMERS
// ================================================================

// CreateCustomer inserts a customer and returns its ID
func (s *Storage) CreateCustomer(c *Customer) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO customers (name, email) VALUES (?, ?)`,
		c.Name, c.Email,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListCustomers returns all customers in insertion order
func (s *Storage) ListCustomers() ([]*Customer, error) {
	rows, err := s.db.Query(`SELECT id, name, email FROM customers ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var customers []*Customer
	for rows.Next() {
		c := &Customer{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Email); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// ================================================================
// INVOICES
// ================================================================

// CreateInvoice inserts an invoice and returns its ID
func (s *Storage) CreateInvoice(inv *Invoice) (int64, error) {
	status := inv.Status
	if status == "" {
		status = InvoiceStatusUnpaid
	}
	result, err := s.db.Exec(
		`INSERT INTO invoices (customer_id, amount_due, status, reference_number)
		 VALUES (?, ?, ?, ?)`,
		inv.CustomerID, amountText(inv.AmountDue), status, inv.ReferenceNumber,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const invoiceSelect = `
	SELECT i.id, i.customer_id, c.name, i.amount_due, i.status, i.reference_number
	FROM invoices i
	JOIN customers c ON c.id = i.customer_id
`

func scanInvoice(scan func(dest ...interface{}) error) (*Invoice, error) {
	inv := &Invoice{}
	var amount string
	if err := scan(&inv.ID, &inv.CustomerID, &inv.CustomerName, &amount, &inv.Status, &inv.ReferenceNumber); err != nil {
		return nil, err
	}
	var err error
	inv.AmountDue, err = parseAmount(amount)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GetInvoice retrieves an invoice by ID with its customer name joined
func (s *Storage) GetInvoice(id int64) (*Invoice, error) {
	row := s.db.QueryRow(invoiceSelect+` WHERE i.id = ?`, id)
	inv, err := scanInvoice(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return inv, err
}

func (s *Storage) queryInvoices(query string, args ...interface{}) ([]*Invoice, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var invoices []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// ListInvoices returns all invoices in insertion order
func (s *Storage) ListInvoices() ([]*Invoice, error) {
	return s.queryInvoices(invoiceSelect + ` ORDER BY i.id ASC`)
}

// ListInvoicesByStatus returns invoices with the given status in insertion order
func (s *Storage) ListInvoicesByStatus(status InvoiceStatus) ([]*Invoice, error) {
	return s.queryInvoices(invoiceSelect+` WHERE i.status = ? ORDER BY i.id ASC`, status)
}

// ListUnpaidInvoicesByAmount returns unpaid invoices whose amount exactly
// equals the given amount, in insertion order
func (s *Storage) ListUnpaidInvoicesByAmount(amount decimal.Decimal) ([]*Invoice, error) {
	return s.queryInvoices(
		invoiceSelect+` WHERE i.status = ? AND i.amount_due = ? ORDER BY i.id ASC`,
		InvoiceStatusUnpaid, amountText(amount),
	)
}

// CountInvoices returns the total number of invoices
func (s *Storage) CountInvoices() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM invoices`).Scan(&count)
	return count, err
}

// CountInvoicesByStatus returns the number of invoices with the given status
func (s *Storage) CountInvoicesByStatus(status InvoiceStatus) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM invoices WHERE status = ?`, status).Scan(&count)
	return count, err
}

// ================================================================
// BANK TRANSACTIONS
// ================================================================

// CreateTransaction inserts a bank transaction and returns its ID
func (s *Storage) CreateTransaction(t *BankTransaction) (int64, error) {
	status := t.Status
	if status == "" {
		status = TransactionStatusUnmatched
	}
	result, err := s.db.Exec(
		`INSERT INTO bank_transactions (date, description, amount, reference_number, status)
		 VALUES (?, ?, ?, ?, ?)`,
		t.Date, t.Description, amountText(t.Amount), t.ReferenceNumber, status,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func scanTransaction(scan func(dest ...interface{}) error) (*BankTransaction, error) {
	t := &BankTransaction{}
	var amount string
	if err := scan(&t.ID, &t.Date, &t.Description, &amount, &t.ReferenceNumber, &t.Status); err != nil {
		return nil, err
	}
	var err error
	t.Amount, err = parseAmount(amount)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTransaction retrieves a bank transaction by ID
func (s *Storage) GetTransaction(id int64) (*BankTransaction, error) {
	row := s.db.QueryRow(
		`SELECT id, date, description, amount, reference_number, status
		 FROM bank_transactions WHERE id = ?`, id)
	t, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *Storage) queryTransactions(query string, args ...interface{}) ([]*BankTransaction, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var transactions []*BankTransaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// ListTransactions returns all transactions in insertion order
func (s *Storage) ListTransactions() ([]*BankTransaction, error) {
	return s.queryTransactions(
		`SELECT id, date, description, amount, reference_number, status
		 FROM bank_transactions ORDER BY id ASC`)
}

// ListTransactionsByStatus returns transactions with the given status in insertion order
func (s *Storage) ListTransactionsByStatus(status TransactionStatus) ([]*BankTransaction, error) {
	return s.queryTransactions(
		`SELECT id, date, description, amount, reference_number, status
		 FROM bank_transactions WHERE status = ? ORDER BY id ASC`, status)
}

// CountTransactions returns the total number of bank transactions
func (s *Storage) CountTransactions() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM bank_transactions`).Scan(&count)
	return count, err
}

// CountTransactionsByStatus returns the number of transactions with the given status
func (s *Storage) CountTransactionsByStatus(status TransactionStatus) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM bank_transactions WHERE status = ?`, status).Scan(&count)
	return count, err
}

// TotalAmountByStatus sums transaction amounts for the given status.
// Summation happens in Go so amounts never go through float arithmetic.
func (s *Storage) TotalAmountByStatus(status TransactionStatus) (decimal.Decimal, error) {
	rows, err := s.db.Query(`SELECT amount FROM bank_transactions WHERE status = ?`, status)
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		d, err := parseAmount(amount)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

// ================================================================
// RECONCILIATION LOGS
// ================================================================

func logTimestamp(entry *ReconciliationLog) time.Time {
	if entry.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return entry.Timestamp
}

// RecordMatch atomically flips invoice and transaction status and appends
// the audit log row. Partial application is a correctness violation, so the
// three writes share one database transaction.
func (s *Storage) RecordMatch(txID, invoiceID int64, entry *ReconciliationLog) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE invoices SET status = ? WHERE id = ?`, InvoiceStatusPaid, invoiceID)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
	}

	res, err = tx.Exec(`UPDATE bank_transactions SET status = ? WHERE id = ?`, TransactionStatusMatched, txID)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("transaction %d: %w", txID, ErrNotFound)
	}

	result, err := tx.Exec(
		`INSERT INTO reconciliation_logs
		 (transaction_id, invoice_id, matched_by, match_reason, confidence_score, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		txID, invoiceID, entry.MatchedBy, entry.MatchReason, entry.ConfidenceScore, logTimestamp(entry),
	)
	if err != nil {
		return 0, err
	}
	logID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return logID, nil
}

// RecordNoMatch appends an unmatched audit row for the transaction
func (s *Storage) RecordNoMatch(txID int64, entry *ReconciliationLog) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO reconciliation_logs
		 (transaction_id, invoice_id, matched_by, match_reason, confidence_score, timestamp)
		 VALUES (?, NULL, ?, ?, ?, ?)`,
		txID, entry.MatchedBy, entry.MatchReason, entry.ConfidenceScore, logTimestamp(entry),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RevertTransaction sets the transaction back to unmatched and, when an
// invoice ID is supplied, the invoice back to unpaid, in one transaction
func (s *Storage) RevertTransaction(txID int64, invoiceID *int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if invoiceID != nil {
		if _, err := tx.Exec(`UPDATE invoices SET status = ? WHERE id = ?`, InvoiceStatusUnpaid, *invoiceID); err != nil {
			return err
		}
	}

	res, err := tx.Exec(`UPDATE bank_transactions SET status = ? WHERE id = ?`, TransactionStatusUnmatched, txID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d: %w", txID, ErrNotFound)
	}

	return tx.Commit()
}

func scanLog(scan func(dest ...interface{}) error) (*ReconciliationLog, error) {
	entry := &ReconciliationLog{}
	var invoiceID sql.NullInt64
	if err := scan(&entry.ID, &entry.TransactionID, &invoiceID, &entry.MatchedBy,
		&entry.MatchReason, &entry.ConfidenceScore, &entry.Timestamp); err != nil {
		return nil, err
	}
	if invoiceID.Valid {
		entry.InvoiceID = &invoiceID.Int64
	}
	return entry, nil
}

const logSelect = `
	SELECT id, transaction_id, invoice_id, matched_by, match_reason, confidence_score, timestamp
	FROM reconciliation_logs
`

// LatestLogWithInvoice returns the most recent invoice-bearing log row for
// the transaction
func (s *Storage) LatestLogWithInvoice(txID int64) (*ReconciliationLog, error) {
	row := s.db.QueryRow(
		logSelect+` WHERE transaction_id = ? AND invoice_id IS NOT NULL
		 ORDER BY id DESC LIMIT 1`, txID)
	entry, err := scanLog(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return entry, err
}

// ListLogs returns the newest limit log rows, newest first
func (s *Storage) ListLogs(limit int) ([]*ReconciliationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(logSelect+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var logs []*ReconciliationLog
	for rows.Next() {
		entry, err := scanLog(rows.Scan)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// CountLogsByMatchedBy counts audit rows by matched_by value
func (s *Storage) CountLogsByMatchedBy(matchedBy string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reconciliation_logs WHERE matched_by = ?`, matchedBy).Scan(&count)
	return count, err
}

// CountLogsByMinConfidence counts audit rows with confidence >= min
func (s *Storage) CountLogsByMinConfidence(min float64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reconciliation_logs WHERE confidence_score >= ?`, min).Scan(&count)
	return count, err
}

// ================================================================
// NOTIFICATION LOGS
// ================================================================

// AppendNotificationLog inserts a notification history row
func (s *Storage) AppendNotificationLog(n *NotificationLog) (int64, error) {
	ts := n.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	result, err := s.db.Exec(
		`INSERT INTO notification_logs
		 (notification_type, recipients, unmatched_count, total_transactions, timestamp, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.NotificationType, recipientsToText(n.Recipients), n.UnmatchedCount,
		n.TotalTransactions, ts, n.Success, n.ErrorMessage,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func scanNotificationLog(scan func(dest ...interface{}) error) (*NotificationLog, error) {
	n := &NotificationLog{}
	var recipients string
	if err := scan(&n.ID, &n.NotificationType, &recipients, &n.UnmatchedCount,
		&n.TotalTransactions, &n.Timestamp, &n.Success, &n.ErrorMessage); err != nil {
		return nil, err
	}
	n.Recipients = recipientsFromText(recipients)
	return n, nil
}

const notificationSelect = `
	SELECT id, notification_type, recipients, unmatched_count, total_transactions,
	       timestamp, success, error_message
	FROM notification_logs
`

// LatestSuccessfulNotification returns the most recent successful row of the
// given type
func (s *Storage) LatestSuccessfulNotification(notificationType string) (*NotificationLog, error) {
	row := s.db.QueryRow(
		notificationSelect+` WHERE notification_type = ? AND success = 1
		 ORDER BY id DESC LIMIT 1`, notificationType)
	n, err := scanNotificationLog(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return n, err
}

// ListNotificationLogs returns the newest limit rows, newest first
func (s *Storage) ListNotificationLogs(limit int) ([]*NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(notificationSelect+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var logs []*NotificationLog
	for rows.Next() {
		n, err := scanNotificationLog(rows.Scan)
		if err != nil {
			return nil, err
		}
		logs = append(logs, n)
	}
	return logs, rows.Err()
}
