package storage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in slices keyed by insertion order, matching the
// ordering contract of the SQLite implementation.
type MockRepository struct {
	customers     []*Customer
	invoices      []*Invoice
	transactions  []*BankTransaction
	logs          []*ReconciliationLog
	notifications []*NotificationLog

	nextCustomerID     int64
	nextInvoiceID      int64
	nextTransactionID  int64
	nextLogID          int64
	nextNotificationID int64

	// Now supplies log timestamps; overridable in tests.
	Now func() time.Time

	// Hooks for test assertions
	RecordMatchCalled       bool
	RecordNoMatchCalled     bool
	RevertCalled            bool
	AppendNotificationCalls int
	LastLogEntry            *ReconciliationLog
	LastNotificationLog     *NotificationLog

	// Error injection for testing error paths
	RecordMatchErr        error
	RecordNoMatchErr      error
	RevertErr             error
	AppendNotificationErr error
	ListTransactionsErr   error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		nextCustomerID:     1,
		nextInvoiceID:      1,
		nextTransactionID:  1,
		nextLogID:          1,
		nextNotificationID: 1,
		Now:                func() time.Time { return time.Now().UTC() },
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// CreateCustomer inserts a customer into the in-memory store
func (m *MockRepository) CreateCustomer(c *Customer) (int64, error) {
	copied := *c
	copied.ID = m.nextCustomerID
	m.nextCustomerID++
	m.customers = append(m.customers, &copied)
	return copied.ID, nil
}

// ListCustomers returns all customers in insertion order
func (m *MockRepository) ListCustomers() ([]*Customer, error) {
	result := make([]*Customer, len(m.customers))
	copy(result, m.customers)
	return result, nil
}

// CreateInvoice inserts an invoice, resolving the joined customer name
func (m *MockRepository) CreateInvoice(inv *Invoice) (int64, error) {
	copied := *inv
	copied.ID = m.nextInvoiceID
	m.nextInvoiceID++
	if copied.Status == "" {
		copied.Status = InvoiceStatusUnpaid
	}
	if copied.CustomerName == "" {
		for _, c := range m.customers {
			if c.ID == copied.CustomerID {
				copied.CustomerName = c.Name
				break
			}
		}
	}
	m.invoices = append(m.invoices, &copied)
	return copied.ID, nil
}

// GetInvoice retrieves an invoice by ID
func (m *MockRepository) GetInvoice(id int64) (*Invoice, error) {
	for _, inv := range m.invoices {
		if inv.ID == id {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// ListInvoices returns all invoices in insertion order
func (m *MockRepository) ListInvoices() ([]*Invoice, error) {
	var result []*Invoice
	for _, inv := range m.invoices {
		copied := *inv
		result = append(result, &copied)
	}
	return result, nil
}

// ListInvoicesByStatus returns invoices with the status in insertion order
func (m *MockRepository) ListInvoicesByStatus(status InvoiceStatus) ([]*Invoice, error) {
	var result []*Invoice
	for _, inv := range m.invoices {
		if inv.Status == status {
			copied := *inv
			result = append(result, &copied)
		}
	}
	return result, nil
}

// ListUnpaidInvoicesByAmount returns unpaid invoices with the exact amount
func (m *MockRepository) ListUnpaidInvoicesByAmount(amount decimal.Decimal) ([]*Invoice, error) {
	var result []*Invoice
	for _, inv := range m.invoices {
		if inv.Status == InvoiceStatusUnpaid && inv.AmountDue.Equal(amount) {
			copied := *inv
			result = append(result, &copied)
		}
	}
	return result, nil
}

// CountInvoices returns the total number of invoices
func (m *MockRepository) CountInvoices() (int, error) {
	return len(m.invoices), nil
}

// CountInvoicesByStatus returns the number of invoices with the status
func (m *MockRepository) CountInvoicesByStatus(status InvoiceStatus) (int, error) {
	count := 0
	for _, inv := range m.invoices {
		if inv.Status == status {
			count++
		}
	}
	return count, nil
}

// CreateTransaction inserts a bank transaction
func (m *MockRepository) CreateTransaction(t *BankTransaction) (int64, error) {
	copied := *t
	copied.ID = m.nextTransactionID
	m.nextTransactionID++
	if copied.Status == "" {
		copied.Status = TransactionStatusUnmatched
	}
	m.transactions = append(m.transactions, &copied)
	return copied.ID, nil
}

// GetTransaction retrieves a transaction by ID
func (m *MockRepository) GetTransaction(id int64) (*BankTransaction, error) {
	for _, t := range m.transactions {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// ListTransactions returns all transactions in insertion order
func (m *MockRepository) ListTransactions() ([]*BankTransaction, error) {
	var result []*BankTransaction
	for _, t := range m.transactions {
		copied := *t
		result = append(result, &copied)
	}
	return result, nil
}

// ListTransactionsByStatus returns transactions with the status in insertion order
func (m *MockRepository) ListTransactionsByStatus(status TransactionStatus) ([]*BankTransaction, error) {
	if m.ListTransactionsErr != nil {
		return nil, m.ListTransactionsErr
	}
	var result []*BankTransaction
	for _, t := range m.transactions {
		if t.Status == status {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

// CountTransactions returns the total number of transactions
func (m *MockRepository) CountTransactions() (int, error) {
	return len(m.transactions), nil
}

// CountTransactionsByStatus returns the number of transactions with the status
func (m *MockRepository) CountTransactionsByStatus(status TransactionStatus) (int, error) {
	count := 0
	for _, t := range m.transactions {
		if t.Status == status {
			count++
		}
	}
	return count, nil
}

// TotalAmountByStatus sums transaction amounts for the status
func (m *MockRepository) TotalAmountByStatus(status TransactionStatus) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range m.transactions {
		if t.Status == status {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (m *MockRepository) findInvoice(id int64) *Invoice {
	for _, inv := range m.invoices {
		if inv.ID == id {
			return inv
		}
	}
	return nil
}

func (m *MockRepository) findTransaction(id int64) *BankTransaction {
	for _, t := range m.transactions {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (m *MockRepository) appendLog(txID int64, invoiceID *int64, entry *ReconciliationLog) int64 {
	copied := *entry
	copied.ID = m.nextLogID
	m.nextLogID++
	copied.TransactionID = txID
	copied.InvoiceID = invoiceID
	if copied.Timestamp.IsZero() {
		copied.Timestamp = m.Now()
	}
	m.logs = append(m.logs, &copied)
	m.LastLogEntry = &copied
	return copied.ID
}

// RecordMatch flips invoice and transaction status and appends the log row
func (m *MockRepository) RecordMatch(txID, invoiceID int64, entry *ReconciliationLog) (int64, error) {
	m.RecordMatchCalled = true
	if m.RecordMatchErr != nil {
		return 0, m.RecordMatchErr
	}
	inv := m.findInvoice(invoiceID)
	if inv == nil {
		return 0, fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
	}
	t := m.findTransaction(txID)
	if t == nil {
		return 0, fmt.Errorf("transaction %d: %w", txID, ErrNotFound)
	}
	inv.Status = InvoiceStatusPaid
	t.Status = TransactionStatusMatched
	id := invoiceID
	return m.appendLog(txID, &id, entry), nil
}

// RecordNoMatch appends an unmatched log row
func (m *MockRepository) RecordNoMatch(txID int64, entry *ReconciliationLog) (int64, error) {
	m.RecordNoMatchCalled = true
	if m.RecordNoMatchErr != nil {
		return 0, m.RecordNoMatchErr
	}
	return m.appendLog(txID, nil, entry), nil
}

// RevertTransaction resets transaction (and optionally invoice) status
func (m *MockRepository) RevertTransaction(txID int64, invoiceID *int64) error {
	m.RevertCalled = true
	if m.RevertErr != nil {
		return m.RevertErr
	}
	t := m.findTransaction(txID)
	if t == nil {
		return fmt.Errorf("transaction %d: %w", txID, ErrNotFound)
	}
	if invoiceID != nil {
		if inv := m.findInvoice(*invoiceID); inv != nil {
			inv.Status = InvoiceStatusUnpaid
		}
	}
	t.Status = TransactionStatusUnmatched
	return nil
}

// LatestLogWithInvoice returns the most recent invoice-bearing log row
func (m *MockRepository) LatestLogWithInvoice(txID int64) (*ReconciliationLog, error) {
	for i := len(m.logs) - 1; i >= 0; i-- {
		entry := m.logs[i]
		if entry.TransactionID == txID && entry.InvoiceID != nil {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// ListLogs returns the newest limit log rows, newest first
func (m *MockRepository) ListLogs(limit int) ([]*ReconciliationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var result []*ReconciliationLog
	for i := len(m.logs) - 1; i >= 0 && len(result) < limit; i-- {
		copied := *m.logs[i]
		result = append(result, &copied)
	}
	return result, nil
}

// CountLogsByMatchedBy counts log rows by matched_by
func (m *MockRepository) CountLogsByMatchedBy(matchedBy string) (int, error) {
	count := 0
	for _, entry := range m.logs {
		if entry.MatchedBy == matchedBy {
			count++
		}
	}
	return count, nil
}

// CountLogsByMinConfidence counts log rows with confidence >= min
func (m *MockRepository) CountLogsByMinConfidence(min float64) (int, error) {
	count := 0
	for _, entry := range m.logs {
		if entry.ConfidenceScore >= min {
			count++
		}
	}
	return count, nil
}

// AppendNotificationLog inserts a notification history row
func (m *MockRepository) AppendNotificationLog(n *NotificationLog) (int64, error) {
	m.AppendNotificationCalls++
	if m.AppendNotificationErr != nil {
		return 0, m.AppendNotificationErr
	}
	copied := *n
	copied.ID = m.nextNotificationID
	m.nextNotificationID++
	if copied.Timestamp.IsZero() {
		copied.Timestamp = m.Now()
	}
	m.notifications = append(m.notifications, &copied)
	m.LastNotificationLog = &copied
	return copied.ID, nil
}

// LatestSuccessfulNotification returns the most recent successful row of the type
func (m *MockRepository) LatestSuccessfulNotification(notificationType string) (*NotificationLog, error) {
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.NotificationType == notificationType && n.Success {
			copied := *n
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// ListNotificationLogs returns the newest limit rows, newest first
func (m *MockRepository) ListNotificationLogs(limit int) ([]*NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var result []*NotificationLog
	for i := len(m.notifications) - 1; i >= 0 && len(result) < limit; i-- {
		copied := *m.notifications[i]
		result = append(result, &copied)
	}
	return result, nil
}

// Helper methods for test setup

// AddCustomer adds a customer directly (for test setup)
func (m *MockRepository) AddCustomer(name, email string) *Customer {
	c := &Customer{Name: name, Email: email}
	id, _ := m.CreateCustomer(c)
	c.ID = id
	return c
}

// AddInvoice adds an invoice directly (for test setup)
func (m *MockRepository) AddInvoice(customer *Customer, amount, reference string) *Invoice {
	due, _ := decimal.NewFromString(amount)
	inv := &Invoice{
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		AmountDue:       due,
		Status:          InvoiceStatusUnpaid,
		ReferenceNumber: reference,
	}
	id, _ := m.CreateInvoice(inv)
	inv.ID = id
	return inv
}

// AddTransaction adds an unmatched transaction directly (for test setup)
func (m *MockRepository) AddTransaction(amount, description, reference string) *BankTransaction {
	amt, _ := decimal.NewFromString(amount)
	t := &BankTransaction{
		Date:            time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Description:     description,
		Amount:          amt,
		ReferenceNumber: reference,
		Status:          TransactionStatusUnmatched,
	}
	id, _ := m.CreateTransaction(t)
	t.ID = id
	return t
}

// AllLogs returns every stored log row in insertion order (for assertions)
func (m *MockRepository) AllLogs() []*ReconciliationLog {
	result := make([]*ReconciliationLog, len(m.logs))
	copy(result, m.logs)
	return result
}
