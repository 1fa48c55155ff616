// Command seed fills a database with sample customers, invoices, and bank
// transactions for trying out the reconciliation API locally.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

type seedInvoice struct {
	customer  string
	amount    string
	reference string
}

type seedTransaction struct {
	date        string
	description string
	amount      string
	reference   string
}

var customers = map[string]string{
	"Acme Corp":        "billing@acme.example",
	"Beta LLC":         "accounts@beta.example",
	"Initech Ltd":      "finance@initech.example",
	"Zenith Logistics": "ar@zenith.example",
}

var invoices = []seedInvoice{
	{"Acme Corp", "1500.00", "INV-001"},
	{"Acme Corp", "480.00", "INV-002"},
	{"Beta LLC", "900.00", "INV-003"},
	{"Initech Ltd", "610.00", "INV-004"},
	{"Zenith Logistics", "3200.25", "INV-005"},
}

var transactions = []seedTransaction{
	{"2025-06-02", "Payment received", "1500.00", "INV-001"},
	{"2025-06-03", "Payment from Acme Corp", "480.00", ""},
	{"2025-06-03", "Transfer from Beta LLC", "900.00", ""},
	{"2025-06-04", "Deposit", "610.00", "PAY-Initech Ltd-042"},
	{"2025-06-05", "Wire transfer incoming", "3200.25", "WIRE-789"},
	{"2025-06-05", "Unknown deposit", "42.42", ""},
}

func main() {
	dbPath := flag.String("db", "reconcile.db", "path to the SQLite database")
	flag.Parse()

	if err := run(*dbPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(dbPath string) error {
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	customerIDs := make(map[string]int64)
	for name, email := range customers {
		id, err := store.CreateCustomer(&storage.Customer{Name: name, Email: email})
		if err != nil {
			return fmt.Errorf("failed to create customer %q: %w", name, err)
		}
		customerIDs[name] = id
	}

	for _, inv := range invoices {
		amount, err := decimal.NewFromString(inv.amount)
		if err != nil {
			return err
		}
		if _, err := store.CreateInvoice(&storage.Invoice{
			CustomerID:      customerIDs[inv.customer],
			AmountDue:       amount,
			Status:          storage.InvoiceStatusUnpaid,
			ReferenceNumber: inv.reference,
		}); err != nil {
			return fmt.Errorf("failed to create invoice %q: %w", inv.reference, err)
		}
	}

	for _, tx := range transactions {
		date, err := time.Parse("2006-01-02", tx.date)
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(tx.amount)
		if err != nil {
			return err
		}
		if _, err := store.CreateTransaction(&storage.BankTransaction{
			Date:            date,
			Description:     tx.description,
			Amount:          amount,
			ReferenceNumber: tx.reference,
			Status:          storage.TransactionStatusUnmatched,
		}); err != nil {
			return fmt.Errorf("failed to create transaction %q: %w", tx.description, err)
		}
	}

	fmt.Printf("seeded %d customers, %d invoices, %d transactions into %s\n",
		len(customers), len(invoices), len(transactions), dbPath)
	return nil
}
