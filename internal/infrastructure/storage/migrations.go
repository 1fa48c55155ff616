package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_reconciliation_logs_table",
		Up:      migration002AddReconciliationLogsTable,
	},
	{
		Version: 3,
		Name:    "add_notification_logs_table",
		Up:      migration003AddNotificationLogsTable,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// ================================================================
// MIGRATION FUNCTIONS
// ================================================================

// migration001InitialSchema creates customers, invoices, and bank_transactions.
// Money columns are TEXT holding canonical 2-decimal strings so exact-amount
// filters are plain equality, never float comparison.
func migration001InitialSchema(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS invoices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_id INTEGER NOT NULL,
			amount_due TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'unpaid',
			reference_number TEXT DEFAULT '',
			FOREIGN KEY (customer_id) REFERENCES customers(id)
		)`,

		`CREATE TABLE IF NOT EXISTS bank_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TIMESTAMP NOT NULL,
			description TEXT NOT NULL,
			amount TEXT NOT NULL,
			reference_number TEXT DEFAULT '',
			status TEXT NOT NULL DEFAULT 'unmatched'
		)`,

		`CREATE INDEX IF NOT EXISTS idx_invoices_status_amount
		 ON invoices(status, amount_due)`,

		`CREATE INDEX IF NOT EXISTS idx_bank_transactions_status
		 ON bank_transactions(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// migration002AddReconciliationLogsTable creates the reconciliation audit
// trail. Rows are append-only; there is deliberately no UPDATE path.
func migration002AddReconciliationLogsTable(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reconciliation_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_id INTEGER NOT NULL,
			invoice_id INTEGER,
			matched_by TEXT NOT NULL,
			match_reason TEXT DEFAULT '',
			confidence_score REAL NOT NULL DEFAULT 0,
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (transaction_id) REFERENCES bank_transactions(id),
			FOREIGN KEY (invoice_id) REFERENCES invoices(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_reconciliation_logs_transaction
		 ON reconciliation_logs(transaction_id)`,

		`CREATE INDEX IF NOT EXISTS idx_reconciliation_logs_timestamp
		 ON reconciliation_logs(timestamp DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// migration003AddNotificationLogsTable creates the notification history used
// by the alert throttle.
func migration003AddNotificationLogsTable(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS notification_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			notification_type TEXT NOT NULL,
			recipients TEXT DEFAULT '',
			unmatched_count INTEGER NOT NULL DEFAULT 0,
			total_transactions INTEGER NOT NULL DEFAULT 0,
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			success BOOLEAN NOT NULL DEFAULT 0,
			error_message TEXT DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_notification_logs_type_success
		 ON notification_logs(notification_type, success, timestamp DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
