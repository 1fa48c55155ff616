// Package reconcile coordinates the matching engine, the repository, and
// the alert throttle into the reconciliation operations the API exposes.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ledgerline/reconcile-backend/internal/application/notify"
	"github.com/ledgerline/reconcile-backend/internal/domain/matching"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// AlertChecker triggers the unmatched-transaction alert pipeline after a
// bulk run. Satisfied by *notify.Throttle.
type AlertChecker interface {
	CheckAndNotify(ctx context.Context) (notify.Outcome, error)
}

// Orchestrator runs reconciliation against the repository. A mutex
// serializes all mutating operations so two concurrent runs can never
// match the same invoice twice.
type Orchestrator struct {
	mu     sync.Mutex
	repo   storage.Repository
	engine *matching.Engine
	alerts AlertChecker
	logger *slog.Logger
}

// NewOrchestrator creates an orchestrator. alerts may be nil, in which
// case bulk runs skip the notification check.
func NewOrchestrator(repo storage.Repository, engine *matching.Engine, alerts AlertChecker, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		repo:   repo,
		engine: engine,
		alerts: alerts,
		logger: logger,
	}
}

// ProcessSingle reconciles one unmatched transaction. Returns
// ErrAlreadyMatched for transactions that are already matched and
// storage.ErrNotFound for unknown IDs.
func (o *Orchestrator) ProcessSingle(ctx context.Context, txID int64) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	tx, err := o.repo.GetTransaction(txID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load transaction %d: %w", txID, err)
	}
	if tx.Status == storage.TransactionStatusMatched {
		return Result{}, fmt.Errorf("transaction %d: %w", txID, ErrAlreadyMatched)
	}

	return o.processLocked(tx)
}

// processLocked runs the matching pipeline for one unmatched transaction.
// Callers must hold o.mu.
func (o *Orchestrator) processLocked(tx *storage.BankTransaction) (Result, error) {
	candidates, err := o.repo.ListUnpaidInvoicesByAmount(tx.Amount)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load candidate invoices: %w", err)
	}
	customers, err := o.repo.ListCustomers()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load customers: %w", err)
	}

	match, err := o.engine.FindBestMatch(tx, candidates, customers)
	if err != nil {
		return Result{}, fmt.Errorf("matching failed for transaction %d: %w", tx.ID, err)
	}

	if match.Matched() {
		entry := &storage.ReconciliationLog{
			MatchedBy:       storage.MatchedByAuto,
			MatchReason:     match.Reason,
			ConfidenceScore: match.Confidence,
		}
		logID, err := o.repo.RecordMatch(tx.ID, match.Invoice.ID, entry)
		if err != nil {
			return Result{}, fmt.Errorf("failed to record match for transaction %d: %w", tx.ID, err)
		}

		o.logger.Info("transaction matched",
			"transaction_id", tx.ID,
			"invoice_id", match.Invoice.ID,
			"confidence", match.Confidence,
			"reason", match.Reason,
		)
		invoiceID := match.Invoice.ID
		return Result{
			TransactionID: tx.ID,
			Status:        StatusMatched,
			InvoiceID:     &invoiceID,
			Reason:        match.Reason,
			Confidence:    match.Confidence,
			LogID:         logID,
		}, nil
	}

	// Below the auto-match threshold. The attempt is still logged so the
	// audit trail shows why nothing happened, including low-confidence
	// near-misses with their scores.
	reason := match.Reason
	if match.Invoice == nil {
		reason = "No matching invoice found"
	}
	entry := &storage.ReconciliationLog{
		MatchedBy:       storage.MatchedByAuto,
		MatchReason:     reason,
		ConfidenceScore: match.Confidence,
	}
	logID, err := o.repo.RecordNoMatch(tx.ID, entry)
	if err != nil {
		return Result{}, fmt.Errorf("failed to record no-match for transaction %d: %w", tx.ID, err)
	}

	o.logger.Debug("transaction left unmatched",
		"transaction_id", tx.ID,
		"confidence", match.Confidence,
		"reason", reason,
	)
	return Result{
		TransactionID: tx.ID,
		Status:        StatusUnmatched,
		Reason:        reason,
		Confidence:    match.Confidence,
		LogID:         logID,
	}, nil
}

// Bulk reconciles the given transactions, or every unmatched transaction
// when txIDs is empty. Unknown and already-matched IDs are skipped, and a
// failure on one transaction does not stop the run. A run that left
// transactions unmatched consults the alert throttle afterwards; alert
// errors are logged, never returned.
func (o *Orchestrator) Bulk(ctx context.Context, txIDs []int64) (Summary, error) {
	o.mu.Lock()

	var pending []*storage.BankTransaction
	if len(txIDs) == 0 {
		all, err := o.repo.ListTransactionsByStatus(storage.TransactionStatusUnmatched)
		if err != nil {
			o.mu.Unlock()
			return Summary{}, fmt.Errorf("failed to list unmatched transactions: %w", err)
		}
		pending = all
	} else {
		for _, id := range txIDs {
			tx, err := o.repo.GetTransaction(id)
			if errors.Is(err, storage.ErrNotFound) {
				o.logger.Warn("bulk run skipping unknown transaction", "transaction_id", id)
				continue
			}
			if err != nil {
				o.mu.Unlock()
				return Summary{}, fmt.Errorf("failed to load transaction %d: %w", id, err)
			}
			if tx.Status == storage.TransactionStatusMatched {
				o.logger.Warn("bulk run skipping already-matched transaction", "transaction_id", id)
				continue
			}
			pending = append(pending, tx)
		}
	}

	summary := Summary{RunID: uuid.New()}
	for _, tx := range pending {
		result, err := o.processLocked(tx)
		if err != nil {
			o.logger.Error("bulk run failed on transaction",
				"run_id", summary.RunID,
				"transaction_id", tx.ID,
				"error", err,
			)
			continue
		}

		summary.TotalProcessed++
		summary.Details = append(summary.Details, Detail{
			Result:          result,
			Amount:          tx.Amount,
			Description:     tx.Description,
			ReferenceNumber: tx.ReferenceNumber,
		})
		if result.Status == StatusMatched {
			summary.Matched++
			if result.Confidence >= highConfidenceMin {
				summary.HighConfidenceMatches++
			} else {
				summary.LowConfidenceMatches++
			}
		} else {
			summary.Unmatched++
		}
	}
	o.mu.Unlock()

	o.logger.Info("bulk reconciliation finished",
		"run_id", summary.RunID,
		"processed", summary.TotalProcessed,
		"matched", summary.Matched,
		"unmatched", summary.Unmatched,
	)

	// Only runs that left something unmatched can warrant an alert; a
	// clean run must not re-trigger on older unmatched rows.
	if o.alerts != nil && summary.Unmatched > 0 {
		if _, err := o.alerts.CheckAndNotify(ctx); err != nil {
			o.logger.Error("alert check after bulk run failed",
				"run_id", summary.RunID,
				"error", err,
			)
		}
	}

	return summary, nil
}

// Reprocess reverts a matched transaction (releasing its invoice) and runs
// the matching pipeline again. Unmatched transactions are simply processed.
func (o *Orchestrator) Reprocess(ctx context.Context, txID int64) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	tx, err := o.repo.GetTransaction(txID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load transaction %d: %w", txID, err)
	}

	if tx.Status == storage.TransactionStatusMatched {
		var invoiceID *int64
		last, err := o.repo.LatestLogWithInvoice(txID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// Matched status without an invoice-bearing log row means the
			// audit trail is incomplete; revert the transaction anyway.
			o.logger.Warn("matched transaction has no invoice in its log history",
				"transaction_id", txID,
			)
		case err != nil:
			return Result{}, fmt.Errorf("failed to load log history for transaction %d: %w", txID, err)
		default:
			invoiceID = last.InvoiceID
		}

		if err := o.repo.RevertTransaction(txID, invoiceID); err != nil {
			return Result{}, fmt.Errorf("failed to revert transaction %d: %w", txID, err)
		}
		tx.Status = storage.TransactionStatusUnmatched
	}

	return o.processLocked(tx)
}

// ManualMatch records a user-confirmed pairing of an unmatched transaction
// and an unpaid invoice, with confidence 1.0. Amount equality is not
// required; the user's judgment overrides the engine's filters.
func (o *Orchestrator) ManualMatch(ctx context.Context, txID, invoiceID int64) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	tx, err := o.repo.GetTransaction(txID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load transaction %d: %w", txID, err)
	}
	if tx.Status == storage.TransactionStatusMatched {
		return Result{}, fmt.Errorf("transaction %d: %w", txID, ErrAlreadyMatched)
	}

	inv, err := o.repo.GetInvoice(invoiceID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load invoice %d: %w", invoiceID, err)
	}
	if inv.Status != storage.InvoiceStatusUnpaid {
		return Result{}, fmt.Errorf("invoice %d: %w", invoiceID, ErrInvoicePaid)
	}

	entry := &storage.ReconciliationLog{
		MatchedBy:       storage.MatchedByManual,
		MatchReason:     "Manual match by user",
		ConfidenceScore: 1.0,
	}
	logID, err := o.repo.RecordMatch(txID, invoiceID, entry)
	if err != nil {
		return Result{}, fmt.Errorf("failed to record manual match: %w", err)
	}

	o.logger.Info("manual match recorded",
		"transaction_id", txID,
		"invoice_id", invoiceID,
	)
	return Result{
		TransactionID: txID,
		Status:        StatusMatched,
		InvoiceID:     &invoiceID,
		Reason:        entry.MatchReason,
		Confidence:    entry.ConfidenceScore,
		LogID:         logID,
	}, nil
}

// Stats reports reconciliation progress across the whole data set.
func (o *Orchestrator) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error

	if s.TotalTransactions, err = o.repo.CountTransactions(); err != nil {
		return Stats{}, fmt.Errorf("failed to count transactions: %w", err)
	}
	if s.MatchedTransactions, err = o.repo.CountTransactionsByStatus(storage.TransactionStatusMatched); err != nil {
		return Stats{}, fmt.Errorf("failed to count matched transactions: %w", err)
	}
	if s.UnmatchedTransactions, err = o.repo.CountTransactionsByStatus(storage.TransactionStatusUnmatched); err != nil {
		return Stats{}, fmt.Errorf("failed to count unmatched transactions: %w", err)
	}
	if s.TotalInvoices, err = o.repo.CountInvoices(); err != nil {
		return Stats{}, fmt.Errorf("failed to count invoices: %w", err)
	}
	if s.PaidInvoices, err = o.repo.CountInvoicesByStatus(storage.InvoiceStatusPaid); err != nil {
		return Stats{}, fmt.Errorf("failed to count paid invoices: %w", err)
	}
	if s.UnpaidInvoices, err = o.repo.CountInvoicesByStatus(storage.InvoiceStatusUnpaid); err != nil {
		return Stats{}, fmt.Errorf("failed to count unpaid invoices: %w", err)
	}
	if s.AutoMatches, err = o.repo.CountLogsByMatchedBy(storage.MatchedByAuto); err != nil {
		return Stats{}, fmt.Errorf("failed to count auto matches: %w", err)
	}
	if s.ManualMatches, err = o.repo.CountLogsByMatchedBy(storage.MatchedByManual); err != nil {
		return Stats{}, fmt.Errorf("failed to count manual matches: %w", err)
	}
	if s.HighConfidenceLogs, err = o.repo.CountLogsByMinConfidence(highConfidenceMin); err != nil {
		return Stats{}, fmt.Errorf("failed to count high-confidence logs: %w", err)
	}
	if s.TotalUnmatchedAmount, err = o.repo.TotalAmountByStatus(storage.TransactionStatusUnmatched); err != nil {
		return Stats{}, fmt.Errorf("failed to total unmatched amounts: %w", err)
	}

	if s.TotalTransactions > 0 {
		s.MatchRate = float64(s.MatchedTransactions) / float64(s.TotalTransactions)
	}
	if s.TotalInvoices > 0 {
		s.PaymentRate = float64(s.PaidInvoices) / float64(s.TotalInvoices)
	}
	return s, nil
}
