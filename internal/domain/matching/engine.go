// Package matching scores candidate invoices against bank transactions.
//
// The engine evaluates a fixed-priority list of strategies:
//  1. exact reference number match (1.0)
//  2. reference number inside customer name (0.9)
//  3. customer name token found in description (0.7 + up to 0.2 similarity)
//  4. full customer name mentioned in description or reference (0.6)
//  5. amount-only fallback (0.3, manual verification required)
//
// Candidates must be pre-filtered to unpaid invoices whose amount_due
// exactly equals the transaction amount; amount equality is a hard filter
// that no strategy relaxes. A 1.0 result short-circuits; otherwise every
// strategy runs and the highest confidence wins, ties keeping the earliest
// result.
package matching

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// Engine finds the best invoice match for a transaction. It is pure: all
// data comes in through arguments, so callers control query ordering.
type Engine struct{}

// NewEngine creates a matching engine.
func NewEngine() *Engine {
	return &Engine{}
}

// FindBestMatch evaluates all strategies and returns the best candidate.
// candidates are unpaid invoices with amount_due equal to tx.Amount, in
// repository insertion order; customers is the full customer list in the
// same order.
func (e *Engine) FindBestMatch(
	tx *storage.BankTransaction,
	candidates []*storage.Invoice,
	customers []*storage.Customer,
) (Result, error) {
	if tx == nil {
		return Result{}, fmt.Errorf("%w: nil transaction", ErrInvalidInput)
	}
	if tx.Amount.LessThanOrEqual(decimal.Zero) {
		return Result{}, fmt.Errorf("%w: non-positive amount %s", ErrInvalidInput, tx.Amount)
	}

	best := Result{Confidence: 0.0, Reason: "No match found"}
	ref := strings.TrimSpace(tx.ReferenceNumber)

	// Strategy 1: exact reference number match. The only strategy allowed
	// to short-circuit - nothing can override a 1.0.
	if ref != "" {
		for _, inv := range candidates {
			if strings.EqualFold(inv.ReferenceNumber, ref) {
				return Result{
					Invoice:    inv,
					Confidence: confidenceExactReference,
					Reason:     "Exact reference number and amount match",
				}, nil
			}
		}
	}

	// Strategy 2: reference number appears inside a customer name.
	if ref != "" {
		for _, inv := range candidates {
			if containsFold(inv.CustomerName, ref) {
				best = keepBetter(best, Result{
					Invoice:    inv,
					Confidence: confidenceReferenceInName,
					Reason:     "Reference number matches customer name and amount matches",
				})
				break
			}
		}
	}

	// Strategy 3: tokens extracted from the description found inside a
	// customer name, confidence scaled by name similarity. First eligible
	// invoice per token; maximum across tokens.
	for _, name := range ExtractCandidateNames(tx.Description) {
		for _, inv := range candidates {
			if containsFold(inv.CustomerName, name) {
				similarity := NameSimilarity(name, inv.CustomerName)
				best = keepBetter(best, Result{
					Invoice:    inv,
					Confidence: confidenceNameBase + confidenceNameBonus*similarity,
					Reason:     fmt.Sprintf("Customer name %q found in description, amount matches", name),
				})
				break
			}
		}
	}

	// Strategy 4: full customer name mentioned anywhere in the description
	// or reference. Scans every customer even after strategy 3 found a hit;
	// a later result replaces only on strictly higher confidence.
	for _, customer := range customers {
		if !isMentioned(customer.Name, tx.Description) && !isMentioned(customer.Name, tx.ReferenceNumber) {
			continue
		}
		for _, inv := range candidates {
			if inv.CustomerID == customer.ID {
				best = keepBetter(best, Result{
					Invoice:    inv,
					Confidence: confidencePartialMention,
					Reason:     fmt.Sprintf("Partial customer name match for %q, amount matches", customer.Name),
				})
				break
			}
		}
	}

	// Strategy 5: amount-only fallback, applied only when nothing above
	// produced any result.
	if best.Confidence == 0.0 && len(candidates) > 0 {
		best = Result{
			Invoice:    candidates[0],
			Confidence: confidenceAmountOnly,
			Reason:     "Amount-only match - requires manual verification",
		}
	}

	return best, nil
}

// keepBetter replaces current only on strictly higher confidence, so ties
// keep the earliest-found result.
func keepBetter(current, candidate Result) Result {
	if candidate.Confidence > current.Confidence {
		return candidate
	}
	return current
}

// containsFold reports whether needle is a case-insensitive substring of
// haystack.
func containsFold(haystack, needle string) bool {
	if haystack == "" || needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// isMentioned reports whether the customer name appears in the text.
func isMentioned(customerName, text string) bool {
	return containsFold(text, customerName)
}
