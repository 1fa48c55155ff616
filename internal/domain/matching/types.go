package matching

import (
	"errors"

	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// AutoMatchThreshold is the minimum confidence at which the orchestrator
// commits a match without human review.
const AutoMatchThreshold = 0.7

// Confidence levels per strategy.
const (
	confidenceExactReference  = 1.0
	confidenceReferenceInName = 0.9
	confidenceNameBase        = 0.7
	confidenceNameBonus       = 0.2
	confidencePartialMention  = 0.6
	confidenceAmountOnly      = 0.3
)

// ErrInvalidInput is returned when the transaction handed to the engine is
// malformed. The engine fails fast before any state is touched.
var ErrInvalidInput = errors.New("invalid transaction input")

// Result is the engine's verdict for one transaction.
// Invoice is nil when nothing matched at all; Confidence is then 0.0. The
// amount-only fallback is the one case with a non-nil invoice below the
// auto-match threshold.
type Result struct {
	Invoice    *storage.Invoice
	Confidence float64
	Reason     string
}

// Matched reports whether the result clears the auto-match threshold.
func (r Result) Matched() bool {
	return r.Invoice != nil && r.Confidence >= AutoMatchThreshold
}
