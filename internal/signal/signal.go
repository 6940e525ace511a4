// Package signal defines the entry and exit predicates a strategy evaluates
// before trading. Signals in a chain are checked in order with short-circuit
// AND semantics: the first rejection stops evaluation.
package signal

import (
	"github.com/mautomic/optrader/internal/models"
)

// EntrySignal decides whether a flagged contract is eligible for entry.
type EntrySignal interface {
	Trigger(snap *models.Snapshot, quote *models.ContractQuote) bool
}

// ExitSignal decides whether an open position should be exited, given the
// quote from the latest snapshot matching the position's symbol.
type ExitSignal interface {
	Trigger(snap *models.Snapshot, position *models.Position, quote *models.ContractQuote) bool
}

// AcceptAllEntry is the default entry signal; it always triggers.
type AcceptAllEntry struct{}

// Trigger implements EntrySignal.
func (AcceptAllEntry) Trigger(*models.Snapshot, *models.ContractQuote) bool { return true }

// AcceptAllExit is the default exit signal; it always triggers.
type AcceptAllExit struct{}

// Trigger implements ExitSignal.
func (AcceptAllExit) Trigger(*models.Snapshot, *models.Position, *models.ContractQuote) bool {
	return true
}

var (
	_ EntrySignal = AcceptAllEntry{}
	_ ExitSignal  = AcceptAllExit{}
)
