package strategy

import (
	"fmt"
	"log"

	"github.com/mautomic/optrader/internal/hedge"
	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/signal"
)

// defaultEntryQuantity is the lot size for every signal-driven entry. Sizing
// beyond one contract is a portfolio-level concern this strategy does not own.
const defaultEntryQuantity = 1

// UnusualVolumeStrategy scans the call side of each snapshot for contracts
// trading at statistically unusual volume, enters the ones the entry signal
// chain accepts, exits open positions the exit chain flags, then delegates to
// the hedger to re-neutralize delta.
type UnusualVolumeStrategy struct {
	BaseStrategy
	entrySignals []signal.EntrySignal
	exitSignals  []signal.ExitSignal
	hedger       hedge.Hedger
	tickers      []string
	logger       *log.Logger
}

var _ Strategy = (*UnusualVolumeStrategy)(nil)

// NewUnusualVolumeStrategy builds the strategy. The signal chains are
// evaluated in order with short-circuit AND semantics; empty chains accept
// everything.
func NewUnusualVolumeStrategy(
	base BaseStrategy,
	entrySignals []signal.EntrySignal,
	exitSignals []signal.ExitSignal,
	hedger hedge.Hedger,
	tickers []string,
	logger *log.Logger,
) *UnusualVolumeStrategy {
	return &UnusualVolumeStrategy{
		BaseStrategy: base,
		entrySignals: entrySignals,
		exitSignals:  exitSignals,
		hedger:       hedger,
		tickers:      tickers,
		logger:       logger,
	}
}

// Run executes one full pass for a snapshot: entries, exits, hedge.
func (s *UnusualVolumeStrategy) Run(snap *models.Snapshot) error {
	if snap == nil {
		return nil
	}
	quotes := snap.Flatten()

	for _, strikes := range snap.Calls {
		for _, quote := range unusualVolume(strikes) {
			q := quote
			if err := s.checkEntrySignals(snap, &q, defaultEntryQuantity); err != nil {
				return err
			}
		}
	}

	current, err := s.positions.AllPositions()
	if err != nil {
		return fmt.Errorf("read positions for exit checks: %w", err)
	}
	for i := range current {
		if err := s.checkExitSignals(snap, quotes, &current[i], defaultEntryQuantity); err != nil {
			return err
		}
	}

	current, err = s.positions.AllPositions()
	if err != nil {
		return fmt.Errorf("read positions for hedging: %w", err)
	}
	return s.hedger.Hedge(s.positions, snap, s.tickers, current)
}

// checkEntrySignals enters the contract only if every entry signal triggers.
func (s *UnusualVolumeStrategy) checkEntrySignals(snap *models.Snapshot, quote *models.ContractQuote, quantity int) error {
	for _, sig := range s.entrySignals {
		if !sig.Trigger(snap, quote) {
			return nil
		}
	}
	return s.Enter(quote, quantity)
}

// checkExitSignals exits the position only if every exit signal triggers. A
// position whose symbol is absent from the snapshot aborts the attempt.
func (s *UnusualVolumeStrategy) checkExitSignals(snap *models.Snapshot, quotes map[string]models.ContractQuote, position *models.Position, quantity int) error {
	quote, ok := quotes[position.Symbol]
	var quotePtr *models.ContractQuote
	if ok {
		quotePtr = &quote
	}
	for _, sig := range s.exitSignals {
		if !sig.Trigger(snap, position, quotePtr) {
			return nil
		}
	}
	if quotePtr == nil {
		s.logger.Printf("Option %s is not found in latest option map, aborting exit attempt", position.Symbol)
		return nil
	}
	return s.Exit(position, quotePtr, quantity)
}
