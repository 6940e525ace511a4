package portfolio

import (
	"errors"

	"github.com/google/uuid"

	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/queue"
	"github.com/mautomic/optrader/internal/storage"
)

// TradingAction runs every manager's strategy against one snapshot.
type TradingAction struct {
	id       string
	managers []*Manager
	snap     *models.Snapshot
}

var _ queue.Action = (*TradingAction)(nil)

// NewTradingAction creates the action delivering snap to managers.
func NewTradingAction(managers []*Manager, snap *models.Snapshot) *TradingAction {
	return &TradingAction{id: "trade-" + uuid.NewString(), managers: managers, snap: snap}
}

// ID implements queue.Action.
func (a *TradingAction) ID() string { return a.id }

// Process implements queue.Action. A failure in one manager does not stop the
// others; errors are joined.
func (a *TradingAction) Process() error {
	var errs []error
	for _, m := range a.managers {
		if err := m.RunStrategy(a.snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RefreshAction re-marks every manager's open positions from one snapshot.
// It is enqueued ahead of the TradingAction so exit checks and hedging see
// current prices.
type RefreshAction struct {
	id       string
	managers []*Manager
	snap     *models.Snapshot
}

var _ queue.Action = (*RefreshAction)(nil)

// NewRefreshAction creates the action refreshing managers from snap.
func NewRefreshAction(managers []*Manager, snap *models.Snapshot) *RefreshAction {
	return &RefreshAction{id: "refresh-" + uuid.NewString(), managers: managers, snap: snap}
}

// ID implements queue.Action.
func (a *RefreshAction) ID() string { return a.id }

// Process implements queue.Action.
func (a *RefreshAction) Process() error {
	var errs []error
	for _, m := range a.managers {
		if err := m.RefreshPositions(a.snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ArchiveAction records a raw snapshot in the archive under
// "<ticker>_<sequence>" for the trading date, enabling later replay.
type ArchiveAction struct {
	id      string
	archive storage.ArchiveStore
	date    string
	seq     int
	snap    *models.Snapshot
}

var _ queue.Action = (*ArchiveAction)(nil)

// NewArchiveAction creates the action archiving snap as sequence seq.
func NewArchiveAction(archive storage.ArchiveStore, date string, seq int, snap *models.Snapshot) *ArchiveAction {
	return &ArchiveAction{id: "archive-" + uuid.NewString(), archive: archive, date: date, seq: seq, snap: snap}
}

// ID implements queue.Action.
func (a *ArchiveAction) ID() string { return a.id }

// Process implements queue.Action.
func (a *ArchiveAction) Process() error {
	return a.archive.PutChain(a.date, a.seq, a.snap)
}
