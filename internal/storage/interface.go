// Package storage persists position records and archived option chain
// snapshots. The provided SQLite implementation backs both contracts; tests
// use the in-memory mock.
package storage

import (
	"github.com/mautomic/optrader/internal/models"
)

// PositionStore is the keyed collection of position records for one
// portfolio. All state-mutating calls happen on the action consumer
// goroutine, so implementations need no record-level locking beyond whatever
// their backend requires.
type PositionStore interface {
	// GetPosition returns the record for symbol, or ErrNotFound.
	GetPosition(symbol string) (*models.Position, error)
	// AllPositions returns every record in the collection, open and closed.
	AllPositions() ([]models.Position, error)
	// Insert adds a new record. The symbol must not already exist.
	Insert(pos *models.Position) error
	// Update replaces the record matching pos.Symbol.
	Update(pos *models.Position) error
}

// ArchiveStore is the append-only collection of raw snapshots recorded for
// later replay, keyed "<ticker>_<n>" per calendar day, plus the per-day
// sequence number stored under a reserved key.
type ArchiveStore interface {
	// PutChain archives a snapshot for date under sequence number seq.
	PutChain(date string, seq int, snap *models.Snapshot) error
	// GetChain returns the archived snapshot, or ErrNotFound.
	GetChain(date, ticker string, seq int) (*models.Snapshot, error)
	// GetSequenceNum returns the stored sequence number for date, or
	// ErrNotFound if no snapshot has been recorded yet that day.
	GetSequenceNum(date string) (int, error)
	// SetSequenceNum stores (or replaces) the sequence number for date.
	SetSequenceNum(date string, seq int) error
}
