package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mautomic/optrader/internal/models"
)

// MockPositionStore is an in-memory PositionStore for tests.
type MockPositionStore struct {
	mu        sync.Mutex
	positions map[string]models.Position

	// InsertErr and UpdateErr, when set, are returned by the matching call.
	InsertErr error
	UpdateErr error
}

var _ PositionStore = (*MockPositionStore)(nil)

// NewMockPositionStore creates an empty in-memory position store.
func NewMockPositionStore() *MockPositionStore {
	return &MockPositionStore{positions: make(map[string]models.Position)}
}

// GetPosition implements PositionStore.
func (m *MockPositionStore) GetPosition(symbol string) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// AllPositions implements PositionStore. Results are sorted by symbol for
// deterministic iteration in tests.
func (m *MockPositionStore) AllPositions() ([]models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// Insert implements PositionStore.
func (m *MockPositionStore) Insert(pos *models.Position) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.positions[pos.Symbol]; ok {
		return fmt.Errorf("duplicate position %s", pos.Symbol)
	}
	m.positions[pos.Symbol] = *pos
	return nil
}

// Update implements PositionStore.
func (m *MockPositionStore) Update(pos *models.Position) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.positions[pos.Symbol]; !ok {
		return ErrNotFound
	}
	m.positions[pos.Symbol] = *pos
	return nil
}

// MockArchiveStore is an in-memory ArchiveStore for tests.
type MockArchiveStore struct {
	mu        sync.Mutex
	chains    map[string]*models.Snapshot // "<date>/<ticker>_<n>"
	sequences map[string]int
}

var _ ArchiveStore = (*MockArchiveStore)(nil)

// NewMockArchiveStore creates an empty in-memory archive.
func NewMockArchiveStore() *MockArchiveStore {
	return &MockArchiveStore{
		chains:    make(map[string]*models.Snapshot),
		sequences: make(map[string]int),
	}
}

func archiveKey(date, ticker string, seq int) string {
	return fmt.Sprintf("%s/%s_%d", date, ticker, seq)
}

// PutChain implements ArchiveStore.
func (m *MockArchiveStore) PutChain(date string, seq int, snap *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chains[archiveKey(date, snap.Ticker, seq)] = snap
	return nil
}

// GetChain implements ArchiveStore.
func (m *MockArchiveStore) GetChain(date, ticker string, seq int) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.chains[archiveKey(date, ticker, seq)]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

// GetSequenceNum implements ArchiveStore.
func (m *MockArchiveStore) GetSequenceNum(date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.sequences[date]
	if !ok {
		return 0, ErrNotFound
	}
	return n, nil
}

// SetSequenceNum implements ArchiveStore.
func (m *MockArchiveStore) SetSequenceNum(date string, seq int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[date] = seq
	return nil
}
