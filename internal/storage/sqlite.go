package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mautomic/optrader/internal/models"
)

// sequenceKey is the reserved archive key holding the per-day sequence
// number alongside the recorded snapshots.
const sequenceKey = "sequence_num"

// SQLiteStore backs both the position and archive contracts with a single
// SQLite database. Position collections are namespaced by portfolio name so
// several portfolio managers can share one file.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS positions (
		collection       TEXT NOT NULL,
		symbol           TEXT NOT NULL,
		buy_price        REAL NOT NULL,
		last_price       REAL NOT NULL,
		close_price      REAL NOT NULL DEFAULT 0,
		quantity         INTEGER NOT NULL,
		entry_date       TEXT NOT NULL,
		delta            REAL NOT NULL,
		gamma            REAL NOT NULL,
		theta            REAL NOT NULL,
		vega             REAL NOT NULL,
		volatility       REAL NOT NULL,
		commission       REAL NOT NULL,
		buy_notional     REAL NOT NULL,
		current_notional REAL NOT NULL,
		unrealized_pnl   REAL NOT NULL DEFAULT 0,
		realized_pnl     REAL NOT NULL DEFAULT 0,
		status           TEXT NOT NULL,
		PRIMARY KEY (collection, symbol)
	);

	CREATE TABLE IF NOT EXISTS archive (
		date  TEXT NOT NULL,
		key   TEXT NOT NULL,
		chain TEXT NOT NULL,
		PRIMARY KEY (date, key)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Positions returns the position store view for one portfolio collection.
func (s *SQLiteStore) Positions(collection string) PositionStore {
	return &sqlitePositions{db: s.db, collection: collection}
}

// Archive returns the snapshot archive view.
func (s *SQLiteStore) Archive() ArchiveStore {
	return &sqliteArchive{db: s.db}
}

type sqlitePositions struct {
	db         *sql.DB
	collection string
}

var _ PositionStore = (*sqlitePositions)(nil)

const positionColumns = `symbol, buy_price, last_price, close_price, quantity, entry_date,
	delta, gamma, theta, vega, volatility, commission,
	buy_notional, current_notional, unrealized_pnl, realized_pnl, status`

func scanPosition(row interface{ Scan(...any) error }) (*models.Position, error) {
	var p models.Position
	err := row.Scan(&p.Symbol, &p.BuyPrice, &p.LastPrice, &p.ClosePrice, &p.Quantity, &p.EntryDate,
		&p.Delta, &p.Gamma, &p.Theta, &p.Vega, &p.Volatility, &p.Commission,
		&p.BuyNotional, &p.CurrentNotional, &p.UnrealizedPnL, &p.RealizedPnL, &p.Status)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *sqlitePositions) GetPosition(symbol string) (*models.Position, error) {
	row := s.db.QueryRow(
		"SELECT "+positionColumns+" FROM positions WHERE collection = ? AND symbol = ?",
		s.collection, symbol)
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get position %s: %w", symbol, err)
	}
	return p, nil
}

func (s *sqlitePositions) AllPositions() ([]models.Position, error) {
	rows, err := s.db.Query(
		"SELECT "+positionColumns+" FROM positions WHERE collection = ? ORDER BY symbol",
		s.collection)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, *p)
	}
	return positions, rows.Err()
}

func (s *sqlitePositions) Insert(pos *models.Position) error {
	_, err := s.db.Exec(
		`INSERT INTO positions (collection, `+positionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.collection, pos.Symbol, pos.BuyPrice, pos.LastPrice, pos.ClosePrice, pos.Quantity, pos.EntryDate,
		pos.Delta, pos.Gamma, pos.Theta, pos.Vega, pos.Volatility, pos.Commission,
		pos.BuyNotional, pos.CurrentNotional, pos.UnrealizedPnL, pos.RealizedPnL, pos.Status)
	if err != nil {
		return fmt.Errorf("insert position %s: %w", pos.Symbol, err)
	}
	return nil
}

func (s *sqlitePositions) Update(pos *models.Position) error {
	res, err := s.db.Exec(
		`UPDATE positions SET buy_price = ?, last_price = ?, close_price = ?, quantity = ?,
		 entry_date = ?, delta = ?, gamma = ?, theta = ?, vega = ?, volatility = ?,
		 commission = ?, buy_notional = ?, current_notional = ?, unrealized_pnl = ?,
		 realized_pnl = ?, status = ?
		 WHERE collection = ? AND symbol = ?`,
		pos.BuyPrice, pos.LastPrice, pos.ClosePrice, pos.Quantity,
		pos.EntryDate, pos.Delta, pos.Gamma, pos.Theta, pos.Vega, pos.Volatility,
		pos.Commission, pos.BuyNotional, pos.CurrentNotional, pos.UnrealizedPnL,
		pos.RealizedPnL, pos.Status,
		s.collection, pos.Symbol)
	if err != nil {
		return fmt.Errorf("update position %s: %w", pos.Symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type sqliteArchive struct {
	db *sql.DB
}

var _ ArchiveStore = (*sqliteArchive)(nil)

func (a *sqliteArchive) PutChain(date string, seq int, snap *models.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.Ticker, err)
	}
	key := fmt.Sprintf("%s_%d", snap.Ticker, seq)
	if _, err := a.db.Exec(
		"INSERT INTO archive (date, key, chain) VALUES (?, ?, ?)", date, key, string(raw)); err != nil {
		return fmt.Errorf("archive %s for %s: %w", key, date, err)
	}
	return nil
}

func (a *sqliteArchive) GetChain(date, ticker string, seq int) (*models.Snapshot, error) {
	key := fmt.Sprintf("%s_%d", ticker, seq)
	var raw string
	err := a.db.QueryRow(
		"SELECT chain FROM archive WHERE date = ? AND key = ?", date, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read archive %s for %s: %w", key, date, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal archive %s: %w", key, err)
	}
	return &snap, nil
}

func (a *sqliteArchive) GetSequenceNum(date string) (int, error) {
	var raw string
	err := a.db.QueryRow(
		"SELECT chain FROM archive WHERE date = ? AND key = ?", date, sequenceKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence number for %s: %w", date, err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("corrupt sequence number for %s: %w", date, err)
	}
	return n, nil
}

func (a *sqliteArchive) SetSequenceNum(date string, seq int) error {
	_, err := a.db.Exec(
		`INSERT INTO archive (date, key, chain) VALUES (?, ?, ?)
		 ON CONFLICT(date, key) DO UPDATE SET chain = excluded.chain`,
		date, sequenceKey, strconv.Itoa(seq))
	if err != nil {
		return fmt.Errorf("store sequence number for %s: %w", date, err)
	}
	return nil
}
