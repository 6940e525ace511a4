package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mautomic/optrader/internal/portfolio"
	"github.com/mautomic/optrader/internal/queue"
	"github.com/mautomic/optrader/internal/storage"
)

// ReplayFetcher drains one day's archived snapshots through the queue in
// recording order. It never touches the live feed, and it never enqueues
// archive actions, so replays do not rewrite history.
type ReplayFetcher struct {
	archive  storage.ArchiveStore
	queue    *queue.Queue
	managers []*portfolio.Manager
	tickers  []string
	date     string
	logger   *log.Logger
}

var _ Fetcher = (*ReplayFetcher)(nil)

// NewReplayFetcher creates a replay over the archive for date (YYYYMMDD).
func NewReplayFetcher(
	archive storage.ArchiveStore,
	q *queue.Queue,
	managers []*portfolio.Manager,
	tickers []string,
	date string,
	logger *log.Logger,
) *ReplayFetcher {
	return &ReplayFetcher{
		archive:  archive,
		queue:    q,
		managers: managers,
		tickers:  tickers,
		date:     date,
		logger:   logger,
	}
}

// Run enqueues every archived snapshot for the replay date in sequence order
// and closes the queue when the archive is exhausted, signaling downstream
// consumers that no more work is coming. A date with no recorded sequence
// number is an error: there is nothing to replay.
func (f *ReplayFetcher) Run(ctx context.Context) error {
	last, err := f.archive.GetSequenceNum(f.date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no archived snapshots for %s", f.date)
		}
		return fmt.Errorf("read sequence number for %s: %w", f.date, err)
	}
	f.logger.Printf("Replaying %s through sequence %d", f.date, last)

	for seq := 1; seq <= last; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, ticker := range f.tickers {
			snap, err := f.archive.GetChain(f.date, ticker, seq)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("read %s sequence %d: %w", ticker, seq, err)
			}
			f.queue.Push(portfolio.NewRefreshAction(f.managers, snap))
			f.queue.Push(portfolio.NewTradingAction(f.managers, snap))
		}
	}

	f.queue.Close()
	return nil
}
