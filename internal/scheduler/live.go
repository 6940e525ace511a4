package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mautomic/optrader/internal/feed"
	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/portfolio"
	"github.com/mautomic/optrader/internal/queue"
	"github.com/mautomic/optrader/internal/storage"
)

// LiveConfig carries the tunable parameters of a live fetcher.
type LiveConfig struct {
	// Interval is the start-to-start spacing between fetch cycles.
	Interval time.Duration
	// MaxDaysToExpiration bounds how far out the requested chains go.
	MaxDaysToExpiration int
	// StrikeCount is the number of strikes requested around the money.
	StrikeCount int
	// BatchSize bounds how many chain requests run concurrently.
	BatchSize int
	// RequestsPerSecond throttles feed requests across a batch.
	RequestsPerSecond float64
}

// LiveFetcher pulls option chains from the feed on a fixed cadence and
// enqueues refresh, trading, and archive actions for every snapshot.
//
// Each archived snapshot is labeled with a per-day sequence number seeded
// from the archive at the start of the day, so a mid-day restart keeps
// appending instead of overwriting the morning's recording. All sequence
// bookkeeping happens on the fetcher goroutine.
type LiveFetcher struct {
	feed     feed.Feed
	queue    *queue.Queue
	managers []*portfolio.Manager
	archive  storage.ArchiveStore
	batches  [][]string
	cfg      LiveConfig
	limiter  *rate.Limiter
	clock    Clock
	logger   *log.Logger

	seq     int
	seqDate string
}

var _ Fetcher = (*LiveFetcher)(nil)

// NewLiveFetcher creates a live fetcher over the given tickers.
func NewLiveFetcher(
	f feed.Feed,
	q *queue.Queue,
	managers []*portfolio.Manager,
	archive storage.ArchiveStore,
	tickers []string,
	cfg LiveConfig,
	clock Clock,
	logger *log.Logger,
) *LiveFetcher {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	return &LiveFetcher{
		feed:     f,
		queue:    q,
		managers: managers,
		archive:  archive,
		batches:  BatchTickers(tickers, cfg.BatchSize),
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		clock:    clock,
		logger:   logger,
	}
}

// Run fetches on a fixed-delay timer until the context is canceled. The next
// cycle begins Interval after the previous one started, regardless of how
// long the previous cycle took.
func (f *LiveFetcher) Run(ctx context.Context) error {
	for {
		next := f.clock.After(f.cfg.Interval)
		if err := f.RunCycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			f.logger.Printf("Fetch cycle failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-next:
		}
	}
}

// RunCycle performs one fetch pass over every batch of tickers.
func (f *LiveFetcher) RunCycle(ctx context.Context) error {
	now := f.clock.Now()
	date := now.Format(dateFormat)
	if err := f.seedSequence(date); err != nil {
		return err
	}
	maxExpiration := now.AddDate(0, 0, f.cfg.MaxDaysToExpiration).Format(expirationFormat)

	for _, batch := range f.batches {
		snaps, err := f.fetchBatch(ctx, batch, maxExpiration)
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			if snap == nil {
				continue
			}
			f.queue.Push(portfolio.NewRefreshAction(f.managers, snap))
			f.queue.Push(portfolio.NewTradingAction(f.managers, snap))
			f.queue.Push(portfolio.NewArchiveAction(f.archive, date, f.seq, snap))
			if err := f.archive.SetSequenceNum(date, f.seq); err != nil {
				return fmt.Errorf("persist sequence number %d for %s: %w", f.seq, date, err)
			}
			f.seq++
		}
	}
	return nil
}

// seedSequence initializes the per-day counter on the first cycle of a
// trading date. An archive that already holds snapshots for today means this
// process restarted mid-day, so numbering continues after the last recorded
// sequence.
func (f *LiveFetcher) seedSequence(date string) error {
	if date == f.seqDate {
		return nil
	}
	last, err := f.archive.GetSequenceNum(date)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		f.seq = 1
	case err != nil:
		return fmt.Errorf("read sequence number for %s: %w", date, err)
	default:
		f.seq = last + 1
		f.logger.Printf("Resuming archive for %s at sequence %d", date, f.seq)
	}
	f.seqDate = date
	return nil
}

// fetchBatch requests one chain per ticker concurrently, honoring the rate
// limiter. A feed error for one ticker is logged and skipped; only context
// cancellation aborts the batch.
func (f *LiveFetcher) fetchBatch(ctx context.Context, tickers []string, maxExpiration string) ([]*models.Snapshot, error) {
	snaps := make([]*models.Snapshot, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			if err := f.limiter.Wait(gctx); err != nil {
				return err
			}
			snap, err := f.feed.GetOptionChain(gctx, ticker, maxExpiration, f.cfg.StrikeCount)
			if err != nil {
				f.logger.Printf("Error fetching option chain for %s: %v", ticker, err)
				return nil
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snaps, nil
}
