// Package trader wires the snapshot producer, the action queue, and the
// portfolio managers into one running engine.
package trader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mautomic/optrader/internal/alert"
	"github.com/mautomic/optrader/internal/portfolio"
	"github.com/mautomic/optrader/internal/queue"
	"github.com/mautomic/optrader/internal/scheduler"
)

// Config carries the runtime mode and end-of-day report schedule.
type Config struct {
	// Replay makes Run treat queue exhaustion as completion instead of
	// running until canceled.
	Replay bool
	// EODEnabled turns on the daily report in live mode.
	EODEnabled bool
	// EODHour and EODMinute give the report time in Location.
	EODHour   int
	EODMinute int
	Location  *time.Location
}

// OptionTrader owns the queue consumer and the producing fetcher. Exactly one
// consumer goroutine processes actions, so strategies and position updates
// never run concurrently.
type OptionTrader struct {
	queue    *queue.Queue
	fetcher  scheduler.Fetcher
	managers []*portfolio.Manager
	alerter  alert.Alerter
	clock    scheduler.Clock
	cfg      Config
	logger   *log.Logger
}

// New creates an OptionTrader.
func New(
	q *queue.Queue,
	fetcher scheduler.Fetcher,
	managers []*portfolio.Manager,
	alerter alert.Alerter,
	clock scheduler.Clock,
	cfg Config,
	logger *log.Logger,
) *OptionTrader {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &OptionTrader{
		queue:    q,
		fetcher:  fetcher,
		managers: managers,
		alerter:  alerter,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run starts the consumer and the fetcher and blocks until the engine
// finishes. In replay mode that is when the archive is exhausted and every
// queued action has been processed; in live mode it is context cancellation,
// after which remaining queued actions are drained before returning.
func (t *OptionTrader) Run(ctx context.Context) error {
	consumerDone := make(chan struct{})
	go func() {
		t.queue.Consume()
		close(consumerDone)
	}()

	if t.cfg.EODEnabled && !t.cfg.Replay {
		go t.reportLoop(ctx)
	}

	err := t.fetcher.Run(ctx)

	if t.cfg.Replay {
		if err != nil {
			return err
		}
		// The replay fetcher closed the queue; completion is the queue
		// fully drained, not a timer.
		select {
		case <-t.queue.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		<-consumerDone
		t.sendReport("Replay complete")
		return nil
	}

	t.queue.Close()
	<-consumerDone
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// reportLoop sends one report per day at the configured time.
func (t *OptionTrader) reportLoop(ctx context.Context) {
	for {
		now := t.clock.Now().In(t.cfg.Location)
		next := time.Date(now.Year(), now.Month(), now.Day(),
			t.cfg.EODHour, t.cfg.EODMinute, 0, 0, t.cfg.Location)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.clock.After(next.Sub(now)):
			t.sendReport("End of day report")
		}
	}
}

func (t *OptionTrader) sendReport(subject string) {
	body, err := BuildReport(t.managers)
	if err != nil {
		t.logger.Printf("Error building report: %v", err)
		return
	}
	if err := t.alerter.Send(subject, body); err != nil {
		t.logger.Printf("Error sending report: %v", err)
	}
}

// BuildReport summarizes every portfolio: open position count, unrealized
// PnL on the open book, and realized PnL across everything traded.
func BuildReport(managers []*portfolio.Manager) (string, error) {
	var b strings.Builder
	for _, m := range managers {
		positions, err := m.Positions().AllPositions()
		if err != nil {
			return "", fmt.Errorf("read positions for %s: %w", m.Name(), err)
		}

		var open int
		var unrealized, realized float64
		for _, pos := range positions {
			realized += pos.RealizedPnL
			if !pos.IsOpen() {
				continue
			}
			open++
			unrealized += pos.UnrealizedPnL
		}

		fmt.Fprintf(&b, "Portfolio %s: %d open, unrealized %.2f, realized %.2f\n",
			m.Name(), open, unrealized, realized)
		for _, pos := range positions {
			if !pos.IsOpen() {
				continue
			}
			fmt.Fprintf(&b, "  %s qty %d last %.2f unrealized %.2f\n",
				pos.Symbol, pos.Quantity, pos.LastPrice, pos.UnrealizedPnL)
		}
	}
	return b.String(), nil
}
