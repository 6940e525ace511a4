// Package scheduler produces snapshots for the action queue, either on a
// fixed cadence from the live market-data feed or by draining a historical
// archive for replay.
package scheduler

import (
	"context"
	"time"
)

// dateFormat is the per-day archive key format, e.g. "20260831".
const dateFormat = "20060102"

// expirationFormat is the feed's expiration date query format.
const expirationFormat = "2006-01-02"

// Fetcher is a snapshot producer. Run blocks until the producer finishes
// (replay) or the context is canceled (live).
type Fetcher interface {
	Run(ctx context.Context) error
}

// Clock abstracts wall-clock access so cycle pacing and end-of-day triggers
// are testable with a fake.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

// NewRealClock returns a Clock backed by the system clock.
func NewRealClock() Clock { return realClock{} }

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// BatchTickers partitions tickers into batches of at most size, bounding the
// number of concurrent feed requests per group.
func BatchTickers(tickers []string, size int) [][]string {
	if size <= 0 || len(tickers) <= size {
		return [][]string{tickers}
	}
	var batches [][]string
	for i := 0; i < len(tickers); i += size {
		end := i + size
		if end > len(tickers) {
			end = len(tickers)
		}
		batches = append(batches, tickers[i:end])
	}
	return batches
}
