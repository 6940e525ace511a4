// Package queue implements the ordered, multi-producer single-consumer work
// queue that decouples snapshot production from strategy execution. All
// state-mutating work in the process funnels through one consumer goroutine,
// which is the serialization point that keeps position records free of
// concurrent mutation.
package queue

import (
	"log"
	"sync"
)

// Action is a unit of deferred work produced by a fetcher and executed by the
// queue consumer. Actions run at most once; a failed action is logged and
// discarded, never retried.
type Action interface {
	// ID identifies the action instance in logs.
	ID() string
	// Process executes the action to completion.
	Process() error
}

// Queue is an unbounded FIFO of actions. Push may be called from any number
// of goroutines; exactly one goroutine must run Consume.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Action
	closed bool
	done   chan struct{}
	logger *log.Logger
}

// New creates an empty queue.
func New(logger *log.Logger) *Queue {
	q := &Queue{
		done:   make(chan struct{}),
		logger: logger,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an action. Pushes after Close are dropped with a log line
// rather than panicking, since a live fetcher may race a shutdown.
func (q *Queue) Push(a Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Printf("Queue closed, dropping action %s", a.ID())
		return
	}
	q.items = append(q.items, a)
	q.cond.Signal()
}

// Len returns the number of actions waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the end of production. The consumer drains whatever remains,
// then Done is closed. Safe to call once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
}

// Done is closed once the queue has been closed and fully drained. This is
// the replay completion signal: queue empty AND producer finished.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Consume runs the single-consumer loop: block until an action is available,
// remove exactly one, execute it to completion, repeat. Errors and panics
// from one action are logged and do not stop the loop or lose later actions.
// Consume returns after Close once the queue is empty.
func (q *Queue) Consume() {
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			close(q.done)
			return
		}
		a := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		q.execute(a)
	}
}

func (q *Queue) execute(a Action) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Printf("Panic processing action %s: %v", a.ID(), r)
		}
	}()
	if err := a.Process(); err != nil {
		q.logger.Printf("Error processing action %s: %v", a.ID(), err)
	}
}
