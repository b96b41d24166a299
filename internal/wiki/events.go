package wiki

import (
	"context"
	"sync"
	"sync/atomic"
)

// Clock is a monotonic logical clock. Change events are stamped with
// strictly increasing sequence numbers so consumers can order them without
// relying on wall time.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock starting at start, for resuming a sequence.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// ChangeEvent is one recorded add or delete.
type ChangeEvent struct {
	Seq     int64
	Title   string
	Deleted bool
}

// ChangeQueue is a Hooks implementation that records tiddler events for an
// indexer running outside the boot kernel. Cache hooks are counted but
// otherwise ignored.
//
// The queue is unbounded and safe for concurrent use: the store enqueues
// while a consumer drains from another goroutine.
type ChangeQueue struct {
	NopHooks

	clock  *Clock
	mu     sync.Mutex
	events []ChangeEvent
	signal chan struct{}

	globalClears atomic.Int64
}

// NewChangeQueue returns an empty queue stamping events from clock. A nil
// clock starts a fresh one.
func NewChangeQueue(clock *Clock) *ChangeQueue {
	if clock == nil {
		clock = NewClock()
	}
	return &ChangeQueue{
		clock:  clock,
		events: make([]ChangeEvent, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// EnqueueTiddlerEvent implements Hooks.
func (q *ChangeQueue) EnqueueTiddlerEvent(title string, deleted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, ChangeEvent{
		Seq:     q.clock.Next(),
		Title:   title,
		Deleted: deleted,
	})

	// Buffer of one coalesces wakeups.
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// ClearGlobalCache implements Hooks.
func (q *ChangeQueue) ClearGlobalCache() {
	q.globalClears.Add(1)
}

// GlobalClears returns how many store-wide invalidations were requested.
func (q *ChangeQueue) GlobalClears() int64 {
	return q.globalClears.Load()
}

// Drain removes and returns every pending event in sequence order.
func (q *ChangeQueue) Drain() []ChangeEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.events
	q.events = make([]ChangeEvent, 0, 64)
	return out
}

// Len returns the number of pending events.
func (q *ChangeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Wait blocks until at least one event is pending or ctx is done.
func (q *ChangeQueue) Wait(ctx context.Context) error {
	for {
		if q.Len() > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.signal:
		}
	}
}
