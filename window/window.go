// Package window implements the reader-side chronological sliding-window
// priority queue, per spec.md §4.7: a bounded min-heap of (timestamp,
// value) pairs with blocking and non-blocking push/pop, keyed by two
// configured bounds (MinWindow, MaxWindow) that trade latency for
// ordering confidence.
//
// The sorted storage is window/ring.go, adapted from the teacher catrate
// package's masked ring buffer. Queue itself — the mutex/condition-
// variable blocking semantics — has no teacher analog (catrate.Limiter
// reads its ring buffer under a single mutex with no blocking wait at
// all); it is built directly from spec.md §4.7/§5's "guarded by a mutex +
// condition variables" requirement, in the teacher's general concurrency
// idiom of sync.Mutex-protected structs rather than channels.
package window

import (
	"sync"

	"github.com/inspectortrace/inspector/internal/errs"
)

// Queue is a bounded, chronologically-ordered priority queue keyed by a
// numeric timestamp of type K, carrying an arbitrary payload V.
type Queue[K Numeric, V any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf *ringBuffer[K, V]

	minWindow K
	maxWindow K

	started bool
	lower   K
	upper   K
	closed  bool
}

// New creates a Queue with the given window bounds (in the same units as
// the timestamps that will be pushed, typically nanoseconds) and an
// initial storage capacity (rounded up to the next power of two).
func New[K Numeric, V any](minWindow, maxWindow K, initialCapacity int) *Queue[K, V] {
	if initialCapacity <= 0 {
		initialCapacity = 16
	}
	cap := 1
	for cap < initialCapacity {
		cap <<= 1
	}
	q := &Queue[K, V]{
		buf:       newRingBuffer[K, V](cap),
		minWindow: minWindow,
		maxWindow: maxWindow,
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

func (q *Queue[K, V]) span() K {
	if !q.started {
		return 0
	}
	return q.upper - q.lower
}

// projectedSpan returns what the queue's upper-lower span would be if e
// were accepted right now: pushing is gated on the span the new value
// would itself produce, not merely the span already present, since a
// single far-future timestamp must be rejected/blocked even when the
// queue is otherwise within bounds.
func (q *Queue[K, V]) projectedSpan(e Entry[K, V]) K {
	if !q.started {
		return 0
	}
	upper := q.upper
	if e.Timestamp > upper {
		upper = e.Timestamp
	}
	return upper - q.lower
}

// Push inserts value, blocking while admitting it would widen the window
// past MaxWindow, until intervening pops tighten the lower bound enough
// to make room. Returns errs.OutOfOrder if value's timestamp is below
// the queue's current lower bound, or errs.Closed if the queue has been
// closed.
func (q *Queue[K, V]) Push(e Entry[K, V]) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && q.projectedSpan(e) > q.maxWindow {
		q.notFull.Wait()
	}
	return q.pushLocked(e)
}

// TryPush is the non-blocking variant of Push: instead of waiting for
// room, it returns errs.Full immediately.
func (q *Queue[K, V]) TryPush(e Entry[K, V]) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed && q.projectedSpan(e) > q.maxWindow {
		return errs.Full
	}
	return q.pushLocked(e)
}

func (q *Queue[K, V]) pushLocked(e Entry[K, V]) error {
	if q.closed {
		return errs.Closed
	}
	if q.started && e.Timestamp < q.lower {
		return errs.OutOfOrder
	}

	idx := q.buf.Search(e)
	q.buf.Insert(idx, e)

	if !q.started {
		q.started = true
		q.lower = e.Timestamp
		q.upper = e.Timestamp
	} else if e.Timestamp > q.upper {
		q.upper = e.Timestamp
	}

	q.notEmpty.Broadcast()
	return nil
}

func (q *Queue[K, V]) readyToPop() bool {
	return q.buf.Len() > 0 && q.span() >= q.minWindow
}

// Pop blocks until the window has widened to at least MinWindow (or the
// queue closes), then returns the smallest-timestamp entry and advances
// the queue's lower bound to its timestamp. Returns errs.Closed if the
// queue is closed and drained.
func (q *Queue[K, V]) Pop() (Entry[K, V], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && !q.readyToPop() {
		q.notEmpty.Wait()
	}
	return q.popLocked()
}

// TryPop is the non-blocking variant of Pop: instead of waiting for the
// window to widen, it returns errs.Empty immediately.
func (q *Queue[K, V]) TryPop() (Entry[K, V], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed && !q.readyToPop() {
		return Entry[K, V]{}, errs.Empty
	}
	return q.popLocked()
}

func (q *Queue[K, V]) popLocked() (Entry[K, V], error) {
	if q.buf.Len() == 0 {
		return Entry[K, V]{}, errs.Closed
	}
	e := q.buf.Get(0)
	q.buf.RemoveBefore(1)
	q.lower = e.Timestamp
	q.notFull.Broadcast()
	return e, nil
}

// Close marks the queue closed and wakes every blocked Push/Pop. After
// Close, pushes fail errs.Closed; pops drain remaining entries and then
// fail errs.Closed. Idempotent.
func (q *Queue[K, V]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Len returns the number of entries currently buffered.
func (q *Queue[K, V]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Len()
}
