// Package errs declares the sentinel error kinds shared across the
// inspector module's packages, so that errors.Is checks work regardless
// of which package actually returned the error.
package errs

import "errors"

var (
	// Full is returned when a producer exhausts its attempts: the cursor
	// pool is saturated or there is insufficient free range in the ring.
	Full = errors.New("inspector: full")

	// Empty is returned when a consumer exhausts its attempts without
	// finding a complete record.
	Empty = errors.New("inspector: empty")

	// OutOfOrder is returned by a window queue push whose timestamp is
	// below the queue's current lower bound.
	OutOfOrder = errors.New("inspector: out of order")

	// Closed is returned by any window queue operation performed after
	// Close.
	Closed = errors.New("inspector: closed")

	// TypeMismatch is returned when a decoded argument is queried as a
	// type other than the one its tag byte identifies.
	TypeMismatch = errors.New("inspector: type mismatch")

	// System wraps an OS-level failure (shared-memory open, map, truncate,
	// unlink). It is fatal for the enclosing process.
	System = errors.New("inspector: system error")

	// ConfigLocked is returned by SetEventQueueName once the process-wide
	// event queue name has already been locked by a first OpenOrCreate
	// call; spec.md §9 calls out that the name (like the
	// trace-enabled flag) is a single configuration record set once before
	// first use.
	ConfigLocked = errors.New("inspector: event queue name already locked")

	// CounterArgType is returned when a Counter-type event is published
	// with a non-numeric argument, resolving spec.md §9's open question
	// on counter argument types by rejecting them at write time rather
	// than silently dropping them at export time.
	CounterArgType = errors.New("inspector: counter event requires numeric arguments")
)
