// Package inspector is the public facade over the module: it wires
// shmregion, cursor, ring, record, wire, window and readerpool into the
// operations spec.md §6 names (publish, disable_trace/enable_trace,
// set_event_queue_name/event_queue_name, read_trace_record, reader).
package inspector

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/inspectortrace/inspector/cursor"
	"github.com/inspectortrace/inspector/logsink"
	"github.com/inspectortrace/inspector/readerpool"
	"github.com/inspectortrace/inspector/record"
	"github.com/inspectortrace/inspector/ring"
	"github.com/inspectortrace/inspector/shmregion"
	"github.com/inspectortrace/inspector/wire"
)

// Queue is one attachment to a shared trace-event region: the producer
// and consumer side of the transport core, plus the process-wide
// trace-enabled flag it consults on every Publish.
type Queue struct {
	region       *shmregion.Region
	ring         *ring.Allocator
	log          logsink.Sink
	removeOnExit bool
	counter      atomic.Uint64
}

// OpenOrCreate opens (creating if absent) the named shared-memory event
// queue, sized to hold bufferSize bytes of record data plus the control
// area and cursor pools. An empty name consults EventQueueName(). The
// first call in a process locks the event queue name (SetEventQueueName
// fails with ErrConfigLocked thereafter).
func OpenOrCreate(name string, bufferSize int, opts ...Option) (*Queue, error) {
	if name == "" {
		name = EventQueueName()
	}
	s, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	size := shmregion.Footprint(bufferSize, s.numWriterSlots, s.numReaderSlots, cursor.SlotSize)
	region, err := shmregion.OpenOrCreate(name, size, s.numWriterSlots, s.numReaderSlots, cursor.SlotSize)
	if err != nil {
		return nil, err
	}

	writers := cursor.NewFromBytes(region.WriterPoolBytes(), s.numWriterSlots, s.cursorTimeout)
	readers := cursor.NewFromBytes(region.ReaderPoolBytes(), s.numReaderSlots, s.cursorTimeout)
	alloc := ring.New(ring.Config{
		Buf:              region.Buffer(),
		WriteHead:        region.WriteHead(),
		ReadHead:         region.ReadHead(),
		Writers:          writers,
		Readers:          readers,
		WriteMaxAttempts: s.writeMaxAttempts,
		ReadMaxAttempts:  s.readMaxAttempts,
		Log:              s.log,
	})

	lockConfig()
	return &Queue{region: region, ring: alloc, log: s.log, removeOnExit: s.removeOnExit}, nil
}

// Close unmaps the queue's shared-memory region, then unlinks its
// backing shared-memory object if the queue was opened with
// WithQueueRemoveOnExit(true). By default (remove-on-exit false) the
// object survives Close so other attached processes keep working; call
// shmregion.Unlink explicitly in that case once no process needs it.
func (q *Queue) Close() error {
	closeErr := q.region.Close()
	if !q.removeOnExit {
		return closeErr
	}
	if err := shmregion.Unlink(q.Name()); err != nil {
		if closeErr != nil {
			return closeErr
		}
		return err
	}
	return closeErr
}

// Name returns the queue's shared-memory region name.
func (q *Queue) Name() string { return q.region.Name() }

func isNumericTag(t wire.Tag) bool {
	switch t {
	case wire.TagI16, wire.TagI32, wire.TagI64,
		wire.TagU8, wire.TagU16, wire.TagU32, wire.TagU64,
		wire.TagF32, wire.TagF64:
		return true
	default:
		return false
	}
}

// Publish writes a trace record of the given type, category and name
// with args, per spec.md §6's publish(type, category, name, args)
// operation. It is a no-op returning nil while the process-wide trace
// flag is disabled. Counter-typed events are rejected with
// ErrCounterArgType if any argument is not a numeric scalar, resolving
// spec.md §9's open question on counter argument types.
func (q *Queue) Publish(typ EventType, category uint8, name string, args ...wire.Arg) error {
	if IsTraceDisabled() {
		return nil
	}
	if typ == Counter {
		for _, a := range args {
			if !isNumericTag(a.Tag()) {
				return fmt.Errorf("%w: got %s", ErrCounterArgType, a.Tag())
			}
		}
	}

	h := record.Header{
		Type:        uint8(typ),
		Category:    category,
		Counter:     q.counter.Add(1),
		TimestampNS: time.Now().UnixNano(),
		PID:         int32(os.Getpid()),
		TID:         0,
	}
	return record.Publish(q.ring, h, name, args...)
}

// ReadTraceRecord reads and decodes the next trace record directly off
// the ring, without window reordering. Returns ErrEmpty if none is
// available. Most consumers should prefer Reader, which reorders
// concurrently-produced records into chronological order.
func (q *Queue) ReadTraceRecord() (*record.Owned, error) {
	rh, err := q.ring.ReadNext()
	if err != nil {
		return nil, err
	}
	return record.FromReadHandle(rh)
}

// ReaderConfig configures Queue.Reader.
type ReaderConfig = readerpool.ReaderConfig

// Reader opens a reorder pool over the queue's ring, per spec.md §6's
// reader(timeout, polling_interval, num_consumers, min_window,
// max_window). The returned readerpool.Reader must be closed once the
// caller is done consuming.
func (q *Queue) Reader(cfg ReaderConfig) (*readerpool.Reader, error) {
	if cfg.Log == nil {
		cfg.Log = q.log
	}
	return readerpool.NewReader(q.ring, cfg), nil
}

// DisableTrace disables Publish process-wide: subsequent Publish calls
// (on this Queue or any other in the process) become no-ops until
// EnableTrace is called.
func (q *Queue) DisableTrace() { mutateConfig(func(c config) config { c.traceDisabled = true; return c }) }

// EnableTrace re-enables Publish process-wide.
func (q *Queue) EnableTrace() { mutateConfig(func(c config) config { c.traceDisabled = false; return c }) }

// IsTraceDisabled reports the process-wide trace-enabled flag.
func (q *Queue) IsTraceDisabled() bool { return IsTraceDisabled() }

// IsTraceDisabled reports the process-wide trace-enabled flag without
// requiring a Queue in hand.
func IsTraceDisabled() bool { return loadConfig().traceDisabled }
