// Package ring implements the shared circular-buffer allocator: the
// compare-and-swap reservation of variable-length blocks for writers, the
// symmetric reservation for readers, and the stale-block recovery scan,
// per spec.md §4.3/§4.4.
//
// The retry-with-bounded-attempts shape of Reserve/ReadNext is grounded
// on the teacher eventloop package's FastPoller.PollIO, which re-reads a
// version counter after a blocking syscall and discards stale results
// rather than locking across the call; here the "syscall" is the
// CAS of a shared head, and staleness is handled by simply retrying
// against freshly-loaded heads instead of discarding.
package ring

import (
	"fmt"
	"sync/atomic"

	"github.com/inspectortrace/inspector/cursor"
	"github.com/inspectortrace/inspector/internal/errs"
	"github.com/inspectortrace/inspector/internal/posmark"
	"github.com/inspectortrace/inspector/logsink"
)

// Allocator owns the circular byte buffer and the two heads that carve it
// into claimed ranges.
type Allocator struct {
	buf              []byte
	writeHead        posmark.Atomic
	readHead         posmark.Atomic
	writers          *cursor.Pool
	readers          *cursor.Pool
	writeMaxAttempts int
	readMaxAttempts  int
	log              logsink.Sink
}

// Config gathers the pieces an Allocator is built from. Buf, WriteHead and
// ReadHead are typically all views into a single shmregion.Region, so
// that every attached process shares the same allocator state; tests may
// instead pass process-local memory.
//
// WriteMaxAttempts and ReadMaxAttempts bound Reserve's and ReadNext's CAS
// retry loops independently, mirroring the original library's separate
// write_max_attempt/read_max_attempt knobs (details/config.hpp) rather
// than a single shared bound.
type Config struct {
	Buf              []byte
	WriteHead        posmark.Atomic
	ReadHead         posmark.Atomic
	Writers          *cursor.Pool
	Readers          *cursor.Pool
	WriteMaxAttempts int
	ReadMaxAttempts  int
	Log              logsink.Sink
}

// New builds an Allocator from cfg. WriteMaxAttempts and ReadMaxAttempts
// each default to 8 if <= 0; Log defaults to logsink.NoOp() if nil.
func New(cfg Config) *Allocator {
	if len(cfg.Buf) == 0 {
		panic("ring: buffer must be non-empty")
	}
	writeMaxAttempts := cfg.WriteMaxAttempts
	if writeMaxAttempts <= 0 {
		writeMaxAttempts = 8
	}
	readMaxAttempts := cfg.ReadMaxAttempts
	if readMaxAttempts <= 0 {
		readMaxAttempts = 8
	}
	log := cfg.Log
	if log == nil {
		log = logsink.NoOp()
	}
	return &Allocator{
		buf:              cfg.Buf,
		writeHead:        cfg.WriteHead,
		readHead:         cfg.ReadHead,
		writers:          cfg.Writers,
		readers:          cfg.Readers,
		writeMaxAttempts: writeMaxAttempts,
		readMaxAttempts:  readMaxAttempts,
		log:              log,
	}
}

func (a *Allocator) bufSize() uint64 { return uint64(len(a.buf)) }

// readAt copies n bytes starting at absolute location loc (mod buffer
// size), handling the wraparound case where the range straddles the end
// of the buffer.
func (a *Allocator) readAt(loc uint64, n int) []byte {
	out := make([]byte, n)
	start := int(loc % a.bufSize())
	copied := copy(out, a.buf[start:])
	if copied < n {
		copy(out[copied:], a.buf[:n-copied])
	}
	return out
}

// writeAt writes data starting at absolute location loc (mod buffer
// size), wrapping as readAt does.
func (a *Allocator) writeAt(loc uint64, data []byte) {
	start := int(loc % a.bufSize())
	copied := copy(a.buf[start:], data)
	if copied < len(data) {
		copy(a.buf[:len(data)-copied], data[copied:])
	}
}

// resolveFrameSize determines the body size of the frame at readHead,
// per spec.md §4.4. ok is false when no frame could be resolved (trusted
// magic absent and no sentinel found before writeHead).
func (a *Allocator) resolveFrameSize(readHead, writeHead posmark.Pos) (size int, recovered, ok bool) {
	base := readHead.Location()
	header := a.readAt(base, frameHeaderSize)
	if decodeFrameMagic(header) == frameMagic {
		return int(decodeFrameSize(header)), false, true
	}

	limit := writeHead.Location()
	for loc := base + frameHeaderSize; loc < limit; loc += frameHeaderSize {
		candidate := a.readAt(loc, frameHeaderSize)
		if decodeFrameMagic(candidate) == frameMagic {
			distance := loc - base
			recoveredSize := int(distance) - frameHeaderSize
			if recoveredSize < 0 {
				recoveredSize = 0
			}
			return recoveredSize, true, true
		}
	}
	return 0, false, false
}

// WriteHandle is a scoped reservation of a block in the buffer for
// writing. The body is accumulated locally and flushed into the shared
// buffer when the handle is closed, decoupling in-progress writes from
// concurrent readers that might otherwise observe a half-written body.
type WriteHandle struct {
	ring     *Allocator
	cur      *cursor.Handle
	bodyLoc  uint64
	bodyCap  int
	body     []byte
	closed   atomic.Bool
}

// Write appends p to the handle's body. Returns an error if doing so
// would exceed the block's reserved payload size.
func (w *WriteHandle) Write(p []byte) (int, error) {
	if len(w.body)+len(p) > w.bodyCap {
		return 0, fmt.Errorf("ring: write exceeds reserved block size (%d > %d)", len(w.body)+len(p), w.bodyCap)
	}
	w.body = append(w.body, p...)
	return len(p), nil
}

// PatchByte overwrites a single already-written byte at offset within the
// body. Used by record.Writer to update the header's args_count field
// in place as Append calls are interleaved with sequential body writes,
// per spec.md §4.6.
func (w *WriteHandle) PatchByte(offset int, b byte) {
	w.body[offset] = b
}

// Close flushes the accumulated body into the shared buffer and releases
// the producer cursor. Idempotent.
func (w *WriteHandle) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	w.ring.writeAt(w.bodyLoc, w.body)
	w.cur.Release()
	return nil
}

// Reserve claims a block of frameHeaderSize+payloadSize bytes for
// writing, per spec.md §4.3's write path. Returns errs.Full when the
// cursor pool is saturated or no range could be claimed within
// maxAttempts.
func (a *Allocator) Reserve(payloadSize int) (*WriteHandle, error) {
	blockSize := uint64(frameHeaderSize + payloadSize)
	if blockSize >= a.bufSize() {
		return nil, fmt.Errorf("%w: block of %d bytes does not fit a %d-byte buffer", errs.Full, blockSize, a.bufSize())
	}

	h, ok := a.writers.Acquire(a.writeMaxAttempts)
	if !ok {
		return nil, fmt.Errorf("%w: producer cursor pool saturated", errs.Full)
	}

	for attempt := 0; attempt < a.writeMaxAttempts; attempt++ {
		readHead := a.readHead.Load()
		writeHead := a.writeHead.Load()
		end := writeHead.Add(blockSize - 1)

		if !readHead.LessEqual(writeHead) {
			h.Release()
			return nil, fmt.Errorf("%w: read head ahead of write head", errs.Full)
		}
		if !a.readers.IsAhead(end) {
			h.Release()
			a.log.Warn("reserve: reader inside claimed range", "end", end.Location())
			return nil, fmt.Errorf("%w: a reader is inside the claimed range", errs.Full)
		}
		if !readHead.Less(end) {
			h.Release()
			return nil, fmt.Errorf("%w: claim would lap the reader", errs.Full)
		}

		h.Publish(writeHead)
		next := end.Add(1)
		if a.writeHead.CompareAndSwap(writeHead, next) {
			header := make([]byte, frameHeaderSize)
			encodeFrameHeader(header, uint32(payloadSize))
			a.writeAt(writeHead.Location(), header)

			return &WriteHandle{
				ring:    a,
				cur:     h,
				bodyLoc: writeHead.Location() + frameHeaderSize,
				bodyCap: payloadSize,
				body:    make([]byte, 0, payloadSize),
			}, nil
		}
	}

	h.Release()
	return nil, fmt.Errorf("%w: exhausted %d attempts reserving a block", errs.Full, a.writeMaxAttempts)
}

// ReadHandle is a scoped reservation of the next framed record for
// reading. Body is an owned copy, already decoupled from the ring.
type ReadHandle struct {
	cur       *cursor.Handle
	Body      []byte
	Recovered bool
	closed    atomic.Bool
}

// Close releases the consumer cursor. Idempotent.
func (r *ReadHandle) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.cur.Release()
	return nil
}

// ReadNext reserves and copies out the next framed record, per spec.md
// §4.3's read path and §4.4's recovery. Returns errs.Empty when no
// complete record is available within maxAttempts.
func (a *Allocator) ReadNext() (*ReadHandle, error) {
	h, ok := a.readers.Acquire(a.readMaxAttempts)
	if !ok {
		return nil, fmt.Errorf("%w: consumer cursor pool saturated", errs.Empty)
	}

	for attempt := 0; attempt < a.readMaxAttempts; attempt++ {
		readHead := a.readHead.Load()
		writeHead := a.writeHead.Load()

		size, recovered, ok := a.resolveFrameSize(readHead, writeHead)
		if !ok {
			h.Release()
			return nil, fmt.Errorf("%w: no resolvable frame at read head", errs.Empty)
		}

		blockSize := uint64(frameHeaderSize + size)
		end := readHead.Add(blockSize - 1)

		if !readHead.Less(writeHead) {
			h.Release()
			return nil, fmt.Errorf("%w: read head has caught up to write head", errs.Empty)
		}
		if !a.writers.IsBehind(end) {
			h.Release()
			return nil, fmt.Errorf("%w: a writer is inside the claimed range", errs.Empty)
		}
		if !end.Less(writeHead) {
			h.Release()
			return nil, fmt.Errorf("%w: claim would pass the write head", errs.Empty)
		}

		h.Publish(readHead)
		next := end.Add(1)
		if a.readHead.CompareAndSwap(readHead, next) {
			body := a.readAt(readHead.Location()+frameHeaderSize, size)

			if recovered {
				header := make([]byte, frameHeaderSize)
				encodeFrameHeader(header, uint32(size))
				a.writeAt(readHead.Location(), header)
				a.log.Warn("read: recovered stale block", "offset", readHead.Location(), "size", size)
			}

			return &ReadHandle{cur: h, Body: body, Recovered: recovered}, nil
		}
	}

	h.Release()
	return nil, fmt.Errorf("%w: exhausted %d attempts reading a block", errs.Empty, a.readMaxAttempts)
}
