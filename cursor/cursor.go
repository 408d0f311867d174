// Package cursor implements the bounded, liveness-tracked pool of cursor
// slots producers and consumers use to publish the position they are
// currently operating at, per spec.md §3 "Cursor slot" and §4.2.
//
// A cursor slot packs two pieces of state into a single posmark.Atomic
// word (an ownership bit plus an acquisition timestamp), generalizing the
// padded atomic.Uint64 state machine in the eventloop teacher package's
// FastState: that type CASes between five run states, this one CASes
// between "free" and "allocated, acquired at time T", adding a liveness
// deadline the teacher's state machine has no need for. Unlike FastState,
// a Slot's words are not Go-managed: NewFromBytes overlays them directly
// on a shared-memory region so every attached process CASes the same
// memory.
package cursor

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/inspectortrace/inspector/internal/posmark"
)

const allocatedBit = uint64(1) << 63

// state packs {allocated bool, acquiredAtNS int64} into one word. Only the
// low 63 bits of the timestamp are kept, which is enough headroom (~146
// years from the unix epoch) that truncation never matters in practice.
type state uint64

func packState(allocated bool, acquiredAtNS int64) state {
	v := uint64(acquiredAtNS) &^ allocatedBit
	if allocated {
		v |= allocatedBit
	}
	return state(v)
}

func (s state) allocated() bool { return uint64(s)&allocatedBit != 0 }
func (s state) acquiredAtNS() int64 {
	return int64(uint64(s) &^ allocatedBit)
}

const freeState = state(0)

// SlotSize is the number of bytes one Slot occupies in a backing byte
// slice: one word for the packed ownership/timestamp state, one for the
// published position.
const SlotSize = posmark.WordSize * 2

// Slot is one cursor slot in the pool. Its two words are ordinary
// posmark.Atomic words, so a Pool built with NewFromBytes places these
// directly inside a shared-memory region: any process holding the same
// mapping observes the same CAS history.
type Slot struct {
	state posmark.Atomic // state, reinterpreted via the state/packState helpers
	pos   posmark.Atomic
}

func (s *Slot) loadState() state { return state(s.state.Load()) }
func (s *Slot) casState(old, new state) bool {
	return s.state.CompareAndSwap(posmark.Pos(old), posmark.Pos(new))
}

// Pool is a bounded set of cursor slots with liveness-based recovery of
// abandoned ones, per spec.md §4.2.
type Pool struct {
	slots   []Slot
	timeout time.Duration
	now     func() time.Time // overridable for tests
}

// New creates a pool of size slots backed by process-local memory, each
// considered abandoned once held for longer than timeout. Use
// NewFromBytes instead when the slots must live inside a shared-memory
// region visible to other processes.
func New(size int, timeout time.Duration) *Pool {
	if size <= 0 {
		panic("cursor: pool size must be positive")
	}
	return newPool(make([]byte, size*SlotSize), size, timeout)
}

// NewFromBytes builds a pool of size slots overlaid on buf, which must be
// at least size*SlotSize bytes and 8-byte aligned (true of any offset
// that is itself a multiple of 8 within shmregion's control area). buf is
// not copied: CAS operations act directly on its bytes, so callers that
// pass mmap'd memory get cross-process cursor sharing for free.
func NewFromBytes(buf []byte, size int, timeout time.Duration) *Pool {
	if size <= 0 {
		panic("cursor: pool size must be positive")
	}
	if len(buf) < size*SlotSize {
		panic("cursor: backing buffer too small for pool size")
	}
	return newPool(buf, size, timeout)
}

func newPool(buf []byte, size int, timeout time.Duration) *Pool {
	slots := make([]Slot, size)
	for i := range slots {
		off := i * SlotSize
		slots[i].state = posmark.AtomicAt(buf[off : off+posmark.WordSize])
		slots[i].pos = posmark.AtomicAt(buf[off+posmark.WordSize : off+SlotSize])
	}
	return &Pool{
		slots:   slots,
		timeout: timeout,
		now:     time.Now,
	}
}

// Footprint returns the number of bytes NewFromBytes requires for a pool
// of size slots.
func Footprint(size int) int { return size * SlotSize }

func (p *Pool) nowNS() int64 { return p.now().UnixNano() }

func (p *Pool) isLive(s state) bool {
	return s.allocated() && p.nowNS()-s.acquiredAtNS() <= int64(p.timeout)
}

// releaseIfStale CASes slot i from the observed stale state back to free.
// A no-op if the slot already changed.
func (p *Pool) releaseIfStale(i int, observed state) {
	p.slots[i].casState(observed, freeState)
}

// Handle is a scoped, single-use acquisition of one cursor slot. It must
// not be copied; always hold it as the *Handle returned by Acquire.
// Release (or a deferred call to it) is idempotent.
type Handle struct {
	pool     *Pool
	slot     *Slot
	observed state
	released atomic.Bool
}

// Acquire scans the pool's slots in randomized order, attempting to CAS a
// free slot to allocated. A slot found allocated past the pool's timeout
// is treated as abandoned and CAS-released before the scan continues.
// Acquire gives up and returns (nil, false) after maxAttempts full sweeps
// of the pool without success.
func (p *Pool) Acquire(maxAttempts int) (*Handle, bool) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	n := len(p.slots)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		rand.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, i := range order {
			cur := p.slots[i].loadState()

			if cur.allocated() {
				if p.isLive(cur) {
					continue
				}
				// abandoned: release, then fall through to attempt the claim
				// against the state we just observed (the CAS below will
				// simply lose the race if someone else got there first).
				p.releaseIfStale(i, cur)
				cur = freeState
			}

			want := packState(true, p.nowNS())
			if p.slots[i].casState(cur, want) {
				return &Handle{pool: p, slot: &p.slots[i], observed: want}, true
			}
		}
	}

	return nil, false
}

// Publish stores pos as the position this handle's owner is currently
// operating at.
func (h *Handle) Publish(pos posmark.Pos) {
	h.slot.pos.Store(pos)
}

// Release gives the slot back to the pool. It is a no-op if the slot's
// state has already moved past what was observed at Acquire (e.g. the
// pool's own scan already reclaimed it as abandoned), and safe to call
// more than once.
func (h *Handle) Release() {
	if h.released.Swap(true) {
		return
	}
	h.slot.casState(h.observed, freeState)
}

// IsAhead reports whether no live slot holds a published position >= pos.
// Slots found expired during the scan are released.
func (p *Pool) IsAhead(pos posmark.Pos) bool {
	for i := range p.slots {
		cur := p.slots[i].loadState()
		if !cur.allocated() {
			continue
		}
		if !p.isLive(cur) {
			p.releaseIfStale(i, cur)
			continue
		}
		if slotPos := p.slots[i].pos.Load(); !slotPos.Less(pos) {
			return false
		}
	}
	return true
}

// IsBehind reports whether no live slot holds a published position <= pos.
// Slots found expired during the scan are released.
func (p *Pool) IsBehind(pos posmark.Pos) bool {
	for i := range p.slots {
		cur := p.slots[i].loadState()
		if !cur.allocated() {
			continue
		}
		if !p.isLive(cur) {
			p.releaseIfStale(i, cur)
			continue
		}
		if slotPos := p.slots[i].pos.Load(); slotPos.LessEqual(pos) {
			return false
		}
	}
	return true
}

// Len returns the number of slots in the pool.
func (p *Pool) Len() int { return len(p.slots) }
