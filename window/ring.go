// ring.go adapts the teacher catrate package's generic sorted ring
// buffer (ringBuffer[E constraints.Ordered], used there to keep a
// rate-limiter's timestamp samples in order) into a buffer of
// (timestamp, value) pairs ordered by timestamp, so it can carry an
// arbitrary payload alongside each ordered key rather than the bare
// ordered scalar the teacher's version stores. The masked-offset
// storage, binary-search insert position, and buffer-doubling growth
// are unchanged from the teacher; only the stored element (a keyed pair
// instead of a bare K) and the comparison (by field instead of the
// whole value) are generalized.
package window

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Numeric narrows constraints.Ordered to the types that also support
// arithmetic (+, -): every integer and float type, but not ~string,
// which constraints.Ordered otherwise admits. Queue needs to compute
// window spans (upper - lower), so a plain constraints.Ordered key
// would compile right up until someone instantiated Queue[string, V]
// and it failed at the one call site that subtracts.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// Entry is one (timestamp, value) pair held in a Queue.
type Entry[K Numeric, V any] struct {
	Timestamp K
	Value     V
}

type ringBuffer[K Numeric, V any] struct {
	s    []Entry[K, V]
	r, w uint
}

func newRingBuffer[K Numeric, V any](size int) *ringBuffer[K, V] {
	if size <= 0 || size&(size-1) != 0 {
		panic(`window: ring: size must be a power of 2`)
	}
	return &ringBuffer[K, V]{s: make([]Entry[K, V], size)}
}

func (x *ringBuffer[K, V]) mask(val uint) uint {
	return val & (uint(len(x.s)) - 1)
}

func (x *ringBuffer[K, V]) bounds() (i1, l1, l2 int) {
	if x.r == x.w {
		return
	}
	i1 = int(x.mask(x.r))
	l1 = int(x.mask(x.w))
	if l1 <= i1 {
		l2 = l1
		l1 = len(x.s)
	}
	return
}

func (x *ringBuffer[K, V]) Len() int {
	return int(x.w - x.r)
}

func (x *ringBuffer[K, V]) Cap() int {
	return len(x.s)
}

func (x *ringBuffer[K, V]) Get(i int) Entry[K, V] {
	if i < 0 || i >= x.Len() {
		panic(`window: ring: get: index out of range`)
	}
	return x.s[x.mask(x.r+uint(i))]
}

func (x *ringBuffer[K, V]) RemoveBefore(index int) {
	if index < 0 || index > x.Len() {
		panic(`window: ring: remove before: index out of range`)
	}
	x.r += uint(index)
}

// Search returns the index of the first element whose Timestamp is not
// less than value's, i.e. the position value should be inserted at to
// keep the buffer sorted ascending by Timestamp.
func (x *ringBuffer[K, V]) Search(value Entry[K, V]) int {
	return sort.Search(x.Len(), func(i int) bool {
		return x.Get(i).Timestamp >= value.Timestamp
	})
}

func (x *ringBuffer[K, V]) Insert(index int, value Entry[K, V]) {
	l := x.Len()
	if index < 0 || index > l {
		panic(`window: ring: insert: index out of range`)
	}

	if l == len(x.s) {
		// full, special case: requires expanding the buffer
		s := make([]Entry[K, V], uint(len(x.s))<<1)
		if len(s) == 0 {
			panic(`window: ring: insert: overflow`)
		}

		// since we're copying the whole thing anyway, we can start at 0
		i1, l1, l2 := x.bounds()
		l = l1 - i1
		if index < l {
			// insert in the first segment
			copy(s, x.s[i1:i1+index])
			s[index] = value
			copy(s[index+1:], x.s[i1+index:l1])
			l++
			copy(s[l:], x.s[:l2])
			l += l2
		} else {
			// insert in the second segment
			copy(s, x.s[i1:l1])
			copy(s[l:], x.s[:index-l])
			s[index] = value
			copy(s[index+1:], x.s[index-l:l2])
			l += l2 + 1
		}

		x.r = 0
		x.w = uint(l)
		x.s = s
		return
	}

	// optimization: everything works nicer if it's not wrapped around
	// so, if we can, pre-emptively reset the offsets to 0
	var i, j int
	if l == 0 {
		x.r = 0
		x.w = 0
	} else {
		i = int(x.mask(x.r))
		j = int(x.mask(x.w))
	}

	// fastest case: not wrapped around, and there's room to write
	if l == 0 || i < j {
		copy(x.s[i+index+1:], x.s[i+index:j])
		x.s[i+index] = value
		x.w++
		return
	}

	// slow case that only adjusts one segment: insert into the
	// wrapped-around part at the start of the buffer
	if index >= len(x.s)-i {
		index -= len(x.s) - i
		copy(x.s[index+1:], x.s[index:j])
		x.s[index] = value
		x.w++
		return
	}

	// slowest case that requires adjusting both segments
	copy(x.s[1:], x.s[:j])
	x.s[0] = x.s[len(x.s)-1]
	copy(x.s[i+index+1:], x.s[i+index:])
	x.s[i+index] = value
	x.w++
}
