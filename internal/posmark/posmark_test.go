package posmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPos_AddNoWrap(t *testing.T) {
	p := Zero.Add(10)
	assert.Equal(t, uint64(10), p.Location())
	assert.False(t, p.Parity())
}

func TestPos_AddWraps(t *testing.T) {
	near := packPos(false, locationMask-2)
	wrapped := near.Add(5)

	assert.True(t, wrapped.Parity(), "parity must toggle on wrap")
	assert.Equal(t, uint64(2), wrapped.Location())
}

func TestPos_Less(t *testing.T) {
	a := packPos(false, 10)
	b := packPos(false, 20)
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.True(t, a.LessEqual(a))

	// differing parity: the marker still in the old epoch is behind the
	// one that has wrapped into the new epoch, regardless of location.
	wrappedSmall := packPos(true, 1)
	require.True(t, b.Less(wrappedSmall))
	require.False(t, wrappedSmall.Less(b))
}

func TestAtomic_CompareAndSwap(t *testing.T) {
	var word uint64
	a := NewAtomic(&word)
	a.Store(Zero)

	ok := a.CompareAndSwap(Zero, Zero.Add(64))
	require.True(t, ok)
	assert.Equal(t, uint64(64), a.Load().Location())

	ok = a.CompareAndSwap(Zero, Zero.Add(1))
	require.False(t, ok, "stale compare must fail")
}

func TestAtomicAt_OverlaysBuffer(t *testing.T) {
	buf := make([]byte, WordSize)
	a := AtomicAt(buf)

	a.Store(Zero.Add(7))
	// the word must be the live backing store, not a copy.
	b := AtomicAt(buf)
	assert.Equal(t, uint64(7), b.Load().Location())
}
