package cursor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspectortrace/inspector/internal/posmark"
)

func TestPool_AcquireRelease(t *testing.T) {
	p := New(4, time.Minute)

	h, ok := p.Acquire(8)
	require.True(t, ok)
	require.NotNil(t, h)

	h.Publish(posmark.Zero.Add(10))
	assert.False(t, p.IsAhead(posmark.Zero.Add(10)), "live slot at 10 is not < 10")
	assert.True(t, p.IsAhead(posmark.Zero.Add(11)))

	h.Release()
	assert.True(t, p.IsAhead(posmark.Zero.Add(0)), "after release no slot is live")

	// idempotent
	h.Release()
}

func TestPool_AcquireExhausted(t *testing.T) {
	p := New(1, time.Minute)

	h, ok := p.Acquire(4)
	require.True(t, ok)

	_, ok = p.Acquire(4)
	assert.False(t, ok, "single slot already held must fail to acquire")

	h.Release()

	_, ok = p.Acquire(4)
	assert.True(t, ok, "slot is free again after release")
}

func TestPool_StaleSlotRecovered(t *testing.T) {
	p := New(1, 10*time.Millisecond)

	fakeNow := time.Unix(1000, 0)
	p.now = func() time.Time { return fakeNow }

	h, ok := p.Acquire(4)
	require.True(t, ok)
	_ = h // simulate a crashed owner: never released

	// not yet past timeout
	_, ok = p.Acquire(4)
	assert.False(t, ok)

	fakeNow = fakeNow.Add(20 * time.Millisecond)

	h2, ok := p.Acquire(4)
	require.True(t, ok, "abandoned slot must be reclaimed once stale")
	h2.Release()
}

func TestPool_IsAheadIsBehind(t *testing.T) {
	p := New(2, time.Minute)

	h1, ok := p.Acquire(4)
	require.True(t, ok)
	h1.Publish(posmark.Zero.Add(5))

	h2, ok := p.Acquire(4)
	require.True(t, ok)
	h2.Publish(posmark.Zero.Add(15))

	assert.True(t, p.IsAhead(posmark.Zero.Add(16)))
	assert.False(t, p.IsAhead(posmark.Zero.Add(15)))

	assert.True(t, p.IsBehind(posmark.Zero.Add(4)))
	assert.False(t, p.IsBehind(posmark.Zero.Add(5)))

	h1.Release()
	h2.Release()
}

func TestNewFromBytes_SharesBackingBuffer(t *testing.T) {
	buf := make([]byte, Footprint(2))
	p := NewFromBytes(buf, 2, time.Minute)

	h, ok := p.Acquire(4)
	require.True(t, ok)
	h.Publish(posmark.Zero.Add(99))

	// a second pool overlaid on the same bytes must observe the same
	// acquisition, as it would across two mapped processes.
	p2 := NewFromBytes(buf, 2, time.Minute)
	assert.False(t, p2.IsAhead(posmark.Zero.Add(99)))

	h.Release()
}

func TestPool_ReleaseAfterStaleReclaimIsNoop(t *testing.T) {
	p := New(1, 10*time.Millisecond)

	fakeNow := time.Unix(2000, 0)
	p.now = func() time.Time { return fakeNow }

	h, ok := p.Acquire(4)
	require.True(t, ok)

	fakeNow = fakeNow.Add(50 * time.Millisecond)

	// a scan reclaims the abandoned slot...
	assert.True(t, p.IsAhead(posmark.Zero))

	// ...and a new owner claims it...
	h2, ok := p.Acquire(4)
	require.True(t, ok)
	h2.Publish(posmark.Zero.Add(42))

	// ...so the original (crashed) owner's Release must not clobber it.
	h.Release()
	assert.False(t, p.IsAhead(posmark.Zero.Add(42)), "h2's slot must survive h's stale release")

	h2.Release()
}
