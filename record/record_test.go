package record

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspectortrace/inspector/cursor"
	"github.com/inspectortrace/inspector/internal/posmark"
	"github.com/inspectortrace/inspector/ring"
	"github.com/inspectortrace/inspector/wire"
)

func newTestAllocator(t *testing.T) *ring.Allocator {
	t.Helper()
	var writeWord, readWord uint64
	return ring.New(ring.Config{
		Buf:              make([]byte, 4096),
		WriteHead:        posmark.NewAtomic(&writeWord),
		ReadHead:         posmark.NewAtomic(&readWord),
		Writers:          cursor.New(4, time.Second),
		Readers:          cursor.New(4, time.Second),
		WriteMaxAttempts: 16,
		ReadMaxAttempts:  16,
	})
}

func TestPublishAndDecode(t *testing.T) {
	a := newTestAllocator(t)

	h := Header{Type: 1, Category: 2, Counter: 42, TimestampNS: 123456789, PID: 100, TID: 200}
	require.NoError(t, Publish(a, h, "my_event", wire.I32(7), wire.Kwarg("k", wire.Str("v"))))

	rh, err := a.ReadNext()
	require.NoError(t, err)

	rec, err := FromReadHandle(rh)
	require.NoError(t, err)

	h.ArgsCount = 3 // name + 2 args; decoded back out, so compare against the full header struct
	if diff := cmp.Diff(h, rec.Header); diff != "" {
		t.Fatalf("decoded header mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "my_event", rec.Name)
	require.Len(t, rec.Args, 2)

	v, err := wire.AsI32(rec.Args[0])
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)

	name, nested, err := wire.KwargParts(rec.Args[1])
	require.NoError(t, err)
	assert.Equal(t, "k", name)
	s, err := wire.AsStr(nested)
	require.NoError(t, err)
	assert.Equal(t, "v", s)
}

func TestPublishNoArgs(t *testing.T) {
	a := newTestAllocator(t)
	require.NoError(t, Publish(a, Header{Type: 9}, "bare_event"))

	rh, err := a.ReadNext()
	require.NoError(t, err)
	rec, err := FromReadHandle(rh)
	require.NoError(t, err)

	assert.Equal(t, "bare_event", rec.Name)
	assert.Empty(t, rec.Args)
}

func TestStorageSize_MatchesEncodedLength(t *testing.T) {
	size := StorageSize("evt", wire.U8(1), wire.F64(2.5))
	a := newTestAllocator(t)
	wh, err := a.Reserve(size)
	require.NoError(t, err)

	w, err := NewWriter(wh, Header{Type: 1})
	require.NoError(t, err)
	require.NoError(t, w.Append(wire.CStr("evt")))
	require.NoError(t, w.Append(wire.U8(1)))
	require.NoError(t, w.Append(wire.F64(2.5)))
	require.NoError(t, w.Close())
}
