package ring

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspectortrace/inspector/cursor"
	"github.com/inspectortrace/inspector/internal/errs"
	"github.com/inspectortrace/inspector/internal/posmark"
)

func newTestAllocator(t *testing.T, bufSize, writers, readers, maxAttempts int) *Allocator {
	t.Helper()
	var writeWord, readWord uint64
	return New(Config{
		Buf:              make([]byte, bufSize),
		WriteHead:        posmark.NewAtomic(&writeWord),
		ReadHead:         posmark.NewAtomic(&readWord),
		Writers:          cursor.New(writers, time.Second),
		Readers:          cursor.New(readers, time.Second),
		WriteMaxAttempts: maxAttempts,
		ReadMaxAttempts:  maxAttempts,
	})
}

func TestRing_SingleProducerSingleConsumer(t *testing.T) {
	a := newTestAllocator(t, 521, 4, 4, 16)

	var published []string
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("testing_%d", i)
		w, err := a.Reserve(len(name))
		require.NoError(t, err)
		_, err = w.Write([]byte(name))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		published = append(published, name)
	}

	var got []string
	for i := 0; i < 10; i++ {
		r, err := a.ReadNext()
		require.NoError(t, err)
		got = append(got, string(r.Body))
		require.NoError(t, r.Close())
	}

	assert.Equal(t, published, got)

	_, err := a.ReadNext()
	assert.ErrorIs(t, err, errs.Empty)
}

func TestRing_ConcurrentPublishConsume(t *testing.T) {
	a := newTestAllocator(t, 4096, 10, 10, 32)

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("testing_%d", i)
			w, err := a.Reserve(len(name))
			require.NoError(t, err)
			_, err = w.Write([]byte(name))
			require.NoError(t, err)
			require.NoError(t, w.Close())
		}(i)
	}
	wg.Wait()

	var mu sync.Mutex
	seen := make(map[string]int)
	var rwg sync.WaitGroup
	rwg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer rwg.Done()
			r, err := a.ReadNext()
			require.NoError(t, err)
			defer r.Close()
			mu.Lock()
			seen[string(r.Body)]++
			mu.Unlock()
		}()
	}
	rwg.Wait()

	assert.Len(t, seen, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, 1, seen[fmt.Sprintf("testing_%d", i)])
	}
}

func TestRing_StaleProducerRecovery(t *testing.T) {
	a := newTestAllocator(t, 128, 4, 4, 16)

	w1, err := a.Reserve(1)
	require.NoError(t, err)
	_, err = w1.Write([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, w1.Close())

	w2, err := a.Reserve(1)
	require.NoError(t, err)
	_, err = w2.Write([]byte("b"))
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	// fault injection: clear the second frame's magic so it looks like a
	// crash between the write-head CAS and the body/header write. The
	// first block occupies frameHeaderSize+1 bytes, so the second frame's
	// header starts right after it.
	secondHeaderLoc := frameHeaderSize + 1
	for i := 0; i < 4; i++ {
		a.buf[(secondHeaderLoc+i)%len(a.buf)] = 0
	}

	r, err := a.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, "a", string(r.Body))
	assert.False(t, r.Recovered)
	require.NoError(t, r.Close())

	_, err = a.ReadNext()
	assert.ErrorIs(t, err, errs.Empty, "recovery must find no further sentinel before write head")
}

func TestRing_ReserveTooLargeForBuffer(t *testing.T) {
	a := newTestAllocator(t, 16, 2, 2, 4)
	_, err := a.Reserve(64)
	assert.ErrorIs(t, err, errs.Full)
}
