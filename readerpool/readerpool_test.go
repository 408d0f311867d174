package readerpool

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspectortrace/inspector/cursor"
	"github.com/inspectortrace/inspector/internal/errs"
	"github.com/inspectortrace/inspector/internal/posmark"
	"github.com/inspectortrace/inspector/record"
	"github.com/inspectortrace/inspector/ring"
	"github.com/inspectortrace/inspector/window"
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

func TestPool_DrainsIntoWindowQueueAndIdlesOut(t *testing.T) {
	a := newTestAllocator(t)
	q := window.New[int64, *record.Owned](0, 1<<30, 16)

	for i := 0; i < 5; i++ {
		require.NoError(t, record.Publish(a, record.Header{TimestampNS: int64(i)}, fmt.Sprintf("evt_%d", i)))
	}

	pool := New(Config{
		Ring:            a,
		Queue:           q,
		NumConsumers:    2,
		PollingInterval: 5 * time.Millisecond,
		IdleTimeout:     50 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	var names []string
	for i := 0; i < 5; i++ {
		e, err := q.Pop()
		require.NoError(t, err)
		names = append(names, e.Value.Name)
	}
	assert.ElementsMatch(t, []string{"evt_0", "evt_1", "evt_2", "evt_3", "evt_4"}, names)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not exit after idling past IdleTimeout")
	}

	_, err := q.TryPop()
	assert.ErrorIs(t, err, errs.Closed, "queue must close once every worker idles out")

	assert.Equal(t, uint64(5), pool.Metrics.Processed.Load())
}
