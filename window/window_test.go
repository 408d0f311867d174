package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspectortrace/inspector/internal/errs"
)

func TestQueue_Chronology(t *testing.T) {
	q := New[int64, int64](10, 50, 4)

	for _, ts := range []int64{1, 25, 10, 40} {
		require.NoError(t, q.TryPush(Entry[int64, int64]{Timestamp: ts, Value: ts}))
	}

	var got []int64
	for i := 0; i < 4; i++ {
		e, err := q.TryPop()
		require.NoError(t, err)
		got = append(got, e.Timestamp)
	}

	assert.Equal(t, []int64{1, 10, 25, 40}, got)
}

func TestQueue_FullRejectsFarFutureTimestamp(t *testing.T) {
	q := New[int64, int64](10, 50, 4)

	require.NoError(t, q.TryPush(Entry[int64, int64]{Timestamp: 10}))
	require.NoError(t, q.TryPush(Entry[int64, int64]{Timestamp: 20}))
	require.NoError(t, q.TryPush(Entry[int64, int64]{Timestamp: 60}))

	err := q.TryPush(Entry[int64, int64]{Timestamp: 70})
	assert.ErrorIs(t, err, errs.Full)
}

func TestQueue_OutOfOrderRejected(t *testing.T) {
	q := New[int64, int64](0, 100, 4)

	require.NoError(t, q.TryPush(Entry[int64, int64]{Timestamp: 50}))
	_, err := q.TryPop()
	require.NoError(t, err)

	err = q.TryPush(Entry[int64, int64]{Timestamp: 10})
	assert.ErrorIs(t, err, errs.OutOfOrder)
}

func TestQueue_PopBlocksUntilMinWindow(t *testing.T) {
	q := New[int64, int64](20, 1000, 4)
	require.NoError(t, q.TryPush(Entry[int64, int64]{Timestamp: 0}))

	done := make(chan Entry[int64, int64], 1)
	go func() {
		e, err := q.Pop()
		if err == nil {
			done <- e
		}
	}()

	select {
	case <-done:
		t.Fatal("pop must not return before the window has widened")
	case <-time.After(30 * time.Millisecond):
	}

	require.NoError(t, q.Push(Entry[int64, int64]{Timestamp: 25}))

	select {
	case e := <-done:
		assert.Equal(t, int64(0), e.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("pop never unblocked after the window widened")
	}
}

func TestQueue_CloseWakesWaiters(t *testing.T) {
	q := New[int64, int64](1000, 1000, 4)
	require.NoError(t, q.TryPush(Entry[int64, int64]{Timestamp: 0}))

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Pop()
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		// the woken pop drains the one remaining entry rather than failing
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("close did not wake the blocked pop")
	}

	_, err := q.TryPop()
	assert.ErrorIs(t, err, errs.Closed)

	err = q.TryPush(Entry[int64, int64]{Timestamp: 999})
	assert.ErrorIs(t, err, errs.Closed)
}

func TestQueue_CloseDrainsRemainingBeforeClosed(t *testing.T) {
	q := New[int64, int64](1, 1000, 4)
	require.NoError(t, q.TryPush(Entry[int64, int64]{Timestamp: 5}))
	require.NoError(t, q.TryPush(Entry[int64, int64]{Timestamp: 6}))
	q.Close()

	e, err := q.TryPop()
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.Timestamp)

	e, err = q.TryPop()
	require.NoError(t, err)
	assert.Equal(t, int64(6), e.Timestamp)

	_, err = q.TryPop()
	assert.ErrorIs(t, err, errs.Closed)
}
