package readerpool

import (
	"context"
	"time"

	"github.com/inspectortrace/inspector/logsink"
	"github.com/inspectortrace/inspector/record"
	"github.com/inspectortrace/inspector/ring"
	"github.com/inspectortrace/inspector/window"
)

// ReaderConfig configures a Reader: the pool of workers draining a and the
// window.Queue bounds that reorder their output, per spec.md §6's
// reader(timeout, polling_interval, num_consumers, min_window, max_window).
type ReaderConfig struct {
	NumConsumers    int
	PollingInterval time.Duration
	IdleTimeout     time.Duration
	MinWindow       int64
	MaxWindow       int64
	QueueCapacity   int
	Log             logsink.Sink
}

// Reader is a blocking, window-chronological iterator over a ring's
// records: NumConsumers workers feed a window.Queue, and Next pops from
// it, so callers never see the interleaving of the underlying workers.
type Reader struct {
	pool   *Pool
	queue  *RecordQueue
	cancel context.CancelFunc
	done   chan error
}

// NewReader starts cfg.NumConsumers workers draining a into a fresh
// window.Queue bounded by cfg.MinWindow/cfg.MaxWindow, and returns a
// Reader over that queue. The workers run until Close is called or they
// idle past cfg.IdleTimeout.
func NewReader(a *ring.Allocator, cfg ReaderConfig) *Reader {
	q := window.New[int64, *record.Owned](cfg.MinWindow, cfg.MaxWindow, cfg.QueueCapacity)
	pool := New(Config{
		Ring:            a,
		Queue:           q,
		NumConsumers:    cfg.NumConsumers,
		PollingInterval: cfg.PollingInterval,
		IdleTimeout:     cfg.IdleTimeout,
		Log:             cfg.Log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	r := &Reader{pool: pool, queue: q, cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- pool.Run(ctx) }()
	return r
}

// Next blocks until the window has widened enough to yield its next
// chronologically-ordered record, or the reader is closed.
func (r *Reader) Next() (*record.Owned, error) {
	e, err := r.queue.Pop()
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

// TryNext is the non-blocking variant of Next.
func (r *Reader) TryNext() (*record.Owned, error) {
	e, err := r.queue.TryPop()
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

// Metrics exposes the underlying pool's counters.
func (r *Reader) Metrics() *Metrics { return &r.pool.Metrics }

// Close stops the reader's workers and waits for them to exit.
func (r *Reader) Close() error {
	r.cancel()
	err := <-r.done
	r.queue.Close()
	return err
}
