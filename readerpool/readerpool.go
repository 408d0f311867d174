// Package readerpool implements the reader pool driver: a fixed-size set
// of worker goroutines that drain the shared ring and feed decoded
// records into a window.Queue, turning N concurrent ring consumers into
// one chronologically-ordered stream, per spec.md §4.7.
//
// Workers are managed with golang.org/x/sync/errgroup, which generalizes
// the teacher eventloop package's
// single-goroutine run loop (Loop.Run) into a managed N-goroutine pool
// whose exits are observable without hand-rolled sync.WaitGroup
// bookkeeping.
package readerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inspectortrace/inspector/internal/errs"
	"github.com/inspectortrace/inspector/logsink"
	"github.com/inspectortrace/inspector/record"
	"github.com/inspectortrace/inspector/ring"
	"github.com/inspectortrace/inspector/window"
)

// RecordQueue is the window queue type the reader pool feeds: records
// reordered by their TimestampNS (int64) field.
type RecordQueue = window.Queue[int64, *record.Owned]

// RecordEntry is one entry of a RecordQueue.
type RecordEntry = window.Entry[int64, *record.Owned]

// Config configures a reader pool.
type Config struct {
	Ring            *ring.Allocator
	Queue           *RecordQueue
	NumConsumers    int
	PollingInterval time.Duration
	IdleTimeout     time.Duration
	Log             logsink.Sink
}

// Metrics are the reader pool's internal counters, updated with atomics
// so they may be read concurrently with the pool's run.
type Metrics struct {
	Processed  atomic.Uint64
	Dropped    atomic.Uint64 // OutOfOrder pushes, per spec.md §7's propagation policy
	DecodeErrs atomic.Uint64
}

// Pool runs NumConsumers workers draining Ring into Queue until each
// worker's idle time exceeds IdleTimeout.
type Pool struct {
	cfg     Config
	log     logsink.Sink
	Metrics Metrics
}

// New builds a Pool from cfg. NumConsumers defaults to 1, PollingInterval
// to 10ms, IdleTimeout to 5s, and Log to a no-op sink if unset.
func New(cfg Config) *Pool {
	if cfg.NumConsumers <= 0 {
		cfg.NumConsumers = 1
	}
	if cfg.PollingInterval <= 0 {
		cfg.PollingInterval = 10 * time.Millisecond
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Second
	}
	log := cfg.Log
	if log == nil {
		log = logsink.NoOp()
	}
	return &Pool{cfg: cfg, log: log}
}

// Run starts NumConsumers workers and blocks until all of them have
// exited (either because ctx was cancelled or because every worker's
// idle time exceeded IdleTimeout), then closes Queue.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.NumConsumers; i++ {
		g.Go(func() error { return p.worker(ctx) })
	}
	err := g.Wait()
	p.cfg.Queue.Close()
	return err
}

func (p *Pool) worker(ctx context.Context) error {
	var idle time.Duration
	for {
		if ctx.Err() != nil {
			return nil
		}

		rh, err := p.cfg.Ring.ReadNext()
		if err != nil {
			if errors.Is(err, errs.Empty) {
				idle += p.cfg.PollingInterval
				if idle >= p.cfg.IdleTimeout {
					return nil
				}
				select {
				case <-time.After(p.cfg.PollingInterval):
				case <-ctx.Done():
					return nil
				}
				continue
			}
			return err
		}
		idle = 0

		if rh.Recovered {
			p.log.Warn("reader pool: skipping recovered block, no decodable record")
			_ = rh.Close()
			continue
		}

		rec, err := record.FromReadHandle(rh)
		if err != nil {
			p.Metrics.DecodeErrs.Add(1)
			p.log.Error("reader pool: failed to decode record", err)
			continue
		}
		p.Metrics.Processed.Add(1)

		pushErr := p.cfg.Queue.Push(RecordEntry{Timestamp: rec.Header.TimestampNS, Value: rec})
		switch {
		case pushErr == nil:
		case errors.Is(pushErr, errs.OutOfOrder):
			p.Metrics.Dropped.Add(1)
			p.log.Warn("reader pool: dropped out-of-order record", "name", rec.Name, "timestamp_ns", rec.Header.TimestampNS)
		case errors.Is(pushErr, errs.Closed):
			return nil
		default:
			return pushErr
		}
	}
}
