package inspector

import (
	"time"

	"github.com/inspectortrace/inspector/logsink"
)

// settings is the construction-time configuration for a Queue, resolved
// once by OpenOrCreate and then immutable for the Queue's lifetime.
type settings struct {
	numWriterSlots   int
	numReaderSlots   int
	cursorTimeout    time.Duration
	writeMaxAttempts int
	readMaxAttempts  int
	removeOnExit     bool
	log              logsink.Sink
}

// Option configures a Queue at OpenOrCreate time. The set is generalized
// from the teacher eventloop package's LoopOption/loopOptionImpl/
// resolveLoopOptions pattern: a small sealed interface over an unexported
// closure-holding struct, rather than a public options struct, so new
// fields can be added without breaking callers.
type Option interface {
	apply(*settings) error
}

type optionFunc struct {
	f func(*settings) error
}

func (o *optionFunc) apply(s *settings) error { return o.f(s) }

// WithWriterSlots sets the number of producer cursor slots. Default 16.
func WithWriterSlots(n int) Option {
	return &optionFunc{func(s *settings) error {
		s.numWriterSlots = n
		return nil
	}}
}

// WithReaderSlots sets the number of consumer cursor slots. Default 16.
func WithReaderSlots(n int) Option {
	return &optionFunc{func(s *settings) error {
		s.numReaderSlots = n
		return nil
	}}
}

// WithCursorTimeout sets how long a cursor slot may sit acquired before a
// later Acquire call is entitled to reclaim it as stale. Default 5s.
func WithCursorTimeout(d time.Duration) Option {
	return &optionFunc{func(s *settings) error {
		s.cursorTimeout = d
		return nil
	}}
}

// WithWriteMaxAttempts bounds the number of CAS retries Publish makes
// before giving up with errs.Full, mirroring the original library's
// write_max_attempt config knob (details/config.hpp). Default 32.
func WithWriteMaxAttempts(n int) Option {
	return &optionFunc{func(s *settings) error {
		s.writeMaxAttempts = n
		return nil
	}}
}

// WithReadMaxAttempts bounds the number of CAS retries ReadTraceRecord
// and the reader pool make before giving up with errs.Empty, mirroring
// the original library's read_max_attempt config knob
// (details/config.hpp). Default 32.
func WithReadMaxAttempts(n int) Option {
	return &optionFunc{func(s *settings) error {
		s.readMaxAttempts = n
		return nil
	}}
}

// WithQueueRemoveOnExit marks the shared-memory region for removal (via
// shmregion.Unlink) when Close is called, mirroring the original
// library's queue_remove_on_exit config knob (details/config.hpp).
// Default false: by default Close only unmaps the region, matching the
// knob's default in the original library.
func WithQueueRemoveOnExit(remove bool) Option {
	return &optionFunc{func(s *settings) error {
		s.removeOnExit = remove
		return nil
	}}
}

// WithLogSink overrides the Queue's log sink. Default logsink.NoOp().
func WithLogSink(log logsink.Sink) Option {
	return &optionFunc{func(s *settings) error {
		s.log = log
		return nil
	}}
}

func resolveOptions(opts []Option) (*settings, error) {
	s := &settings{
		numWriterSlots:   16,
		numReaderSlots:   16,
		cursorTimeout:    5 * time.Second,
		writeMaxAttempts: 32,
		readMaxAttempts:  32,
		log:              logsink.NoOp(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}
