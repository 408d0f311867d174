// Package logsink declares the minimal pluggable logging interface used
// across the inspector module, generalized from the eventloop teacher
// package's Logger/globalLogger/NewNoOpLogger pattern. Where the teacher
// exposed four levels (Debug/Info/Warn/Error) behind a package-level
// global, Sink exposes the three levels spec.md's ambient stack actually
// calls for and is attached per-Queue via an Option instead of a global,
// so that two Queues in the same process can log independently.
package logsink

import "sync"

// Sink is the logging interface the inspector package and its
// subordinate packages (ring, readerpool) write through. Fields
// are passed as alternating key/value pairs, the convention the
// zerolog/logrus adapter packages both translate natively.
type Sink interface {
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// noOp discards everything. It is the default Sink when none is supplied
// via an Option, matching the teacher's NewNoOpLogger default.
type noOp struct{}

func (noOp) Info(string, ...any)         {}
func (noOp) Warn(string, ...any)         {}
func (noOp) Error(string, error, ...any) {}

// NoOp returns the no-op Sink.
func NoOp() Sink { return noOp{} }

// Multi fans a log call out to every sink in sinks, in order. Useful for
// e.g. logging to both a zerolog adapter and a test-capturing sink.
func Multi(sinks ...Sink) Sink { return multi(sinks) }

type multi []Sink

func (m multi) Info(msg string, fields ...any) {
	for _, s := range m {
		s.Info(msg, fields...)
	}
}

func (m multi) Warn(msg string, fields ...any) {
	for _, s := range m {
		s.Warn(msg, fields...)
	}
}

func (m multi) Error(msg string, err error, fields ...any) {
	for _, s := range m {
		s.Error(msg, err, fields...)
	}
}

// Recording is a test double that captures every call it receives,
// generalizing the teacher's WriterLogger (which formatted straight to an
// io.Writer) into a structured slice callers can assert against directly.
type Recording struct {
	mu      sync.Mutex
	Entries []Entry
}

// Entry is one captured log call.
type Entry struct {
	Level  string // "info", "warn", "error"
	Msg    string
	Err    error
	Fields []any
}

func (r *Recording) append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
}

func (r *Recording) Info(msg string, fields ...any) {
	r.append(Entry{Level: "info", Msg: msg, Fields: fields})
}

func (r *Recording) Warn(msg string, fields ...any) {
	r.append(Entry{Level: "warn", Msg: msg, Fields: fields})
}

func (r *Recording) Error(msg string, err error, fields ...any) {
	r.append(Entry{Level: "error", Msg: msg, Err: err, Fields: fields})
}

// Snapshot returns a copy of the entries recorded so far.
func (r *Recording) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.Entries))
	copy(out, r.Entries)
	return out
}
