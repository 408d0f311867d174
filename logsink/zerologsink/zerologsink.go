// Package zerologsink adapts a zerolog.Logger to logsink.Sink, one of the
// concrete structured-logging integrations spec.md's ambient stack calls
// for (the teacher's logging.go anticipates exactly this kind of external
// framework integration, in its own package-internal DefaultLogger).
package zerologsink

import (
	"github.com/rs/zerolog"

	"github.com/inspectortrace/inspector/logsink"
)

// Sink adapts a zerolog.Logger.
type Sink struct {
	log zerolog.Logger
}

// New wraps log as a logsink.Sink.
func New(log zerolog.Logger) logsink.Sink {
	return Sink{log: log}
}

func applyFields(e *zerolog.Event, fields []any) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, fields[i+1])
	}
	return e
}

func (s Sink) Info(msg string, fields ...any) {
	applyFields(s.log.Info(), fields).Msg(msg)
}

func (s Sink) Warn(msg string, fields ...any) {
	applyFields(s.log.Warn(), fields).Msg(msg)
}

func (s Sink) Error(msg string, err error, fields ...any) {
	applyFields(s.log.Error().Err(err), fields).Msg(msg)
}
