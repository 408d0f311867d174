// Package logrussink adapts a logrus.FieldLogger to logsink.Sink, the
// second concrete structured-logging integration spec.md's ambient stack
// calls for.
package logrussink

import (
	"github.com/sirupsen/logrus"

	"github.com/inspectortrace/inspector/logsink"
)

// Sink adapts a logrus.FieldLogger.
type Sink struct {
	log logrus.FieldLogger
}

// New wraps log as a logsink.Sink.
func New(log logrus.FieldLogger) logsink.Sink {
	return Sink{log: log}
}

func toFields(fields []any) logrus.Fields {
	f := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		f[key] = fields[i+1]
	}
	return f
}

func (s Sink) Info(msg string, fields ...any) {
	s.log.WithFields(toFields(fields)).Info(msg)
}

func (s Sink) Warn(msg string, fields ...any) {
	s.log.WithFields(toFields(fields)).Warn(msg)
}

func (s Sink) Error(msg string, err error, fields ...any) {
	s.log.WithFields(toFields(fields)).WithError(err).Error(msg)
}
