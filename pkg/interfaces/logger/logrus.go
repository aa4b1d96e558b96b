package logger

import (
	"github.com/sirupsen/logrus"
)

// LogrusLogger forwards structured fields to a logrus entry.
type LogrusLogger struct {
	entry *logrus.Entry
}

var _ Logger = (*LogrusLogger)(nil)

// NewLogrus wraps an existing logrus logger. A nil argument uses the
// logrus standard logger.
func NewLogrus(base *logrus.Logger) *LogrusLogger {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &LogrusLogger{entry: logrus.NewEntry(base)}
}

// With returns a logger that includes the fields on every line.
func (l *LogrusLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &LogrusLogger{entry: l.entry.WithFields(toLogrusFields(fields))}
}

func (l *LogrusLogger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Error(msg)
}

func toLogrusFields(fields []Field) logrus.Fields {
	if len(fields) == 0 {
		return nil
	}
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
