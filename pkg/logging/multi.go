package logging

import (
	"context"
	"errors"
)

// MultiLogger fans every record out to several loggers
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers, dropping nil entries
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Debug logs a debug message
func (m *MultiLogger) Debug(ctx context.Context, msg string, fields Fields) {
	for _, l := range m.loggers {
		l.Debug(ctx, msg, fields)
	}
}

// Info logs an info message
func (m *MultiLogger) Info(ctx context.Context, msg string, fields Fields) {
	for _, l := range m.loggers {
		l.Info(ctx, msg, fields)
	}
}

// Warn logs a warning message
func (m *MultiLogger) Warn(ctx context.Context, msg string, fields Fields) {
	for _, l := range m.loggers {
		l.Warn(ctx, msg, fields)
	}
}

// Error logs an error message
func (m *MultiLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	for _, l := range m.loggers {
		l.Error(ctx, msg, err, fields)
	}
}

// WithFields returns a multi logger whose members carry the fields
func (m *MultiLogger) WithFields(fields Fields) Logger {
	out := &MultiLogger{loggers: make([]Logger, len(m.loggers))}
	for i, l := range m.loggers {
		out.loggers[i] = l.WithFields(fields)
	}
	return out
}

// Close closes every member
func (m *MultiLogger) Close() error {
	var errs []error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
