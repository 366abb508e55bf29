package logging

import "context"

// NullLogger discards every record. Components fall back to it when no
// logger is configured.
type NullLogger struct{}

var _ Logger = (*NullLogger)(nil)

// NewNullLogger creates a new null logger
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (*NullLogger) Debug(context.Context, string, Fields) {}

func (*NullLogger) Info(context.Context, string, Fields) {}

func (*NullLogger) Warn(context.Context, string, Fields) {}

func (*NullLogger) Error(context.Context, string, error, Fields) {}

// WithFields returns l; a null logger has nothing to attach fields to
func (l *NullLogger) WithFields(Fields) Logger {
	return l
}

func (*NullLogger) Close() error {
	return nil
}
