package logging

import (
	"context"
	"io"
	"log/slog"
	"sort"
)

// handlerLogger adapts a slog.Handler to the Logger interface
type handlerLogger struct {
	logger *slog.Logger
	closer io.Closer
}

func newHandlerLogger(handler slog.Handler, closer io.Closer) *handlerLogger {
	return &handlerLogger{logger: slog.New(handler), closer: closer}
}

// Debug logs a debug message
func (l *handlerLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs(nil, fields)...)
}

// Info logs an info message
func (l *handlerLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs(nil, fields)...)
}

// Warn logs a warning message
func (l *handlerLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs(nil, fields)...)
}

// Error logs an error message
func (l *handlerLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.logger.LogAttrs(ctx, slog.LevelError, msg, attrs(err, fields)...)
}

// WithFields returns a logger with additional fields
func (l *handlerLogger) WithFields(fields Fields) Logger {
	args := make([]any, 0, len(fields))
	for _, a := range attrs(nil, fields) {
		args = append(args, a)
	}
	return &handlerLogger{logger: l.logger.With(args...), closer: l.closer}
}

// Close closes the underlying output, if any
func (l *handlerLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// attrs converts fields to attributes in key order, error first
func attrs(err error, fields Fields) []slog.Attr {
	out := make([]slog.Attr, 0, len(fields)+1)
	if err != nil {
		out = append(out, slog.String("error", err.Error()))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		out = append(out, slog.Any(k, fields[k]))
	}
	return out
}
