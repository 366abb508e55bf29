package logging

import (
	"io"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// ConsoleLogger writes human-oriented records, coloured when the output
// is a terminal
type ConsoleLogger struct {
	*handlerLogger
}

// NewConsoleLogger creates a console logger writing to w at the given level
func NewConsoleLogger(w io.Writer, level Level) *ConsoleLogger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level.slogLevel(),
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
	})
	return &ConsoleLogger{handlerLogger: newHandlerLogger(handler, nil)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
