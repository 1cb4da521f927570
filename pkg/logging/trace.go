package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var traceOn atomic.Bool

// SetTrace turns per-tick trace logging on or off. A TRACE log level or the -trace flag enables it.
func SetTrace(on bool) { traceOn.Store(on) }

// TraceEnabled reports whether trace logging is on.
func TraceEnabled() bool { return traceOn.Load() }

// Trace logs at DEBUG with a trace=true attribute when tracing is on.
// The arguments are not evaluated into a record otherwise, so hot paths can call it every tick.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if !traceOn.Load() || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	logger.Debug(msg, append(args, "trace", true)...)
}
