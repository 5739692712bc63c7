package logging

import "log/slog"

// EnableTrace turns on per-attempt logs, such as every resolver tier tried
// for every pin. Set from log.trace.
var EnableTrace = false

// Trace logs msg at DEBUG when tracing is enabled.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if !EnableTrace {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug(msg, args...)
}
