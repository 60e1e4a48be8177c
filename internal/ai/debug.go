package ai

import "sync/atomic"

// debugEnabled gates per-tick debug logging. The tick loop runs many agents
// per frame, so slog level checks are replaced by one atomic load.
var debugEnabled atomic.Bool

// EnableDebugLogging switches AI debug logs on or off.
// Called from main once the configured log level is known.
func EnableDebugLogging(enabled bool) {
	debugEnabled.Store(enabled)
}

// IsDebugEnabled guards expensive debug log calls:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("threat scan", "threats", len(threats))
//	}
func IsDebugEnabled() bool {
	return debugEnabled.Load()
}
