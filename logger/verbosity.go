package logger

import "go.uber.org/zap/zapcore"

// Verbosity levels counted from repeated -v flags
const (
	VerbosityUser  = 0 // compiled output and diagnostics only
	VerbosityInfo  = 1 // -v: library loading, macro registration, migrations
	VerbosityDebug = 2 // -vv: compile stages with rule counts
	VerbosityTrace = 3 // -vvv: full rule lists after every stage
)

// VerbosityToLevel maps a -v count to a zap level. Trace has no zap level
// of its own; it logs at debug and is gated by TraceEnabled.
func VerbosityToLevel(v int) zapcore.Level {
	switch {
	case v <= VerbosityUser:
		return zapcore.WarnLevel
	case v == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// ShouldLogTrace returns true for verbosity >= 3 (-vvv)
func ShouldLogTrace(v int) bool {
	return v >= VerbosityTrace
}

// LevelName returns a human-readable name for a verbosity level
func LevelName(v int) string {
	switch {
	case v <= VerbosityUser:
		return "quiet"
	case v == VerbosityInfo:
		return "info (-v)"
	case v == VerbosityDebug:
		return "debug (-vv)"
	}
	return "trace (-vvv)"
}
