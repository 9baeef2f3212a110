package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the process-wide logger. It is a no-op until initialized so
	// library callers never need to set it up.
	Logger = zap.NewNop().Sugar()

	// JSONOutput is set when logs are written as JSON
	JSONOutput bool

	level     = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	verbosity = VerbosityUser
)

// InitializeWithVerbosity sets up the global logger with a level derived
// from -v flags. Logs go to stderr: stdout carries compiled program text.
func InitializeWithVerbosity(jsonOutput bool, v int) error {
	JSONOutput = jsonOutput
	SetVerbosity(v)

	if theme := os.Getenv("LDCS_LOG_THEME"); theme != "" {
		SetTheme(theme)
	}

	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = level
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
		zapLogger, err := config.Build()
		if err != nil {
			return err
		}
		Logger = zapLogger.Sugar()
		return nil
	}

	core := zapcore.NewCore(newMinimalEncoder(), zapcore.Lock(os.Stderr), level)
	Logger = zap.New(core).Sugar()
	return nil
}

// SetVerbosity changes the level of the global logger in place, including
// loggers already derived from it
func SetVerbosity(v int) {
	verbosity = v
	level.SetLevel(VerbosityToLevel(v))
}

// Verbosity returns the current -v count
func Verbosity() int {
	return verbosity
}

// TraceEnabled reports whether rule-level tracing was requested (-vvv)
func TraceEnabled() bool {
	return ShouldLogTrace(verbosity)
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
