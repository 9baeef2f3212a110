package logger

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
		wantLevel  zapcore.Level
	}{
		{
			name:       "JSON output mode",
			jsonOutput: true,
			verbosity:  VerbosityUser,
			wantLevel:  zapcore.WarnLevel,
		},
		{
			name:       "Console output mode",
			jsonOutput: false,
			verbosity:  VerbosityInfo,
			wantLevel:  zapcore.InfoLevel,
		},
		{
			name:       "Console debug",
			jsonOutput: false,
			verbosity:  VerbosityDebug,
			wantLevel:  zapcore.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer SetVerbosity(VerbosityUser)
			Logger = nil
			JSONOutput = false

			if err := InitializeWithVerbosity(tt.jsonOutput, tt.verbosity); err != nil {
				t.Fatalf("InitializeWithVerbosity() error = %v", err)
			}
			if Logger == nil {
				t.Fatal("InitializeWithVerbosity() did not set global Logger")
			}
			if JSONOutput != tt.jsonOutput {
				t.Errorf("JSONOutput = %v, want %v", JSONOutput, tt.jsonOutput)
			}
			if !Logger.Desugar().Core().Enabled(tt.wantLevel) {
				t.Errorf("level %v should be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && Logger.Desugar().Core().Enabled(tt.wantLevel-1) {
				t.Errorf("level %v should be disabled", tt.wantLevel-1)
			}
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.WarnLevel},
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
		{7, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		if got := VerbosityToLevel(tt.verbosity); got != tt.want {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestLevelName(t *testing.T) {
	if got := LevelName(VerbosityDebug); got != "debug (-vv)" {
		t.Errorf("LevelName(2) = %q", got)
	}
	if got := LevelName(9); got != "trace (-vvv)" {
		t.Errorf("LevelName(9) = %q", got)
	}
}

func TestSetVerbosityAdjustsDerivedLoggers(t *testing.T) {
	defer SetVerbosity(VerbosityUser)

	if err := InitializeWithVerbosity(false, VerbosityUser); err != nil {
		t.Fatalf("InitializeWithVerbosity() error = %v", err)
	}
	named := ComponentLogger("ldcs.compiler")
	if named.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug should be disabled at user verbosity")
	}
	if TraceEnabled() {
		t.Fatal("trace should be disabled at user verbosity")
	}

	SetVerbosity(VerbosityTrace)
	if !named.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be enabled after raising verbosity")
	}
	if !TraceEnabled() || Verbosity() != VerbosityTrace {
		t.Errorf("Verbosity() = %d, TraceEnabled() = %v", Verbosity(), TraceEnabled())
	}
}

func TestFieldsFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithComponent(ctx, "ldcs.cli")

	fields := FieldsFromContext(ctx)
	want := []interface{}{FieldRequestID, "req-1", FieldComponent, "ldcs.cli"}
	if len(fields) != len(want) {
		t.Fatalf("FieldsFromContext() = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field[%d] = %v, want %v", i, fields[i], want[i])
		}
	}

	if FieldsFromContext(context.Background()) != nil {
		t.Error("empty context should yield no fields")
	}
}

func TestLoggingFunctionsWithNilLogger(t *testing.T) {
	prev := Logger
	Logger = nil
	defer func() { Logger = prev }()

	Infow("info")
	Warnw("warn", FieldCommand, "a.")
	Debugw("debug")
	Errorw("error")
	Cleanup()
}
