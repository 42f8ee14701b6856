package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit_ReplacesNop(t *testing.T) {
	Init("warn")
	if !Log.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("expected warn level enabled")
	}
	if Log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("expected info level disabled")
	}
}
