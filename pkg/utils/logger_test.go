package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"debug mode returns development logger", true, true},
		{"production mode returns production logger", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.debug)
			if err != nil {
				t.Fatalf("NewLogger(%v) error: %v", tt.debug, err)
			}
			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			_ = logger.Sync()
		})
	}
}

func TestNewConsoleLogger(t *testing.T) {
	quiet, err := NewConsoleLogger(false)
	if err != nil {
		t.Fatal(err)
	}
	if quiet.Core().Enabled(zapcore.InfoLevel) || !quiet.Core().Enabled(zapcore.WarnLevel) {
		t.Error("non-debug console logger should log warnings only")
	}
	verbose, err := NewConsoleLogger(true)
	if err != nil {
		t.Fatal(err)
	}
	if !verbose.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug console logger should log debug")
	}
}
