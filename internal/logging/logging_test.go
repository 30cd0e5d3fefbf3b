package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want zapcore.Level
	}{
		{"ConsoleDebug", Config{Level: "debug", Format: "console"}, zapcore.DebugLevel},
		{"JSONWarn", Config{Level: "warn", Format: "json"}, zapcore.WarnLevel},
		{"UnknownLevel", Config{Level: "chatty"}, zapcore.InfoLevel},
		{"Empty", Config{}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !logger.Core().Enabled(tt.want) {
				t.Errorf("Expected %v to be enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && logger.Core().Enabled(tt.want-1) {
				t.Errorf("Expected %v to be disabled", tt.want-1)
			}
		})
	}
}
