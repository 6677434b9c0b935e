package logging

import (
	"log/slog"
	"testing"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew_DoesNotPanic(t *testing.T) {
	cfg := config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}
	log := New(cfg, "test")
	if log == nil {
		t.Fatal("New() returned nil")
	}
	log.Debug("debug message", "key", "value")
}

func TestWith_ReturnsIndependentLogger(t *testing.T) {
	base := Default()
	scoped := base.With("component", "test")
	if scoped == nil || scoped == base {
		t.Error("With() should return a new logger instance")
	}
}
