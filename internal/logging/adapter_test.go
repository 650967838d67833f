package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewSlogAdapter_WithNil(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	if adapter == nil || adapter.logger == nil {
		t.Fatal("NewSlogAdapter(nil) should fall back to slog.Default()")
	}
}

func TestSlogAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(NewLogger(&buf, slog.LevelDebug))

	adapter.Debug("debug message", "k", 1)
	adapter.Info("info message")
	adapter.Warn("warn message")
	adapter.Error("error message")

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "level=INFO", "level=WARN", "level=ERROR", "k=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(NewLogger(&buf, slog.LevelInfo)).With("component", "listener")
	adapter.Info("ready")

	if !strings.Contains(buf.String(), "component=listener") {
		t.Errorf("With() attribute missing: %s", buf.String())
	}
}

func TestSlogAdapter_Logger(t *testing.T) {
	logger := slog.Default()
	if NewSlogAdapter(logger).Logger() != logger {
		t.Error("Logger() should return the underlying logger")
	}
	if DefaultLogger().Logger() == nil {
		t.Error("DefaultLogger() should wrap a logger")
	}
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = (*SlogAdapter)(nil)
}
