package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("warn record missing from output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOperation(NewLogger(&buf, slog.LevelInfo), "graph.send_mail")
	logger.Info("done")

	if !strings.Contains(buf.String(), "operation=graph.send_mail") {
		t.Errorf("operation attribute missing: %q", buf.String())
	}
}

func TestWithCommand(t *testing.T) {
	var buf bytes.Buffer
	logger := WithCommand(NewLogger(&buf, slog.LevelInfo), "inbox")
	logger.Info("done")

	if !strings.Contains(buf.String(), "command=inbox") {
		t.Errorf("command attribute missing: %q", buf.String())
	}
}

func TestAttrs(t *testing.T) {
	if attr := Operation("op"); attr.Key != KeyOperation || attr.Value.String() != "op" {
		t.Errorf("Operation() = %v", attr)
	}
	if attr := Flow("silent"); attr.Key != KeyFlow || attr.Value.String() != "silent" {
		t.Errorf("Flow() = %v", attr)
	}
	if attr := Status(StatusSuccess); attr.Key != KeyStatus || attr.Value.String() != "success" {
		t.Errorf("Status() = %v", attr)
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("test error"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	// nil yields an empty group that slog omits
	attr = Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string (empty group)", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if got := AnonymizeEmail(""); got != "" {
		t.Errorf("AnonymizeEmail(\"\") = %q, want empty", got)
	}

	hash := AnonymizeEmail("jane@example.com")
	if len(hash) != 21 || !strings.HasPrefix(hash, "user:") {
		t.Errorf("AnonymizeEmail() = %q, want user: + 16 hex chars", hash)
	}
	if AnonymizeEmail("Jane@Example.com") != hash {
		t.Error("AnonymizeEmail should be case-insensitive")
	}
	if AnonymizeEmail("other@example.com") == hash {
		t.Error("different emails should produce different hashes")
	}
	if attr := UserHash("jane@example.com"); attr.Key != KeyUserHash || attr.Value.String() != hash {
		t.Errorf("UserHash() = %v", attr)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}
