package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
		ok    bool
	}{
		{"debug", LevelDebug, true},
		{"info", LevelInfo, true},
		{"", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"loud", LevelInfo, false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	if isShellMode {
		t.Error("Expected isShellMode to be false after InitForCLI")
	}

	Info("test-subsystem", "test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("Expected log message to appear in CLI output")
	}

	if !strings.Contains(output, "test-subsystem") {
		t.Error("Expected subsystem to appear in CLI output")
	}
}

func TestCLILevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	Debug("test", "debug message")
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at INFO level")
	}

	if !strings.Contains(output, "info message") {
		t.Error("Info message should appear at INFO level")
	}
}

func TestErrorIncludesErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Error("Project", errors.New("disk full"), "save failed")

	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("expected error text in output, got %q", buf.String())
	}
}

func TestShellMode(t *testing.T) {
	ch := InitForShell(LevelInfo)
	defer func() {
		var buf bytes.Buffer
		InitForCLI(LevelInfo, &buf)
	}()

	Debug("Shell", "hidden")
	Warn("Shell", "visible %d", 1)

	select {
	case entry := <-ch:
		if entry.Message != "visible 1" {
			t.Errorf("got message %q, want %q", entry.Message, "visible 1")
		}
		if entry.Level != LevelWarn {
			t.Errorf("got level %v, want WARN", entry.Level)
		}
		if entry.Timestamp.After(time.Now()) {
			t.Error("timestamp should not be in the future")
		}
	default:
		t.Fatal("expected an entry on the shell channel")
	}

	select {
	case entry := <-ch:
		t.Fatalf("unexpected extra entry: %+v", entry)
	default:
	}

	CloseShellChannel()
	CloseShellChannel()
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after CloseShellChannel")
	}
}
