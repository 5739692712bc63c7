package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"witcherkg/pkg/config"
)

func TestInit(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logPath := filepath.Join(t.TempDir(), "logs", "witcherkg.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(logPath, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var console bytes.Buffer
	cleanup, err := InitWriter(&config.LogConfig{Path: logPath, Level: "DEBUG", Trace: true}, &console)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	slog.Debug("debug line")
	slog.Info("info line")
	cleanup()

	old, err := os.ReadFile(logPath + ".old")
	if err != nil || string(old) != "previous run\n" {
		t.Errorf("previous log not rotated: %q, %v", old, err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "debug line") || !strings.Contains(string(data), "info line") {
		t.Errorf("file log missing lines: %s", data)
	}
	if strings.Contains(console.String(), "debug line") {
		t.Error("console should only show INFO and up")
	}
	if !strings.Contains(console.String(), "info line") {
		t.Error("console missing info line")
	}
	if !EnableTrace {
		t.Error("trace flag not applied")
	}
	EnableTrace = false
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(slog.New(slog.NewTextHandler(&buf, nil)), "geo")
	logger.Info("hello")
	if !strings.Contains(buf.String(), "component=geo") {
		t.Errorf("component attribute missing: %s", buf.String())
	}
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	defer func() { EnableTrace = false }()

	EnableTrace = false
	Trace(logger, "hidden attempt")
	EnableTrace = true
	Trace(logger, "visible attempt", "tier", "direct_label")

	if strings.Contains(buf.String(), "hidden attempt") {
		t.Error("trace logged while disabled")
	}
	if !strings.Contains(buf.String(), "visible attempt") || !strings.Contains(buf.String(), "tier=direct_label") {
		t.Errorf("trace line missing: %s", buf.String())
	}
}
