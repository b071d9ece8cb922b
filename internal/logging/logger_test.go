package logging

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "grabarr.log")
	logger, err := New(Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hello", String("key", "value"))
}

func TestComponentLoggerTagsRecords(t *testing.T) {
	var sink strings.Builder
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&sink, levelVar))

	NewComponentLogger(logger, "scorer").Info("scored", Int("count", 3))

	out := sink.String()
	if !strings.Contains(out, "[scorer]") {
		t.Errorf("output missing component tag: %q", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("output missing attribute: %q", out)
	}
}
