package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"":        slog.LevelDebug,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithFormatJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithFormat("info", FormatJSON, &buf)
	logger.Debug("hidden")
	logger.Info("feed exported", "incidents", 3)

	line := strings.TrimSpace(buf.String())
	var rec map[string]interface{}
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("expected one json record, got %q: %v", line, err)
	}
	if rec["msg"] != "feed exported" || rec["incidents"].(float64) != 3 || rec["service"] != "crisis-monitor" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestNewWithFormatText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithFormat("warn", "text", &buf).Warn("source failed", "source", "BBC")
	if !strings.Contains(buf.String(), "source=BBC") {
		t.Fatalf("unexpected text output %q", buf.String())
	}
}
