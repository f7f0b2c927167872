package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "JSON")
	logger.Info("Order placed", "user_name", "Alice", "price", 300)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "Order placed" || entry["user_name"] != "Alice" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNew_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, "")
	logger.Info("hidden")
	logger.Warn("shown", "component", "ledger")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=ledger") {
		t.Errorf("expected warn line with attrs, got %q", out)
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for value, want := range tests {
		t.Setenv("LOG_LEVEL", value)
		if got := levelFromEnv(); got != want {
			t.Errorf("LOG_LEVEL=%q: got %v, want %v", value, got, want)
		}
	}
}
