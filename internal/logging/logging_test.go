package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/petasbytes/stock-analyzer/internal/logging"
)

func TestNew_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: "info", Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Str("thread_id", "thread_x").Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %d: %q", len(lines), buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["message"] != "visible" || m["thread_id"] != "thread_x" || m["service"] != "stockanalyzer" {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestNew_UnknownLevelDefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: "chatty", Output: &buf})
	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn, got %q", buf.String())
	}
	log.Warn().Msg("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn missing: %q", buf.String())
	}
}
