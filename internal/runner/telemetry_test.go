package runner_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/petasbytes/stock-analyzer/internal/metrics"
	"github.com/petasbytes/stock-analyzer/internal/telemetry"
)

// readEvents returns every JSON object in baseDir/events.jsonl, oldest first.
func readEvents(t *testing.T, baseDir string) []map[string]any {
	t.Helper()
	f, err := os.Open(filepath.Join(baseDir, "events.jsonl"))
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()

	var out []map[string]any
	s := bufio.NewScanner(f)
	for s.Scan() {
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(txt), &m); err != nil {
			t.Fatalf("decode event %q: %v", txt, err)
		}
		out = append(out, m)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan events: %v", err)
	}
	return out
}

// durationSamples returns how many run durations were observed for status.
func durationSamples(t *testing.T, status string) uint64 {
	t.Helper()
	mfs, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "stockanalyzer_run_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" && lp.GetValue() == status {
					return m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return 0
}

func TestWaitOnRun_EmitsPollEventsAndMetrics(t *testing.T) {
	base := t.TempDir()
	t.Setenv("SA_ARTIFACTS_DIR", base)
	t.Setenv("SA_OBSERVE_JSON", "1")

	_, r, _, asstID, threadID := setup(t)
	ctx := telemetry.WithSessionID(context.Background(), "sess-poll")

	pollsBefore := testutil.ToFloat64(metrics.RunPolls)
	durBefore := durationSamples(t, "completed")

	run, err := r.RunAssistant(ctx, asstID, threadID, assistantName, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if got := testutil.ToFloat64(metrics.RunPolls) - pollsBefore; got != 2 {
		t.Fatalf("run polls delta = %v, want 2", got)
	}
	if got := durationSamples(t, "completed") - durBefore; got != 1 {
		t.Fatalf("completed duration samples delta = %d, want 1", got)
	}

	events := readEvents(t, base)
	wantNames := []string{"run_polled", "run_polled", "run_finished"}
	if len(events) != len(wantNames) {
		t.Fatalf("want %d events, got %d: %v", len(wantNames), len(events), events)
	}
	for i, m := range events {
		if m["event"] != wantNames[i] {
			t.Fatalf("event[%d] = %v, want %s", i, m["event"], wantNames[i])
		}
		if m["session_id"] != "sess-poll" || m["run_id"] != run.ID {
			t.Fatalf("event[%d] ids mismatch: %v", i, m)
		}
	}
	// numbers decode as float64
	if events[0]["poll"] != float64(1) || events[0]["status"] != "in_progress" {
		t.Errorf("first poll event: %v", events[0])
	}
	if events[1]["poll"] != float64(2) || events[1]["status"] != "completed" {
		t.Errorf("second poll event: %v", events[1])
	}
	if events[2]["polls"] != float64(2) || events[2]["status"] != "completed" {
		t.Errorf("finish event: %v", events[2])
	}
	if _, ok := events[2]["duration_ms"]; !ok {
		t.Errorf("finish event lacks duration_ms: %v", events[2])
	}
}

func TestWaitOnRun_ObserveOffWritesNoEvents(t *testing.T) {
	base := t.TempDir()
	t.Setenv("SA_ARTIFACTS_DIR", base)
	t.Setenv("SA_OBSERVE_JSON", "0")

	_, r, _, asstID, threadID := setup(t)
	pollsBefore := testutil.ToFloat64(metrics.RunPolls)

	if _, err := r.RunAssistant(context.Background(), asstID, threadID, assistantName, nil); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := testutil.ToFloat64(metrics.RunPolls) - pollsBefore; got != 2 {
		t.Fatalf("run polls delta = %v, want 2", got)
	}
	if _, err := os.Stat(filepath.Join(base, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events.jsonl when observe=0, got err=%v", err)
	}
}
