package telemetry_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/stock-analyzer/internal/telemetry"
)

func TestSessionID_RoundTrip(t *testing.T) {
	ctx := telemetry.WithSessionID(context.Background(), "sess-123")
	got, ok := telemetry.SessionIDFromContext(ctx)
	if !ok || got != "sess-123" {
		t.Fatalf("want sess-123,true; got %q,%v", got, ok)
	}
}

func TestSessionID_EmptyIDRejectedOnRead(t *testing.T) {
	ctx := telemetry.WithSessionID(context.Background(), "")
	got, ok := telemetry.SessionIDFromContext(ctx)
	if ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
}

func TestSessionID_MissingValue(t *testing.T) {
	got, ok := telemetry.SessionIDFromContext(context.Background())
	if ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
}

func TestSessionID_LastWriteWins(t *testing.T) {
	ctx := telemetry.WithSessionID(telemetry.WithSessionID(context.Background(), "s1"), "s2")
	got, ok := telemetry.SessionIDFromContext(ctx)
	if !ok || got != "s2" {
		t.Fatalf("want s2,true; got %q,%v", got, ok)
	}
}

func TestSessionID_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	child := telemetry.WithSessionID(parent, "s1")
	cancel()

	select {
	case <-child.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("child context did not observe parent cancellation")
	}
}

func TestNewSessionID_Unique(t *testing.T) {
	a, b := telemetry.NewSessionID(), telemetry.NewSessionID()
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	if !strings.HasPrefix(a, "sess-") || len(a) != len("sess-")+36 {
		t.Fatalf("unexpected id shape: %q", a)
	}
}
