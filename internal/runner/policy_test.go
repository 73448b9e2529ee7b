package runner

import (
	"testing"
	"time"
)

func TestPolicy_FixedCadence(t *testing.T) {
	p := DefaultPolicy()
	d := p.first()
	for i := 0; i < 5; i++ {
		d = p.next(d)
	}
	if d != time.Second {
		t.Fatalf("fixed cadence drifted to %v", d)
	}
}

func TestPolicy_BackoffCapped(t *testing.T) {
	p := Policy{Interval: 100 * time.Millisecond, Multiplier: 2, MaxInterval: 500 * time.Millisecond}
	want := []time.Duration{200, 400, 500, 500}
	d := p.first()
	for i, w := range want {
		d = p.next(d)
		if d != w*time.Millisecond {
			t.Fatalf("step %d: got %v want %v", i, d, w*time.Millisecond)
		}
	}
}

func TestPolicy_ZeroIntervalDefaults(t *testing.T) {
	if got := (Policy{}).first(); got != time.Second {
		t.Fatalf("got %v", got)
	}
}

func TestPolicy_MultiplierOnlyGrowsToDefaultCap(t *testing.T) {
	p := DefaultPolicy()
	p.Multiplier = 2
	want := []time.Duration{2, 4, 8, 16, 30, 30}
	d := p.first()
	for i, w := range want {
		d = p.next(d)
		if d != w*time.Second {
			t.Fatalf("step %d: got %v want %v", i, d, w*time.Second)
		}
	}
}

func TestPolicy_CapBelowIntervalNeverShortens(t *testing.T) {
	p := Policy{Interval: time.Second, Multiplier: 2, MaxInterval: 100 * time.Millisecond}
	d := p.first()
	for i := 0; i < 4; i++ {
		d = p.next(d)
		if d < time.Second {
			t.Fatalf("step %d: sleep shrank to %v", i, d)
		}
	}
}

func TestPolicy_ZeroMaxIsUncapped(t *testing.T) {
	p := Policy{Interval: time.Second, Multiplier: 3}
	d := p.first()
	for i := 0; i < 3; i++ {
		d = p.next(d)
	}
	if d != 27*time.Second {
		t.Fatalf("got %v want 27s", d)
	}
}
