package llm

import (
	"context"
	"testing"
	"time"
)

func TestLimiterUnlimited(t *testing.T) {
	l := NewLimiter(0)
	for i := 0; i < 10; i++ {
		if wait := l.reserve(); wait != 0 {
			t.Fatalf("unlimited limiter reserved a wait of %v", wait)
		}
	}
}

func TestLimiterSpacesCalls(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	l := NewLimiter(60) // one call per second
	l.now = func() time.Time { return now }

	if wait := l.reserve(); wait != 0 {
		t.Errorf("first call should be immediate, got wait %v", wait)
	}
	if wait := l.reserve(); wait != time.Second {
		t.Errorf("second immediate call should wait 1s, got %v", wait)
	}
	if wait := l.reserve(); wait != 2*time.Second {
		t.Errorf("third immediate call should wait 2s, got %v", wait)
	}

	// After the clock catches up, calls are admitted immediately again.
	now = base.Add(time.Minute)
	if wait := l.reserve(); wait != 0 {
		t.Errorf("call after a quiet minute should be immediate, got %v", wait)
	}
}

func TestLimiterNextAllowed(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(60)
	l.now = func() time.Time { return base }

	if !l.NextAllowed().IsZero() {
		t.Error("fresh limiter should admit immediately")
	}
	l.reserve()
	if got := l.NextAllowed(); !got.Equal(base.Add(time.Second)) {
		t.Errorf("NextAllowed = %v, want %v", got, base.Add(time.Second))
	}
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	l := NewLimiter(1) // one call per minute
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("Wait should fail when the context is already canceled")
	}
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.AddTokens(3)
	m.AddTokens(2)
	m.AddCall()
	if m.Tokens() != 5 {
		t.Errorf("Tokens = %d, want 5", m.Tokens())
	}
	if m.Calls() != 1 {
		t.Errorf("Calls = %d, want 1", m.Calls())
	}
}
