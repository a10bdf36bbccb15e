package llm

import (
	"context"
	"sync"
	"time"
)

// Limiter paces calls to a backend at a fixed request rate. It tracks the
// earliest instant the next call is allowed; the Engine uses that to pick the
// pool member with the most headroom.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	now      func() time.Time // swapped out in tests
}

// NewLimiter creates a limiter admitting requestsPerMinute calls per minute.
// A non-positive rate means unlimited.
func NewLimiter(requestsPerMinute int) *Limiter {
	var interval time.Duration
	if requestsPerMinute > 0 {
		interval = time.Minute / time.Duration(requestsPerMinute)
	}
	return &Limiter{interval: interval, now: time.Now}
}

// NextAllowed reports the earliest instant the next call is admitted. The
// zero time means immediately.
func (l *Limiter) NextAllowed() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next
}

// reserve claims the next slot and returns how long the caller must wait.
func (l *Limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	wait := l.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	start := now.Add(wait)
	l.next = start.Add(l.interval)
	return wait
}

// Wait blocks until the limiter admits a call or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	wait := l.reserve()
	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
