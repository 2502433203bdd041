package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter gates individual requests to an upstream service.
type Limiter interface {
	// Wait blocks until the caller may proceed, or returns the context
	// error if ctx is canceled first.
	Wait(ctx context.Context) error
}

// MinInterval enforces a minimum time between grants. Concurrent callers
// queue up behind the shared timestamp.
type MinInterval struct {
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// Wait blocks until Interval has elapsed since the previous grant.
func (m *MinInterval) Wait(ctx context.Context) error {
	if m.Interval <= 0 {
		return nil
	}
	for {
		m.mu.Lock()
		now := time.Now()
		wait := m.last.Add(m.Interval).Sub(now)
		if wait <= 0 {
			m.last = now
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
