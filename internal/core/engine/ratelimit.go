package engine

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a sliding-window admission control used by probe checkers.
// Acquire blocks until a call slot is available inside the window; it never
// fails except through context cancellation.
type RateLimiter struct {
	calls  int
	period time.Duration

	mu     sync.Mutex
	stamps []time.Time

	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter allows at most calls admissions per period.
func NewRateLimiter(calls int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		calls:  calls,
		period: period,
		clock:  func() time.Time { return time.Now().UTC() },
		sleep:  sleepContext,
	}
}

// Acquire waits, if necessary, until the call fits inside the window, then
// records it.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	if l == nil || l.calls <= 0 {
		return nil
	}

	for {
		l.mu.Lock()
		now := l.clock()
		cutoff := now.Add(-l.period)

		live := l.stamps[:0]
		for _, stamp := range l.stamps {
			if stamp.After(cutoff) {
				live = append(live, stamp)
			}
		}
		l.stamps = live

		if len(l.stamps) < l.calls {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.stamps[0].Add(l.period).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
