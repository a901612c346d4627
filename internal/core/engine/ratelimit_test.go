package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAdmitsUpToLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)
	slept := 0
	limiter.sleep = func(ctx context.Context, d time.Duration) error {
		slept++
		return nil
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
	require.Equal(t, 0, slept)
}

func TestRateLimiterWaitsWhenWindowIsFull(t *testing.T) {
	now := time.Now().UTC()
	limiter := NewRateLimiter(2, time.Minute)
	limiter.clock = func() time.Time { return now }

	var waits []time.Duration
	limiter.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		// Advance time past the window so the retry succeeds.
		now = now.Add(d)
		return nil
	}

	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))

	require.Len(t, waits, 1)
	require.Equal(t, time.Minute, waits[0])
}

func TestRateLimiterExpiredStampsFreeSlots(t *testing.T) {
	now := time.Now().UTC()
	limiter := NewRateLimiter(1, time.Minute)
	limiter.clock = func() time.Time { return now }
	limiter.sleep = func(ctx context.Context, d time.Duration) error {
		t.Fatalf("unexpected sleep of %s", d)
		return nil
	}

	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx))

	now = now.Add(61 * time.Second)
	require.NoError(t, limiter.Acquire(ctx))
}

func TestRateLimiterHonorsContextCancellation(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)

	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, limiter.Acquire(cancelled), context.Canceled)
}

func TestRateLimiterNilAndUnlimited(t *testing.T) {
	var limiter *RateLimiter
	require.NoError(t, limiter.Acquire(context.Background()))

	unlimited := NewRateLimiter(0, time.Minute)
	require.NoError(t, unlimited.Acquire(context.Background()))
}
