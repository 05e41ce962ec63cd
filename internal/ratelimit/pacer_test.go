package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPacer_ClampsNonPositiveBudget(t *testing.T) {
	assert.Equal(t, 12*time.Second, NewPacer(0).Interval())
	assert.Equal(t, 12*time.Second, NewPacer(-3).Interval())
	assert.Equal(t, time.Second, NewPacer(60).Interval())
}

func TestWait_FirstCallPassesImmediately(t *testing.T) {
	p := NewPacer(5)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWait_EnforcesMinimumSpacing(t *testing.T) {
	// 600 RPM keeps the test fast while still observable: 100ms spacing.
	p := NewPacer(600)
	ctx := context.Background()

	require.NoError(t, p.Wait(ctx))
	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	elapsed := time.Since(start)

	// Allow scheduling jitter but never less than ~the interval.
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestWait_SlowCallCountsTowardInterval(t *testing.T) {
	p := NewPacer(600)
	ctx := context.Background()

	require.NoError(t, p.Wait(ctx))
	time.Sleep(120 * time.Millisecond) // simulated slow downstream call

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWait_ContextCancellation(t *testing.T) {
	p := NewPacer(1) // 60s interval forces a wait on the second call
	ctx := context.Background()
	require.NoError(t, p.Wait(ctx))

	cancelled, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := p.Wait(cancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
