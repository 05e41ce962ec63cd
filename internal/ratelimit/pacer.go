// Package ratelimit paces outbound analysis requests. One Pacer instance is
// shared by construction across every caller in the process; it is never a
// package-level global.
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerMinute is the analysis request budget when none is
// configured. Non-positive budgets clamp to this value.
const DefaultRequestsPerMinute = 5

// Pacer enforces a minimum interval between permitted requests, derived from
// a requests-per-minute budget. The gate advances as each request is
// permitted, so time spent inside a slow downstream call counts toward the
// next interval.
type Pacer struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewPacer creates a pacing gate for the given requests-per-minute budget.
func NewPacer(requestsPerMinute int) *Pacer {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &Pacer{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Interval returns the minimum spacing between permitted requests.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until the minimum inter-request interval since the previously
// permitted request has elapsed. The first call passes immediately.
func (p *Pacer) Wait(ctx context.Context) error {
	res := p.limiter.Reserve()
	delay := res.Delay()
	if delay == 0 {
		return nil
	}

	zap.L().Info("analysis rate limit pacing", zap.Duration("sleep", delay))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
