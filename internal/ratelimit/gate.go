package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces a minimum interval between successive calls.
// The first call passes immediately; burst is fixed at 1.
type Gate struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewGate creates a Gate. A non-positive interval disables throttling.
func NewGate(interval time.Duration) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Wait blocks until the next call is allowed or ctx is done
func (g *Gate) Wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate gate wait: %w", err)
	}
	return nil
}

// Interval returns the configured minimum gap
func (g *Gate) Interval() time.Duration {
	return g.interval
}
