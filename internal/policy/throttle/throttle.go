// Package throttle paces calls to the extraction service.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"AlertTrack/internal/ports"
)

// Throttle enforces a fixed minimum interval between successive calls,
// measured from the end of the previous call when Done is reported and from
// its start otherwise. The first Wait returns immediately.
type Throttle struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	limit   rate.Limit
	delay   time.Duration
}

var _ ports.Throttle = (*Throttle)(nil)

// New returns a throttle spacing calls by delay; delay <= 0 disables pacing.
func New(delay time.Duration) *Throttle {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Throttle{limiter: rate.NewLimiter(limit, 1), limit: limit, delay: delay}
}

// Delay reports the configured interval.
func (t *Throttle) Delay() time.Duration {
	return t.delay
}

// Wait blocks until the next call is allowed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	limiter := t.limiter
	t.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle wait: %w", err)
	}
	return nil
}

// Done marks the end of the paced call; the next Wait releases no earlier
// than delay from now.
func (t *Throttle) Done() {
	if t.limit == rate.Inf {
		return
	}
	limiter := rate.NewLimiter(t.limit, 1)
	limiter.Allow()

	t.mu.Lock()
	t.limiter = limiter
	t.mu.Unlock()
}
