package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RequestThrottle enforces a minimum spacing between upstream calls,
// process-wide across all cache keys. The limiter does the pacing; the
// timestamp is kept for the status endpoint.
type RequestThrottle struct {
	limiter *rate.Limiter

	mu            sync.Mutex
	lastRequestAt time.Time
	now           func() time.Time
}

// NewRequestThrottle creates a throttle with the given minimum interval
// between upstream call starts.
func NewRequestThrottle(minInterval time.Duration) *RequestThrottle {
	return &RequestThrottle{
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		now:     time.Now,
	}
}

// Wait suspends until the spacing requirement is satisfied, then records the
// call start. Returns early only when ctx is done.
func (t *RequestThrottle) Wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	t.mu.Lock()
	t.lastRequestAt = t.now()
	t.mu.Unlock()
	return nil
}

// TimeSinceLastRequest returns the elapsed time since the last upstream call
// start; ok is false when no call has been made yet.
func (t *RequestThrottle) TimeSinceLastRequest() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastRequestAt.IsZero() {
		return 0, false
	}
	return t.now().Sub(t.lastRequestAt), true
}
