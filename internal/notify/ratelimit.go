package notify

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces two sliding windows at once, matching Telegram's
// published bot limits. A send must fit both windows; Wait blocks until it
// does and records the send under the same lock, so concurrent callers can
// never both observe a free slot and both take it.
type RateLimiter struct {
	perSecond int
	perMinute int

	mu    sync.Mutex
	sends []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateLimiter(perSecond, perMinute int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 3
	}
	if perMinute <= 0 {
		perMinute = 20
	}
	return &RateLimiter{
		perSecond: perSecond,
		perMinute: perMinute,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Wait blocks until a send slot is free in both windows, then claims it.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := r.now()
		r.prune(now)

		wait := r.nextFree(now)
		if wait <= 0 {
			r.sends = append(r.sends, now)
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune drops sends older than the minute window; the second window is a
// subset so one retention horizon covers both.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for i < len(r.sends) && r.sends[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		r.sends = append(r.sends[:0], r.sends[i:]...)
	}
}

// nextFree returns how long until both windows admit a send, zero if they
// already do. Sends are appended in order, so the oldest entry of each
// window is the one whose expiry opens a slot.
func (r *RateLimiter) nextFree(now time.Time) time.Duration {
	var wait time.Duration

	if n := len(r.sends); n >= r.perMinute {
		oldest := r.sends[n-r.perMinute]
		if d := oldest.Add(time.Minute).Sub(now); d > wait {
			wait = d
		}
	}

	secCutoff := now.Add(-time.Second)
	recent := 0
	for i := len(r.sends) - 1; i >= 0; i-- {
		if r.sends[i].Before(secCutoff) {
			break
		}
		recent++
	}
	if recent >= r.perSecond {
		oldest := r.sends[len(r.sends)-recent]
		if d := oldest.Add(time.Second).Sub(now); d > wait {
			wait = d
		}
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
