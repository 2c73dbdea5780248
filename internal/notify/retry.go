package notify

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy retries throttled sends with a linear backoff. Only throttling
// is retried: a timeout means the message is likely stale by the time a
// retry would land, and any other failure is not improved by repetition.
type RetryPolicy struct {
	MaxAttempts int
	BackoffStep time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 3,
		BackoffStep: 10 * time.Second,
		sleep:       sleepCtx,
	}
}

// Do runs fn up to MaxAttempts times, sleeping attempt*BackoffStep between
// throttled attempts (10s, 20s, 30s with the defaults). The last error is
// returned when attempts run out.
func (p *RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isThrottle(lastErr) || attempt == p.MaxAttempts {
			return lastErr
		}
		if err := p.sleep(ctx, time.Duration(attempt)*p.BackoffStep); err != nil {
			return err
		}
	}
	return lastErr
}

func isThrottle(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Throttled()
}
