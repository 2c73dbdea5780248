package notify

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() (*RetryPolicy, *[]time.Duration) {
	p := NewRetryPolicy()
	var sleeps []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return p, &sleeps
}

func TestRetryPolicy_ThrottleRetriesWithLinearBackoff(t *testing.T) {
	p, sleeps := testPolicy()

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &APIError{StatusCode: http.StatusTooManyRequests, Description: "slow down"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, *sleeps)
}

func TestRetryPolicy_GivesUpAfterMaxAttempts(t *testing.T) {
	p, sleeps := testPolicy()

	calls := 0
	throttle := &APIError{StatusCode: http.StatusTooManyRequests}
	err := p.Do(context.Background(), func() error {
		calls++
		return throttle
	})

	assert.ErrorIs(t, err, error(throttle))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, *sleeps)
}

func TestRetryPolicy_TimeoutNotRetried(t *testing.T) {
	p, sleeps := testPolicy()

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return context.DeadlineExceeded
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
}

func TestRetryPolicy_OtherAPIErrorsNotRetried(t *testing.T) {
	p, sleeps := testPolicy()

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return &APIError{StatusCode: http.StatusBadRequest, Description: "chat not found"}
	})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
}

func TestRetryPolicy_SuccessFirstTry(t *testing.T) {
	p, sleeps := testPolicy()

	calls := 0
	require.NoError(t, p.Do(context.Background(), func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
}
