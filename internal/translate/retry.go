package translate

import (
	"context"
	"time"
)

// RetryPolicy bounds the attempts made for one chunk.
// The delay grows linearly: the n-th retry waits n times Backoff.
type RetryPolicy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int

	// Backoff is the base delay.
	Backoff time.Duration
}

// Delay returns the wait before the given retry (1-based: first retry => 1).
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry <= 0 || p.Backoff <= 0 {
		return 0
	}
	return time.Duration(retry) * p.Backoff
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
