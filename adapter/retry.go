package adapter

import (
	"context"
	"fmt"
	"time"
)

// Attempt performs one delivery try. It reports whether a failure may be
// retried.
type Attempt func(ctx context.Context) (retriable bool, err error)

// Retry runs attempt once plus up to retries more times, sleeping delay(i)
// before retry i. A nil delay means Backoff. It stops at the first success,
// the first non-retriable failure, or when ctx is done.
func Retry(ctx context.Context, retries int, delay func(int) time.Duration, attempt Attempt) error {
	if delay == nil {
		delay = Backoff
	}

	var lastErr error
	attempts := 1 + max(retries, 0)
	for i := range attempts {
		if i > 0 {
			timer := time.NewTimer(delay(i))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("canceled after %d attempts: %w (last error: %v)", i, ctx.Err(), lastErr)
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("canceled after %d attempts: %w", i, err)
		}

		retriable, err := attempt(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retriable {
			return fmt.Errorf("non-retriable failure: %w", err)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
