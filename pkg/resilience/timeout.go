package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/errors"
)

// WithTimeout runs fn under a context that expires after timeout. A missed
// deadline is reported as apperrors.ErrTimeout joined with
// context.DeadlineExceeded, so it maps to 504 and still matches either
// sentinel. Cancellation of ctx itself is returned as is. A non-positive
// timeout runs fn directly.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(timeoutCtx)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return timeoutError(name, timeout, err)
		}
		return err
	case <-timeoutCtx.Done():
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: parent context cancelled: %w", name, err)
		}
		return timeoutError(name, timeout, context.DeadlineExceeded)
	}
}

func timeoutError(name string, timeout time.Duration, cause error) error {
	return fmt.Errorf("%s: %w", name, errors.Join(
		fmt.Errorf("%w after %v", apperrors.ErrTimeout, timeout),
		cause,
	))
}
