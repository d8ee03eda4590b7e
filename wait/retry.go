package wait

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/time/rate"
)

// Retrier runs attempt until it returns nil or timeout elapses. It returns
// nil on success and a non-nil error otherwise.
type Retrier interface {
	RetryUntilTimeout(ctx context.Context, timeout time.Duration, attempt func(ctx context.Context) error) error
}

// Limiter spaces attempts. Wait blocks until the next attempt may start.
type Limiter interface {
	Wait(ctx context.Context) error
}

// FailsafeRetrier retries without limit on attempts using a failsafe-go
// retry policy, bounded only by the timeout and the caller's context.
type FailsafeRetrier struct{}

// RetryUntilTimeout implements Retrier.
func (FailsafeRetrier) RetryUntilTimeout(ctx context.Context, timeout time.Duration, attempt func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	policy := retrypolicy.NewBuilder[any]().
		WithMaxRetries(-1).
		AbortIf(func(_ any, _ error) bool {
			return ctx.Err() != nil
		}).
		Build()

	_, err := failsafe.With[any](policy).WithContext(ctx).Get(func() (any, error) {
		return nil, attempt(ctx)
	})
	return err
}

type unlimited struct{}

func (unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}

// newIntervalLimiter allows one attempt immediately and then one per interval.
func newIntervalLimiter(interval time.Duration) Limiter {
	if interval <= 0 {
		return unlimited{}
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
