package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/drblury/readywait/probe"
)

type pollResult struct {
	attempts int
	lastErr  error
	elapsed  time.Duration
}

// poll runs attempt through the retrier, spacing attempts with a fresh
// limiter. It returns errPollTimeout or an ErrCanceled wrap on failure.
func (o *options) poll(ctx context.Context, log *slog.Logger, strategy, target string, attempt probe.Func) (pollResult, error) {
	var res pollResult
	start := time.Now()
	limiter := o.limiter()
	observer := o.obs()

	err := o.retrier.RetryUntilTimeout(ctx, o.startupTimeout, func(ctx context.Context) error {
		if err := limiter.Wait(ctx); err != nil {
			// rate.Limiter fails early when the next token lies past the deadline.
			<-ctx.Done()
			return ctx.Err()
		}
		res.attempts++

		attemptCtx := ctx
		if o.attemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, o.attemptTimeout)
			defer cancel()
		}

		began := time.Now()
		err := attempt(attemptCtx)
		observer.AttemptFinished(strategy, target, err, time.Since(began))
		if err != nil {
			if ctx.Err() == nil {
				res.lastErr = err
			}
			log.Debug("readiness attempt failed", "attempt", res.attempts, "error", err)
			return err
		}
		log.Debug("readiness attempt passed", "attempt", res.attempts)
		return nil
	})
	res.elapsed = time.Since(start)

	switch {
	case err == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
	default:
		return res, errPollTimeout
	}
}

var errPollTimeout = errors.New("poll timed out")

// lastResponse extracts the last HTTP status and body observed by an attempt.
func (r pollResult) lastResponse() (int, string) {
	var attemptErr *probe.AttemptError
	if errors.As(r.lastErr, &attemptErr) {
		return attemptErr.Status, attemptErr.Body
	}
	return 0, ""
}
