package wait

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// FixedDelayStrategy waits a fixed duration and then reports ready. It never
// contacts the target.
type FixedDelayStrategy struct {
	duration time.Duration
	opts     options
}

// ForDuration returns a strategy that waits d. Negative durations are
// treated as zero.
func ForDuration(d time.Duration, opts ...Option) *FixedDelayStrategy {
	return &FixedDelayStrategy{duration: max(d, 0), opts: newOptions(opts)}
}

// Duration reports how long the strategy waits.
func (s *FixedDelayStrategy) Duration() time.Duration {
	return s.duration
}

// WaitUntilReady implements Strategy. target may be nil.
func (s *FixedDelayStrategy) WaitUntilReady(ctx context.Context, target Target) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := "-"
	if target != nil {
		id = target.ID()
	}
	log := s.opts.log().With(
		slog.String("strategy", StrategyDelay),
		slog.String("target", id),
	)

	observer := s.opts.obs()
	started := time.Now()
	observer.WaitStarted(StrategyDelay, id)
	defer func() {
		observer.WaitFinished(StrategyDelay, id, err, time.Since(started))
	}()

	timer := time.NewTimer(s.duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		log.Debug("fixed delay elapsed", "delay", s.duration)
		return nil
	case <-ctx.Done():
		log.Warn("fixed delay interrupted", "delay", s.duration, "elapsed", time.Since(started))
		return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
	}
}

var _ Strategy = (*FixedDelayStrategy)(nil)
