package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/drblury/readywait/internal/idgen"
	"github.com/drblury/readywait/probe"
)

// PingStrategy polls an arbitrary probe, such as a database ping, under the
// same retry, rate limit and timeout rules as HTTPStrategy.
type PingStrategy struct {
	name  string
	probe probe.Func
	opts  options
}

// ForPing returns a strategy polling fn. name identifies the dependency in
// logs and timeout errors when no target is given.
func ForPing(name string, fn probe.Func, opts ...Option) *PingStrategy {
	return &PingStrategy{name: name, probe: fn, opts: newOptions(opts)}
}

// With returns a copy of s with opts applied.
func (s *PingStrategy) With(opts ...Option) *PingStrategy {
	return &PingStrategy{name: s.name, probe: s.probe, opts: s.opts.with(opts)}
}

// WaitUntilReady implements Strategy. target may be nil; it only names the
// wait.
func (s *PingStrategy) WaitUntilReady(ctx context.Context, target Target) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := s.name
	if target != nil {
		id = target.ID()
	}

	log := s.opts.log().With(
		slog.String("strategy", StrategyPing),
		slog.String("target", id),
		slog.String("run_id", idgen.New()),
	)

	observer := s.opts.obs()
	started := time.Now()
	observer.WaitStarted(StrategyPing, id)
	defer func() {
		observer.WaitFinished(StrategyPing, id, err, time.Since(started))
	}()

	if s.probe == nil {
		return fmt.Errorf("%w: %s has no ping function", ErrInvalidConfig, s.name)
	}

	res, err := s.opts.poll(ctx, log, StrategyPing, id, s.probe)
	switch {
	case err == nil:
		log.Info("dependency ready", "attempts", res.attempts, "elapsed", res.elapsed)
		return nil
	case !errors.Is(err, errPollTimeout):
		log.Warn("wait canceled", "attempts", res.attempts, "error", err)
		return err
	}

	timeoutErr := &TimeoutError{
		Strategy: StrategyPing,
		Target:   id,
		Elapsed:  res.elapsed,
		Attempts: res.attempts,
		LastErr:  res.lastErr,
	}
	log.Error("dependency not ready", "attempts", res.attempts, "error", timeoutErr)
	return timeoutErr
}

var _ Strategy = (*PingStrategy)(nil)
