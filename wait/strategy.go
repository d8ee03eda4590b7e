package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is matched by errors returned when a strategy gives up
	// because its startup timeout elapsed.
	ErrTimeout = errors.New("readiness timeout")

	// ErrCanceled is matched by errors returned when the caller's context
	// ended before the strategy reached a verdict.
	ErrCanceled = errors.New("readiness wait canceled")

	// ErrInvalidConfig is matched by errors caused by a configuration or
	// target that cannot produce a probe at all.
	ErrInvalidConfig = errors.New("invalid readiness configuration")
)

// Strategy blocks until the target is ready. A nil error means ready.
type Strategy interface {
	WaitUntilReady(ctx context.Context, target Target) error
}

// Target resolves where a service can be reached. Implementations are
// expected to answer from the service's current state, since mapped ports
// may only be known after it started.
type Target interface {
	// ID names the target in logs and diagnostics.
	ID() string
	// Host returns the address the service is reachable at.
	Host(ctx context.Context) (string, error)
	// MappedPort translates a port of the service to the externally reachable one.
	MappedPort(ctx context.Context, port int) (int, error)
	// LivenessPorts lists externally reachable ports usable for probing.
	LivenessPorts(ctx context.Context) ([]int, error)
}

// TimeoutError reports a wait that never observed a passing attempt.
type TimeoutError struct {
	Strategy string
	Target   string
	// URI is the probed URI without query parameters; empty for non-HTTP strategies.
	URI string
	// Expected describes the accepted status codes.
	Expected string
	Elapsed  time.Duration
	Attempts int
	// LastStatus and LastBody hold the last HTTP response seen, if any.
	LastStatus int
	LastBody   string
	LastErr    error
}

func (e *TimeoutError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("timed out waiting for URL to be accessible (%s should return HTTP %s)", e.URI, e.Expected)
	}
	return fmt.Sprintf("timed out waiting for %s to respond", e.Target)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}
