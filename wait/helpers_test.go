package wait_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	id      string
	host    string
	ports   []int
	mapping map[int]int
	hostErr error
}

func (f fakeTarget) ID() string { return f.id }

func (f fakeTarget) Host(context.Context) (string, error) {
	return f.host, f.hostErr
}

func (f fakeTarget) MappedPort(_ context.Context, port int) (int, error) {
	mapped, ok := f.mapping[port]
	if !ok {
		return 0, errors.New("port not mapped")
	}
	return mapped, nil
}

func (f fakeTarget) LivenessPorts(context.Context) ([]int, error) {
	return f.ports, nil
}

// targetFor returns a target exposing the listener behind rawURL.
func targetFor(t *testing.T, rawURL string) fakeTarget {
	t.Helper()
	tgt, err := parseTarget(rawURL)
	require.NoError(t, err)
	return tgt
}

func exampleTarget(rawURL string) fakeTarget {
	tgt, err := parseTarget(rawURL)
	if err != nil {
		panic(err)
	}
	return tgt
}

func parseTarget(rawURL string) (fakeTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fakeTarget{}, err
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return fakeTarget{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fakeTarget{}, err
	}
	return fakeTarget{id: "svc", host: host, ports: []int{port}}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingObserver struct {
	mu       sync.Mutex
	started  int
	attempts []error
	finished []error
}

func (r *recordingObserver) WaitStarted(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recordingObserver) AttemptFinished(_, _ string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, err)
}

func (r *recordingObserver) WaitFinished(_, _ string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, err)
}

func (r *recordingObserver) snapshot() (started int, attempts, finished []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, append([]error(nil), r.attempts...), append([]error(nil), r.finished...)
}
