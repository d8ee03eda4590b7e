package wait_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/readywait/probe"
	"github.com/drblury/readywait/wait"
)

func TestHTTPStrategyReadyOnFirstAttempt(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	err := wait.ForEndpoint("/health",
		wait.WithLogger(quietLogger()),
		wait.WithObserver(obs),
	).WaitUntilReady(context.Background(), targetFor(t, srv.URL))

	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	started, attempts, finished := obs.snapshot()
	assert.Equal(t, 1, started)
	assert.Equal(t, []error{nil}, attempts)
	assert.Equal(t, []error{nil}, finished)
}

func TestHTTPStrategyTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	}))
	defer srv.Close()

	tgt := targetFor(t, srv.URL)
	started := time.Now()
	err := wait.ForEndpoint("/health",
		wait.WithStartupTimeout(2*time.Second),
		wait.WithAttemptInterval(200*time.Millisecond),
		wait.WithQueryParam("probe", "1"),
		wait.WithLogger(quietLogger()),
	).WaitUntilReady(context.Background(), tgt)
	elapsed := time.Since(started)

	require.ErrorIs(t, err, wait.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, 2*time.Second)
	assert.Less(t, elapsed, 4*time.Second)

	var timeoutErr *wait.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, srv.URL+"/health", timeoutErr.URI)
	assert.Equal(t, "200", timeoutErr.Expected)
	assert.Equal(t, http.StatusInternalServerError, timeoutErr.LastStatus)
	assert.Equal(t, "boom", timeoutErr.LastBody)
	assert.GreaterOrEqual(t, timeoutErr.Attempts, 2)
	assert.Equal(t, "svc", timeoutErr.Target)
	assert.EqualError(t, err, "timed out waiting for URL to be accessible ("+srv.URL+"/health should return HTTP 200)")
	assert.ErrorIs(t, err, probe.ErrUnexpectedStatus)
}

func TestHTTPStrategyNoPortsIsReadyWithoutAttempts(t *testing.T) {
	obs := &recordingObserver{}
	err := wait.ForHTTP(wait.WithLogger(quietLogger()), wait.WithObserver(obs)).
		WaitUntilReady(context.Background(), fakeTarget{id: "svc", host: "localhost"})

	require.NoError(t, err)
	started, attempts, finished := obs.snapshot()
	assert.Equal(t, 1, started)
	assert.Empty(t, attempts)
	assert.Equal(t, []error{nil}, finished)
}

func TestHTTPStrategyExplicitPortIsMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tgt := targetFor(t, srv.URL)
	tgt.mapping = map[int]int{8080: tgt.ports[0]}
	tgt.ports = []int{1} // must be ignored when a port is configured

	err := wait.ForHTTP(
		wait.WithPort(8080),
		wait.ForStatusCode(http.StatusNoContent),
		wait.WithAttemptInterval(10*time.Millisecond),
		wait.WithStartupTimeout(2*time.Second),
		wait.WithLogger(quietLogger()),
	).WaitUntilReady(context.Background(), tgt)
	require.NoError(t, err)

	err = wait.ForHTTP(wait.WithPort(9090), wait.WithLogger(quietLogger())).
		WaitUntilReady(context.Background(), tgt)
	require.ErrorIs(t, err, wait.ErrInvalidConfig)
}

func TestHTTPStrategyLowestLivenessPortWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	tgt := targetFor(t, srv.URL)
	tgt.ports = []int{tgt.ports[0] + 1, tgt.ports[0]}

	uri, ok, err := wait.ForHTTP().Endpoint(context.Background(), tgt)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/", uri)
}

func TestHTTPStrategyEventuallyReady(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch hits.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			_, _ = io.WriteString(w, `{"status":"STARTING"}`)
		default:
			_, _ = io.WriteString(w, `{"status":"UP"}`)
		}
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	err := wait.ForHTTP(
		wait.ForResponsePredicate(probe.BodyContains(`"UP"`)),
		wait.WithAttemptInterval(20*time.Millisecond),
		wait.WithStartupTimeout(5*time.Second),
		wait.WithObserver(obs),
		wait.WithLogger(quietLogger()),
	).WaitUntilReady(context.Background(), targetFor(t, srv.URL))

	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
	_, attempts, _ := obs.snapshot()
	require.Len(t, attempts, 3)
	assert.ErrorIs(t, attempts[0], probe.ErrUnexpectedStatus)
	assert.ErrorIs(t, attempts[1], probe.ErrBodyMismatch)
	assert.NoError(t, attempts[2])
}

func TestHTTPStrategyStatusPredicateOrSet(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	strategy := wait.ForHTTP(
		wait.ForStatusCode(http.StatusNotFound),
		wait.ForStatusCodeMatching(probe.StatusRange(500, 599)),
		wait.WithLogger(quietLogger()),
	)
	assert.Equal(t, "[404] or matching predicate", strategy.Matcher().String())

	require.NoError(t, strategy.WaitUntilReady(context.Background(), targetFor(t, srv.URL)))
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPStrategyRequestShape(t *testing.T) {
	type seen struct {
		method, query, header, auth, body string
	}
	var (
		mu   sync.Mutex
		got  seen
		once sync.Once
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			got = seen{
				method: r.Method,
				query:  r.URL.RawQuery,
				header: r.Header.Get("X-Probe"),
				auth:   r.Header.Get("Authorization"),
				body:   string(body),
			}
		})
	}))
	defer srv.Close()

	err := wait.ForEndpoint("ready").
		WithMethod(http.MethodPost).
		WithQueryParam("b", "x y").
		WithQueryParam("a", "1").
		WithHeader("X-Probe", "first").
		WithHeader("X-Probe", "second").
		WithBasicCredentials("user", "pass").
		WithBody(`{"ping":true}`).
		With(wait.WithLogger(quietLogger())).
		WaitUntilReady(context.Background(), targetFor(t, srv.URL))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "a=1&b=x+y", got.query)
	assert.Equal(t, "second", got.header)
	assert.Equal(t, probe.BasicAuthHeader("user", "pass"), got.auth)
	assert.Equal(t, `{"ping":true}`, got.body)
}

func TestHTTPStrategyAuthorizationOverridesBasic(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	err := wait.ForHTTP(
		wait.WithBasicCredentials("user", "pass"),
		wait.WithAuthorization("Bearer token"),
		wait.WithLogger(quietLogger()),
	).WaitUntilReady(context.Background(), targetFor(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", auth.Load())
}

func TestHTTPStrategyWithReturnsCopy(t *testing.T) {
	tgt := fakeTarget{id: "svc", host: "h", ports: []int{8080}}
	base := wait.ForEndpoint("/health")
	derived := base.WithQueryParam("a", "1").UsingTLS()

	uri, _, err := base.Endpoint(context.Background(), tgt)
	require.NoError(t, err)
	assert.Equal(t, "http://h:8080/health", uri)

	uri, _, err = derived.Endpoint(context.Background(), tgt)
	require.NoError(t, err)
	assert.Equal(t, "https://h:8080/health?a=1", uri)
}

func TestHTTPStrategyRelaxedTLSAcceptsSelfSigned(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := wait.ForHTTP(
		wait.UsingRelaxedTLS(),
		wait.WithStartupTimeout(2*time.Second),
		wait.WithLogger(quietLogger()),
	).WaitUntilReady(context.Background(), targetFor(t, srv.URL))
	require.NoError(t, err)
}

func TestHTTPStrategyStrictTLSRejectsSelfSigned(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := wait.ForHTTP(
		wait.UsingTLS(),
		wait.WithStartupTimeout(300*time.Millisecond),
		wait.WithAttemptInterval(50*time.Millisecond),
		wait.WithLogger(quietLogger()),
	).WaitUntilReady(context.Background(), targetFor(t, srv.URL))

	require.ErrorIs(t, err, wait.ErrTimeout)
	var timeoutErr *wait.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Zero(t, timeoutErr.LastStatus)
	require.Error(t, timeoutErr.LastErr)
	assert.Contains(t, timeoutErr.LastErr.Error(), "certificate")
}

func TestHTTPStrategyCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(150*time.Millisecond, cancel)

	started := time.Now()
	err := wait.ForHTTP(
		wait.WithAttemptInterval(20*time.Millisecond),
		wait.WithStartupTimeout(10*time.Second),
		wait.WithLogger(quietLogger()),
	).WaitUntilReady(ctx, targetFor(t, srv.URL))

	require.ErrorIs(t, err, wait.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, wait.ErrTimeout))
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestHTTPStrategyHostResolutionFails(t *testing.T) {
	err := wait.ForHTTP(wait.WithLogger(quietLogger())).
		WaitUntilReady(context.Background(), fakeTarget{id: "svc", hostErr: errors.New("gone"), ports: []int{80}})
	require.ErrorIs(t, err, wait.ErrInvalidConfig)
	assert.True(t, strings.Contains(err.Error(), "gone"))

	err = wait.ForHTTP().WaitUntilReady(context.Background(), nil)
	require.ErrorIs(t, err, wait.ErrInvalidConfig)
}

func TestHTTPStrategyResolutionFailureReachesObserver(t *testing.T) {
	obs := &recordingObserver{}
	err := wait.ForHTTP(wait.WithLogger(quietLogger()), wait.WithObserver(obs)).
		WaitUntilReady(context.Background(), fakeTarget{id: "svc", hostErr: errors.New("inspect failed"), ports: []int{80}})
	require.ErrorIs(t, err, wait.ErrInvalidConfig)

	started, attempts, finished := obs.snapshot()
	assert.Equal(t, 1, started)
	assert.Empty(t, attempts)
	require.Len(t, finished, 1)
	assert.ErrorIs(t, finished[0], wait.ErrInvalidConfig)
}

func TestHTTPStrategyInvalidMethodFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	started := time.Now()
	err := wait.ForHTTP(
		wait.WithMethod("BAD METHOD"),
		wait.WithStartupTimeout(5*time.Second),
		wait.WithLogger(quietLogger()),
		wait.WithObserver(obs),
	).WaitUntilReady(context.Background(), targetFor(t, srv.URL))

	require.ErrorIs(t, err, wait.ErrInvalidConfig)
	assert.False(t, errors.Is(err, wait.ErrTimeout))
	assert.Less(t, time.Since(started), time.Second)
	assert.Zero(t, hits.Load())
	_, _, finished := obs.snapshot()
	assert.Len(t, finished, 1)
}

func TestHTTPStrategyCustomMethodToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PROPFIND" {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	err := wait.ForHTTP(wait.WithMethod("PROPFIND"), wait.WithLogger(quietLogger())).
		WaitUntilReady(context.Background(), targetFor(t, srv.URL))
	require.NoError(t, err)
}

func TestHTTPStrategyAttemptTimeoutBoundsHangingAttempts(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	started := time.Now()
	err := wait.ForHTTP(
		wait.WithStartupTimeout(time.Second),
		wait.WithAttemptInterval(10*time.Millisecond),
		wait.WithAttemptTimeout(100*time.Millisecond),
		wait.WithLogger(quietLogger()),
	).WaitUntilReady(context.Background(), targetFor(t, srv.URL))

	require.ErrorIs(t, err, wait.ErrTimeout)
	assert.Less(t, time.Since(started), 3*time.Second)

	var timeoutErr *wait.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.GreaterOrEqual(t, timeoutErr.Attempts, 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPStrategyRequestMutatorAndResponseValidator(t *testing.T) {
	var warm atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Signature") != "signed:"+r.Header.Get("Authorization") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if warm.Swap(true) {
			w.Header().Set("X-Cache", "warm")
		}
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	err := wait.ForHTTP(
		wait.WithAuthorization("Bearer t"),
		wait.WithRequestMutator(func(r *http.Request) error {
			r.Header.Set("X-Signature", "signed:"+r.Header.Get("Authorization"))
			return nil
		}),
		wait.WithResponseValidator(func(resp *http.Response) error {
			if resp.Header.Get("X-Cache") != "warm" {
				return errors.New("cache cold")
			}
			return nil
		}),
		wait.WithAttemptInterval(10*time.Millisecond),
		wait.WithLogger(quietLogger()),
		wait.WithObserver(obs),
	).WaitUntilReady(context.Background(), targetFor(t, srv.URL))

	require.NoError(t, err)
	_, attempts, _ := obs.snapshot()
	require.Len(t, attempts, 2)
	assert.ErrorContains(t, attempts[0], "cache cold")
	assert.NoError(t, attempts[1])
}

type countingDoer struct {
	calls atomic.Int32
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return http.DefaultClient.Do(req)
}

func TestHTTPStrategyUsesInjectedClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := &countingDoer{}
	err := wait.ForHTTP(
		wait.WithHTTPClient(client),
		wait.WithLogger(quietLogger()),
	).WaitUntilReady(context.Background(), targetFor(t, srv.URL))

	require.NoError(t, err)
	assert.Equal(t, int32(1), client.calls.Load())
}
