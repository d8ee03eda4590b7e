package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/readywait/target"
	"github.com/drblury/readywait/wait"
)

type stubInspector struct {
	resp container.InspectResponse
}

func (s stubInspector) ContainerInspect(context.Context, string) (container.InspectResponse, error) {
	return s.resp, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildHTTPFromURLWaitsForServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" || r.URL.Query().Get("deep") != "1" || r.Header.Get("X-Probe") != "1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"status":"UP"}`)
	}))
	defer srv.Close()

	doc := fmt.Sprintf(`
interval: 10ms
targets:
  - name: api
    timeout: 5s
    http:
      url: %s/health?deep=1
      headers: {X-Probe: "1"}
      statusExpr: status < 300
      bodyJQ: .status == "UP"
`, srv.URL)
	f, err := Parse([]byte(doc))
	require.NoError(t, err)

	plan, err := Build(context.Background(), f, WithLogger(quietLogger()))
	require.NoError(t, err)
	defer func() { require.NoError(t, plan.Close()) }()

	require.Len(t, plan.Entries, 1)
	entry := plan.Entries[0]
	assert.Equal(t, KindHTTP, entry.Kind)
	assert.Equal(t, "api", entry.Target.ID())
	require.NoError(t, entry.Strategy.WaitUntilReady(context.Background(), entry.Target))
}

func TestBuildHostPortDefaults(t *testing.T) {
	f, err := Parse([]byte(`
targets:
  - name: plain
    http: {host: example.test, path: health}
  - name: secure
    http: {host: example.test, tls: true, port: 8443, query: {a: "1"}}
`))
	require.NoError(t, err)

	plan, err := Build(context.Background(), f, WithLogger(quietLogger()))
	require.NoError(t, err)

	want := []string{"http://example.test/health", "https://example.test:8443/?a=1"}
	for i, e := range plan.Entries {
		s, ok := e.Strategy.(*wait.HTTPStrategy)
		require.True(t, ok)
		uri, found, err := s.Endpoint(context.Background(), e.Target)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, want[i], uri)
	}
}

func TestBuildDockerTarget(t *testing.T) {
	inspector := stubInspector{resp: container.InspectResponse{
		ContainerJSONBase: &container.ContainerJSONBase{State: &container.State{Running: true}},
		NetworkSettings: &container.NetworkSettings{NetworkSettingsBase: container.NetworkSettingsBase{
			Ports: nat.PortMap{"8080/tcp": {{HostIP: "0.0.0.0", HostPort: "49153"}}},
		}},
	}}
	var gotContainer, gotHost string
	factory := func(name, host string) (*target.Docker, error) {
		gotContainer, gotHost = name, host
		return target.NewDocker(name, target.WithContainerInspector(inspector, ""), target.WithDockerHost(host))
	}

	f, err := Parse([]byte(`
targets:
  - name: api-in-docker
    docker: {container: my-api, host: docker.test}
    http: {port: 8080, path: /health}
`))
	require.NoError(t, err)

	plan, err := Build(context.Background(), f, WithDockerFactory(factory), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, "my-api", gotContainer)
	assert.Equal(t, "docker.test", gotHost)

	entry := plan.Entries[0]
	assert.Equal(t, "api-in-docker", entry.Target.ID())
	uri, _, err := entry.Strategy.(*wait.HTTPStrategy).Endpoint(context.Background(), entry.Target)
	require.NoError(t, err)
	assert.Equal(t, "http://docker.test:49153/health", uri)
	require.NoError(t, plan.Close())
}

func TestBuildDatabaseAndDelayEntries(t *testing.T) {
	f, err := Parse([]byte(`
targets:
  - name: warmup
    delay: 1ms
  - name: mongo
    mongo: {uri: "mongodb://127.0.0.1:1"}
  - name: pg
    postgres: {dsn: "postgres://u:p@127.0.0.1:1/db?sslmode=disable"}
`))
	require.NoError(t, err)

	plan, err := Build(context.Background(), f, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, []string{"warmup", "mongo", "pg"}, plan.Names())
	assert.True(t, plan.Parallel)
	kinds := []string{KindDelay, KindMongo, KindPostgres}
	for i, e := range plan.Entries {
		assert.Equal(t, kinds[i], e.Kind)
		assert.Equal(t, e.Name, e.Target.ID())
	}
	assert.IsType(t, &wait.FixedDelayStrategy{}, plan.Entries[0].Strategy)
	assert.IsType(t, &wait.PingStrategy{}, plan.Entries[1].Strategy)
	assert.IsType(t, &wait.PingStrategy{}, plan.Entries[2].Strategy)

	require.NoError(t, plan.Entries[0].Strategy.WaitUntilReady(context.Background(), plan.Entries[0].Target))
	require.NoError(t, plan.Close())
}

func TestBuildRejectsBadPredicates(t *testing.T) {
	for _, field := range []string{"statusExpr: 'status +'", "bodyMatches: '('", "bodyJQ: '.['"} {
		f, err := Parse([]byte("targets:\n  - name: a\n    http:\n      host: h\n      " + field + "\n"))
		require.NoError(t, err, field)

		_, err = Build(context.Background(), f, WithLogger(quietLogger()))
		assert.ErrorIs(t, err, ErrInvalid, field)
	}
}

func TestHTTPOptionsRelaxedTLSWins(t *testing.T) {
	opts, err := HTTPOptions(&HTTP{TLS: true, RelaxedTLS: true})
	require.NoError(t, err)

	s := wait.ForHTTP(opts...)
	uri, _, err := s.Endpoint(context.Background(), target.Static{Address: "h", Ports: []int{443}})
	require.NoError(t, err)
	u, err := url.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
}

func TestBuildQueryEntriesReplaceURLParameters(t *testing.T) {
	f, err := Parse([]byte(`
targets:
  - name: api
    http: {url: 'http://example.test/health?deep=0&x=1', query: {deep: "1"}}
`))
	require.NoError(t, err)

	plan, err := Build(context.Background(), f, WithLogger(quietLogger()))
	require.NoError(t, err)

	s, ok := plan.Entries[0].Strategy.(*wait.HTTPStrategy)
	require.True(t, ok)
	uri, _, err := s.Endpoint(context.Background(), plan.Entries[0].Target)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/health?deep=1&x=1", uri)
}

func TestBuildAppliesAttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	f, err := Parse([]byte(fmt.Sprintf(`
interval: 10ms
attemptTimeout: 50ms
targets:
  - name: slow
    timeout: 600ms
    http: {url: %s}
`, srv.URL)))
	require.NoError(t, err)

	plan, err := Build(context.Background(), f, WithLogger(quietLogger()))
	require.NoError(t, err)

	entry := plan.Entries[0]
	err = entry.Strategy.WaitUntilReady(context.Background(), entry.Target)
	var timeoutErr *wait.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.GreaterOrEqual(t, timeoutErr.Attempts, 3)
}
