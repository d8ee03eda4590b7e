package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/drblury/readywait/internal/idgen"
	"github.com/drblury/readywait/probe"
)

// HTTPStrategy polls an HTTP endpoint until a response satisfies the status
// matcher and, if configured, the body predicate.
//
// An HTTPStrategy is immutable: With and the chained setters return a copy.
type HTTPStrategy struct {
	opts   options
	client probe.HTTPDoer
}

// ForHTTP returns an HTTP strategy configured by opts.
func ForHTTP(opts ...Option) *HTTPStrategy {
	return newHTTPStrategy(newOptions(opts))
}

// ForEndpoint is shorthand for ForHTTP(WithPath(path), opts...).
func ForEndpoint(path string, opts ...Option) *HTTPStrategy {
	return ForHTTP(append([]Option{WithPath(path)}, opts...)...)
}

func newHTTPStrategy(o options) *HTTPStrategy {
	client := o.client
	if client == nil {
		client = newHTTPClient(o.relaxedTLS)
	}
	return &HTTPStrategy{opts: o, client: client}
}

// With returns a copy of s with opts applied.
func (s *HTTPStrategy) With(opts ...Option) *HTTPStrategy {
	return newHTTPStrategy(s.opts.with(opts))
}

func (s *HTTPStrategy) WithPath(path string) *HTTPStrategy { return s.With(WithPath(path)) }
func (s *HTTPStrategy) WithPort(port int) *HTTPStrategy    { return s.With(WithPort(port)) }
func (s *HTTPStrategy) UsingTLS() *HTTPStrategy            { return s.With(UsingTLS()) }
func (s *HTTPStrategy) UsingRelaxedTLS() *HTTPStrategy     { return s.With(UsingRelaxedTLS()) }
func (s *HTTPStrategy) WithMethod(method string) *HTTPStrategy {
	return s.With(WithMethod(method))
}

func (s *HTTPStrategy) WithQueryParam(name, value string) *HTTPStrategy {
	return s.With(WithQueryParam(name, value))
}

func (s *HTTPStrategy) WithHeader(name, value string) *HTTPStrategy {
	return s.With(WithHeader(name, value))
}

func (s *HTTPStrategy) WithBody(body string) *HTTPStrategy { return s.With(WithBody(body)) }

func (s *HTTPStrategy) WithBasicCredentials(username, password string) *HTTPStrategy {
	return s.With(WithBasicCredentials(username, password))
}

func (s *HTTPStrategy) WithAuthorization(value string) *HTTPStrategy {
	return s.With(WithAuthorization(value))
}

func (s *HTTPStrategy) ForStatusCode(codes ...int) *HTTPStrategy {
	return s.With(ForStatusCode(codes...))
}

func (s *HTTPStrategy) ForStatusCodeMatching(predicate probe.StatusPredicate) *HTTPStrategy {
	return s.With(ForStatusCodeMatching(predicate))
}

func (s *HTTPStrategy) ForResponsePredicate(predicate probe.BodyPredicate) *HTTPStrategy {
	return s.With(ForResponsePredicate(predicate))
}

func (s *HTTPStrategy) WithStartupTimeout(timeout time.Duration) *HTTPStrategy {
	return s.With(WithStartupTimeout(timeout))
}

// StartupTimeout reports the configured bound on the whole wait.
func (s *HTTPStrategy) StartupTimeout() time.Duration {
	return s.opts.startupTimeout
}

// Matcher reports the status matcher attempts are evaluated against.
func (s *HTTPStrategy) Matcher() probe.StatusMatcher {
	return probe.NewStatusMatcher(s.opts.statusCodes, s.opts.statusPredicate)
}

// Endpoint resolves the URI the strategy would probe for target, query
// included. ok is false when target exposes no port to probe.
func (s *HTTPStrategy) Endpoint(ctx context.Context, target Target) (uri string, ok bool, err error) {
	u, ok, err := s.endpoint(ctx, target)
	if err != nil || !ok {
		return "", ok, err
	}
	return withQuery(u, s.opts.query).String(), true, nil
}

func (s *HTTPStrategy) endpoint(ctx context.Context, target Target) (_ *url.URL, ok bool, err error) {
	if target == nil {
		return nil, false, fmt.Errorf("%w: nil target", ErrInvalidConfig)
	}
	host, err := target.Host(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("%w: resolve host of %s: %w", ErrInvalidConfig, target.ID(), err)
	}

	port, ok, err := s.resolvePort(ctx, target)
	if err != nil || !ok {
		return nil, ok, err
	}

	u, err := endpointURI(s.opts.tls, host, port, s.opts.path)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *HTTPStrategy) resolvePort(ctx context.Context, target Target) (int, bool, error) {
	if s.opts.port > 0 {
		mapped, err := target.MappedPort(ctx, s.opts.port)
		if err != nil {
			return 0, false, fmt.Errorf("%w: map port %d of %s: %w", ErrInvalidConfig, s.opts.port, target.ID(), err)
		}
		return mapped, true, nil
	}

	ports, err := target.LivenessPorts(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("%w: list ports of %s: %w", ErrInvalidConfig, target.ID(), err)
	}
	if len(ports) == 0 {
		return 0, false, nil
	}
	return slices.Min(ports), true, nil
}

// WaitUntilReady implements Strategy. Configuration and target resolution
// errors are returned at once, wrapping ErrInvalidConfig.
func (s *HTTPStrategy) WaitUntilReady(ctx context.Context, target Target) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	id := "-"
	if target != nil {
		id = target.ID()
	}

	log := s.opts.log().With(
		slog.String("strategy", StrategyHTTP),
		slog.String("target", id),
		slog.String("run_id", idgen.New()),
	)

	observer := s.opts.obs()
	observer.WaitStarted(StrategyHTTP, id)
	defer func() {
		observer.WaitFinished(StrategyHTTP, id, err, time.Since(started))
	}()

	if !validMethod(s.opts.method) {
		err = fmt.Errorf("%w: invalid method %q", ErrInvalidConfig, s.opts.method)
		log.Error("cannot probe endpoint", "error", err)
		return err
	}

	base, ok, err := s.endpoint(ctx, target)
	if err != nil {
		log.Error("cannot resolve endpoint", "error", err)
		return err
	}
	if !ok {
		log.Warn("no port to probe, treating target as ready")
		return nil
	}

	uri := withQuery(base, s.opts.query).String()
	log = log.With(slog.String("uri", uri))

	matcher := s.Matcher()
	auth := probe.ResolveAuth(s.opts.rawAuth, s.opts.username, s.opts.password)
	attempt := probe.NewHTTPProbe(id, s.opts.method, uri, s.client, s.probeOptions(matcher, auth)...)

	log.Debug("waiting for endpoint",
		"expected", matcher.String(),
		"timeout", s.opts.startupTimeout,
		"authenticated", !auth.IsZero(),
	)
	res, err := s.opts.poll(ctx, log, StrategyHTTP, id, attempt)
	switch {
	case err == nil:
		log.Info("endpoint ready", "attempts", res.attempts, "elapsed", res.elapsed)
		return nil
	case !errors.Is(err, errPollTimeout):
		log.Warn("wait canceled", "attempts", res.attempts, "error", err)
		return err
	}

	status, body := res.lastResponse()
	timeoutErr := &TimeoutError{
		Strategy:   StrategyHTTP,
		Target:     id,
		URI:        base.String(),
		Expected:   matcher.String(),
		Elapsed:    res.elapsed,
		Attempts:   res.attempts,
		LastStatus: status,
		LastBody:   body,
		LastErr:    res.lastErr,
	}
	log.Error("endpoint not ready", "attempts", res.attempts, "status", status, "error", timeoutErr)
	return timeoutErr
}

func (s *HTTPStrategy) probeOptions(matcher probe.StatusMatcher, auth probe.Auth) []probe.HTTPProbeOption {
	o := s.opts
	opts := []probe.HTTPProbeOption{
		probe.WithHTTPStatusMatcher(matcher),
		probe.WithHTTPHeaders(o.headers),
		probe.WithHTTPAuth(auth),
	}
	for _, mutate := range o.requestMutators {
		opts = append(opts, probe.WithHTTPRequestMutator(mutate))
	}
	for _, validate := range o.responseValidators {
		opts = append(opts, probe.WithHTTPResponseValidator(validate))
	}
	if o.bodyPredicate != nil {
		opts = append(opts, probe.WithHTTPBodyPredicate(o.bodyPredicate))
	}
	if o.body != nil {
		opts = append(opts, probe.WithHTTPBody(*o.body))
	}
	return opts
}

var _ Strategy = (*HTTPStrategy)(nil)
