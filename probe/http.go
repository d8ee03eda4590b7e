package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDoer represents the subset of *http.Client required by the HTTP probe.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpProbe struct {
	name   string
	method string
	target string
	cfg    *httpProbeConfig
}

// NewHTTPProbe creates a Func that performs one HTTP request against target.
// Without status options the probe succeeds only on 200 OK. Failures other
// than request construction are reported as *AttemptError.
func NewHTTPProbe(name, method, target string, client HTTPDoer, opts ...HTTPProbeOption) Func {
	p := &httpProbe{
		name:   name,
		method: strings.ToUpper(strings.TrimSpace(method)),
		target: strings.TrimSpace(target),
		cfg:    buildHTTPProbeConfig(client, opts...),
	}
	if p.method == "" {
		p.method = http.MethodGet
	}
	return p.attempt
}

// Matcher reports the status matcher NewHTTPProbe would resolve for opts.
func Matcher(opts ...HTTPProbeOption) StatusMatcher {
	return *buildHTTPProbeConfig(nil, opts...).matcher
}

func (p *httpProbe) attempt(ctx context.Context) error {
	req, err := p.request(contextOrBackground(ctx))
	if err != nil {
		return err
	}

	resp, err := p.cfg.client.Do(req)
	if err != nil {
		return &AttemptError{Err: fmt.Errorf("%s probe request failed: %w", p.name, err)}
	}
	defer resp.Body.Close()

	body, err := p.cfg.validateResponse(resp)
	if err != nil {
		return &AttemptError{Status: resp.StatusCode, Body: body, Err: err}
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return &AttemptError{
			Status: resp.StatusCode,
			Body:   body,
			Err:    fmt.Errorf("%s probe: failed to drain response body: %w", p.name, err),
		}
	}
	return nil
}

// request builds a fresh request so the body is sent again on every attempt.
func (p *httpProbe) request(ctx context.Context) (*http.Request, error) {
	if p.target == "" {
		return nil, fmt.Errorf("%s probe: target URL is required", p.name)
	}
	req, err := http.NewRequestWithContext(ctx, p.method, p.target, p.cfg.bodyReader())
	if err != nil {
		return nil, fmt.Errorf("%s probe: failed to build request: %w", p.name, err)
	}
	if err := p.cfg.applyMutators(req); err != nil {
		return nil, fmt.Errorf("%s probe: request mutation failed: %w", p.name, err)
	}
	return req, nil
}
