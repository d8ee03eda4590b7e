package probe

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPRequestMutator allows callers to tweak the outbound request prior to dispatch.
type HTTPRequestMutator func(req *http.Request) error

// HTTPResponseValidator inspects the received response and can veto the probe.
type HTTPResponseValidator func(resp *http.Response) error

// HTTPProbeOption configures the behaviour of NewHTTPProbe.
type HTTPProbeOption func(*httpProbeConfig)

type httpProbeConfig struct {
	client             HTTPDoer
	codes              []int
	statusPredicate    StatusPredicate
	matcher            *StatusMatcher
	bodyPredicate      BodyPredicate
	headers            map[string]string
	auth               Auth
	body               *string
	requestMutators    []HTTPRequestMutator
	responseValidators []HTTPResponseValidator
}

func buildHTTPProbeConfig(client HTTPDoer, opts ...HTTPProbeOption) *httpProbeConfig {
	cfg := &httpProbeConfig{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.client == nil {
		cfg.client = http.DefaultClient
	}
	if cfg.matcher == nil {
		m := NewStatusMatcher(cfg.codes, cfg.statusPredicate)
		cfg.matcher = &m
	}
	return cfg
}

func (c *httpProbeConfig) bodyReader() io.Reader {
	if c.body == nil {
		return nil
	}
	return strings.NewReader(*c.body)
}

func (c *httpProbeConfig) applyMutators(req *http.Request) error {
	for name, value := range c.headers {
		if strings.EqualFold(name, "Host") {
			req.Host = value
			continue
		}
		req.Header.Set(name, value)
	}
	if value, ok := c.auth.Header(); ok {
		req.Header.Set(headerAuthorization, value)
	}
	for _, mutate := range c.requestMutators {
		if mutate == nil {
			continue
		}
		if err := mutate(req); err != nil {
			return err
		}
	}
	return nil
}

// validateResponse checks the status and, when needed, the body. The body text
// read along the way is returned for diagnostics.
func (c *httpProbeConfig) validateResponse(resp *http.Response) (string, error) {
	if !c.matcher.Match(resp.StatusCode) {
		body, _ := readBody(resp.Body)
		return body, ErrUnexpectedStatus
	}

	var body string
	if c.bodyPredicate != nil {
		var err error
		body, err = readBody(resp.Body)
		if err != nil {
			return body, fmt.Errorf("failed to read response body: %w", err)
		}
		if !c.bodyPredicate(body) {
			return body, ErrBodyMismatch
		}
	}

	for _, validator := range c.responseValidators {
		if validator == nil {
			continue
		}
		if err := validator(resp); err != nil {
			return body, err
		}
	}
	return body, nil
}

// WithHTTPStatusMatcher installs an already resolved status matcher. It takes
// precedence over WithHTTPAllowedStatuses and WithHTTPStatusPredicate.
func WithHTTPStatusMatcher(matcher StatusMatcher) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		cfg.matcher = &matcher
	}
}

// WithHTTPAllowedStatuses adds status codes that make the probe succeed.
func WithHTTPAllowedStatuses(statuses ...int) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		cfg.codes = append(cfg.codes, statuses...)
	}
}

// WithHTTPStatusPredicate installs a status predicate. Combined with allowed
// statuses, a status passes when either accepts it.
func WithHTTPStatusPredicate(predicate StatusPredicate) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		cfg.statusPredicate = predicate
	}
}

// WithHTTPBodyPredicate requires the full response body to pass predicate in
// addition to the status check.
func WithHTTPBodyPredicate(predicate BodyPredicate) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		cfg.bodyPredicate = predicate
	}
}

// WithHTTPHeaders sets request headers verbatim. Later values replace earlier
// ones with the same name. A Host entry overrides the request host.
func WithHTTPHeaders(headers map[string]string) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		if len(headers) == 0 {
			return
		}
		if cfg.headers == nil {
			cfg.headers = make(map[string]string, len(headers))
		}
		for name, value := range headers {
			cfg.headers[name] = value
		}
	}
}

// WithHTTPAuth sets the Authorization header strategy.
func WithHTTPAuth(auth Auth) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		cfg.auth = auth
	}
}

// WithHTTPBody sends body with every attempt.
func WithHTTPBody(body string) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		cfg.body = &body
	}
}

// WithHTTPRequestMutator registers a mutator that runs after headers and auth
// were applied, right before the request is dispatched.
func WithHTTPRequestMutator(mutator HTTPRequestMutator) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		cfg.requestMutators = append(cfg.requestMutators, mutator)
	}
}

// WithHTTPResponseValidator registers a validator that runs after the status
// and body checks passed.
func WithHTTPResponseValidator(validator HTTPResponseValidator) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		cfg.responseValidators = append(cfg.responseValidators, validator)
	}
}
