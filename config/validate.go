package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalid is matched by every validation error.
var ErrInvalid = errors.New("invalid config")

// Validate checks the shape of f. Predicates are compiled later by Build.
func (f *File) Validate() error {
	var errs []error
	if f.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative"))
	}
	if f.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval must not be negative"))
	}
	if f.AttemptTimeout < 0 {
		errs = append(errs, fmt.Errorf("attemptTimeout must not be negative"))
	}
	if len(f.Targets) == 0 {
		errs = append(errs, fmt.Errorf("at least one target is required"))
	}

	seen := make(map[string]bool, len(f.Targets))
	for i, t := range f.Targets {
		label := fmt.Sprintf("targets[%d]", i)
		if t.Name != "" {
			label = fmt.Sprintf("target %q", t.Name)
		}
		for _, err := range t.validate() {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
		if t.Name != "" {
			if seen[t.Name] {
				errs = append(errs, fmt.Errorf("%s: duplicate name", label))
			}
			seen[t.Name] = true
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func (t Target) validate() []error {
	var errs []error
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if t.Timeout < 0 || t.Interval < 0 || t.AttemptTimeout < 0 {
		errs = append(errs, errors.New("timeout, interval and attemptTimeout must not be negative"))
	}

	kinds := 0
	for _, set := range []bool{t.HTTP != nil, t.Delay != nil, t.Mongo != nil, t.Postgres != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		errs = append(errs, errors.New("exactly one of http, delay, mongo or postgres is required"))
	}

	if t.Docker != nil {
		if t.HTTP == nil {
			errs = append(errs, errors.New("docker requires http"))
		}
		if strings.TrimSpace(t.Docker.Container) == "" {
			errs = append(errs, errors.New("docker.container is required"))
		}
	}
	if t.HTTP != nil {
		errs = append(errs, t.HTTP.validate(t.Docker != nil)...)
	}
	if t.Delay != nil && *t.Delay < 0 {
		errs = append(errs, errors.New("delay must not be negative"))
	}
	if t.Mongo != nil && strings.TrimSpace(t.Mongo.URI) == "" {
		errs = append(errs, errors.New("mongo.uri is required"))
	}
	if t.Postgres != nil && strings.TrimSpace(t.Postgres.DSN) == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	return errs
}

func (h *HTTP) validate(docker bool) []error {
	var errs []error
	switch {
	case h.URL != "" && (h.Host != "" || h.Path != ""):
		errs = append(errs, errors.New("http.url excludes http.host and http.path"))
	case h.URL != "" && docker:
		errs = append(errs, errors.New("http.url cannot be combined with docker"))
	case h.URL == "" && h.Host == "" && !docker:
		errs = append(errs, errors.New("http.url or http.host is required"))
	}
	if h.URL != "" && (h.TLS || h.RelaxedTLS) {
		if u, err := url.Parse(strings.TrimSpace(h.URL)); err == nil && !strings.EqualFold(u.Scheme, "https") {
			errs = append(errs, errors.New("http.tls and http.relaxedTLS require an https url"))
		}
	}
	if h.Port < 0 || h.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", h.Port))
	}
	for _, code := range h.StatusCodes {
		if code < 100 || code > 599 {
			errs = append(errs, fmt.Errorf("http.statusCodes: %d is not an HTTP status", code))
		}
	}
	if h.BasicAuth != nil && h.BasicAuth.Username == "" {
		errs = append(errs, errors.New("http.basicAuth.username is required"))
	}
	return errs
}
