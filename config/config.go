// Package config loads readiness plans from YAML files.
//
// Environment variables referenced as $VAR or ${VAR} are expanded before the
// document is parsed, so credentials can stay out of the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultInterval = time.Second
)

// File is the root of a configuration document.
type File struct {
	// Timeout is the startup timeout of targets without their own.
	Timeout time.Duration `yaml:"timeout"`
	// Interval is the minimum spacing between attempts.
	Interval time.Duration `yaml:"interval"`
	// AttemptTimeout bounds each single attempt. Zero leaves attempts bounded
	// only by the startup timeout.
	AttemptTimeout time.Duration `yaml:"attemptTimeout"`
	// Parallel waits for all targets at once. Defaults to true.
	Parallel *bool    `yaml:"parallel"`
	Targets  []Target `yaml:"targets"`
}

// Target describes one dependency. Exactly one of HTTP, Delay, Mongo and
// Postgres is set; Docker only refines HTTP.
type Target struct {
	Name           string         `yaml:"name"`
	Timeout        time.Duration  `yaml:"timeout"`
	Interval       time.Duration  `yaml:"interval"`
	AttemptTimeout time.Duration  `yaml:"attemptTimeout"`
	HTTP           *HTTP          `yaml:"http"`
	Docker         *Docker        `yaml:"docker"`
	Delay          *time.Duration `yaml:"delay"`
	Mongo          *Mongo         `yaml:"mongo"`
	Postgres       *Postgres      `yaml:"postgres"`
}

// HTTP configures an HTTP probe. URL and Host/Port/Path are alternatives.
type HTTP struct {
	URL           string            `yaml:"url"`
	Host          string            `yaml:"host"`
	Port          int               `yaml:"port"`
	Path          string            `yaml:"path"`
	TLS           bool              `yaml:"tls"`
	RelaxedTLS    bool              `yaml:"relaxedTLS"`
	Method        string            `yaml:"method"`
	Headers       map[string]string `yaml:"headers"`
	Query         map[string]string `yaml:"query"`
	Body          *string           `yaml:"body"`
	BasicAuth     *BasicAuth        `yaml:"basicAuth"`
	Authorization string            `yaml:"authorization"`
	StatusCodes   []int             `yaml:"statusCodes"`
	StatusExpr    string            `yaml:"statusExpr"`
	BodyContains  string            `yaml:"bodyContains"`
	BodyMatches   string            `yaml:"bodyMatches"`
	BodyJQ        string            `yaml:"bodyJQ"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Docker resolves the HTTP target's address from a running container.
type Docker struct {
	Container string `yaml:"container"`
	// Host overrides the address published ports are reached at.
	Host string `yaml:"host"`
}

type Mongo struct {
	URI string `yaml:"uri"`
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

// ParallelOrDefault reports whether targets are awaited concurrently.
func (f *File) ParallelOrDefault() bool {
	return f.Parallel == nil || *f.Parallel
}

// TimeoutFor returns the startup timeout of t.
func (f *File) TimeoutFor(t Target) time.Duration {
	switch {
	case t.Timeout > 0:
		return t.Timeout
	case f.Timeout > 0:
		return f.Timeout
	default:
		return DefaultTimeout
	}
}

// IntervalFor returns the attempt interval of t.
func (f *File) IntervalFor(t Target) time.Duration {
	switch {
	case t.Interval > 0:
		return t.Interval
	case f.Interval > 0:
		return f.Interval
	default:
		return DefaultInterval
	}
}

// AttemptTimeoutFor returns the per-attempt timeout of t, zero for none.
func (f *File) AttemptTimeoutFor(t Target) time.Duration {
	if t.AttemptTimeout > 0 {
		return t.AttemptTimeout
	}
	return f.AttemptTimeout
}

// Load reads, expands and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and validates the
// result. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}
