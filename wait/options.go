package wait

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/drblury/readywait/probe"
)

const (
	defaultStartupTimeout  = 60 * time.Second
	defaultAttemptInterval = time.Second
	defaultPath            = "/"
)

// Option configures a strategy. Options that do not apply to a strategy are
// ignored by it.
type Option func(*options)

type options struct {
	// shared by polling strategies
	startupTimeout  time.Duration
	attemptInterval time.Duration
	attemptTimeout  time.Duration
	newLimiter      func() Limiter
	retrier         Retrier
	logger          *slog.Logger
	observer        Observer

	// HTTP request
	path       string
	port       int
	tls        bool
	relaxedTLS bool
	method     string
	query      map[string]string
	headers    map[string]string
	body       *string
	rawAuth    string
	username   string
	password   string
	client     probe.HTTPDoer

	requestMutators    []probe.HTTPRequestMutator
	responseValidators []probe.HTTPResponseValidator

	// HTTP success criteria
	statusCodes     []int
	statusPredicate probe.StatusPredicate
	bodyPredicate   probe.BodyPredicate
}

func newOptions(opts []Option) options {
	o := options{
		startupTimeout:  defaultStartupTimeout,
		attemptInterval: defaultAttemptInterval,
		retrier:         FailsafeRetrier{},
		path:            defaultPath,
	}
	o = o.with(opts)
	return o
}

// with returns a copy of o with opts applied; o itself is never mutated.
func (o options) with(opts []Option) options {
	o.query = maps.Clone(o.query)
	o.headers = maps.Clone(o.headers)
	o.statusCodes = slices.Clone(o.statusCodes)
	o.requestMutators = slices.Clone(o.requestMutators)
	o.responseValidators = slices.Clone(o.responseValidators)
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o *options) log() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

func (o *options) obs() Observer {
	if o.observer == nil {
		return nopObserver{}
	}
	return o.observer
}

func (o *options) limiter() Limiter {
	if o.newLimiter != nil {
		return o.newLimiter()
	}
	return newIntervalLimiter(o.attemptInterval)
}

// WithStartupTimeout bounds the whole wait. Non-positive values are ignored.
func WithStartupTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.startupTimeout = timeout
		}
	}
}

// WithAttemptInterval sets the minimum spacing between attempts. Zero removes
// the spacing; negative values are ignored.
func WithAttemptInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval >= 0 {
			o.attemptInterval = interval
		}
	}
}

// WithAttemptTimeout bounds each attempt. By default attempts are bounded only
// by the startup timeout.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout >= 0 {
			o.attemptTimeout = timeout
		}
	}
}

// WithLimiter supplies the rate limiter factory used for each wait, replacing
// the interval based default.
func WithLimiter(newLimiter func() Limiter) Option {
	return func(o *options) {
		o.newLimiter = newLimiter
	}
}

// WithRetrier replaces the retry primitive.
func WithRetrier(retrier Retrier) Option {
	return func(o *options) {
		if retrier != nil {
			o.retrier = retrier
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver registers an observer for waits and attempts.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithPath sets the request path. Defaults to "/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithPort probes the given service port, translated through
// Target.MappedPort. Without it the lowest liveness port is used.
func WithPort(port int) Option {
	return func(o *options) {
		if port > 0 {
			o.port = port
		}
	}
}

// UsingTLS probes over HTTPS with normal certificate verification.
func UsingTLS() Option {
	return func(o *options) {
		o.tls = true
	}
}

// UsingRelaxedTLS probes over HTTPS and accepts any certificate and host
// name. Only meant for test environments with self-signed certificates.
func UsingRelaxedTLS() Option {
	return func(o *options) {
		o.tls = true
		o.relaxedTLS = true
	}
}

// WithMethod sets the request method. Defaults to GET.
func WithMethod(method string) Option {
	return func(o *options) {
		o.method = method
	}
}

// WithQueryParam adds a query parameter. A repeated name replaces the value.
func WithQueryParam(name, value string) Option {
	return func(o *options) {
		if o.query == nil {
			o.query = make(map[string]string)
		}
		o.query[name] = value
	}
}

// WithHeader adds a request header. A repeated name replaces the value.
func WithHeader(name, value string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[name] = value
	}
}

// WithBody sends body with every attempt.
func WithBody(body string) Option {
	return func(o *options) {
		o.body = &body
	}
}

// WithBasicCredentials authenticates with HTTP Basic credentials.
func WithBasicCredentials(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithAuthorization sends value as the Authorization header. It takes
// precedence over WithBasicCredentials.
func WithAuthorization(value string) Option {
	return func(o *options) {
		o.rawAuth = value
	}
}

// WithHTTPClient replaces the per-strategy HTTP client. The TLS options then
// only select the scheme; certificate handling is up to the client.
func WithHTTPClient(client probe.HTTPDoer) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithRequestMutator runs mutate on every outgoing request after headers and
// auth were applied, e.g. to sign it. An error fails the attempt.
func WithRequestMutator(mutate probe.HTTPRequestMutator) Option {
	return func(o *options) {
		if mutate != nil {
			o.requestMutators = append(o.requestMutators, mutate)
		}
	}
}

// WithResponseValidator adds a check that runs once status and body passed,
// e.g. on a response header. A non-nil error fails the attempt.
func WithResponseValidator(validate probe.HTTPResponseValidator) Option {
	return func(o *options) {
		if validate != nil {
			o.responseValidators = append(o.responseValidators, validate)
		}
	}
}

// ForStatusCode adds accepted status codes.
func ForStatusCode(codes ...int) Option {
	return func(o *options) {
		o.statusCodes = append(o.statusCodes, codes...)
	}
}

// ForStatusCodeMatching accepts status codes passing predicate, in addition
// to any codes given to ForStatusCode.
func ForStatusCodeMatching(predicate probe.StatusPredicate) Option {
	return func(o *options) {
		if predicate != nil {
			o.statusPredicate = predicate
		}
	}
}

// ForResponsePredicate additionally requires the response body to pass predicate.
func ForResponsePredicate(predicate probe.BodyPredicate) Option {
	return func(o *options) {
		if predicate != nil {
			o.bodyPredicate = predicate
		}
	}
}
