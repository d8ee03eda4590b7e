package router

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"
)

// Middleware wraps an http.Handler to produce a new http.Handler.
type Middleware func(http.Handler) http.Handler

// Option configures New.
type Option func(*options)

type route struct {
	pattern string
	handler http.Handler
}

type options struct {
	config  Config
	logger  *slog.Logger
	swagger *openapi3.T
	outer   []Middleware
	extra   []route
}

// chain lists the middlewares from outermost to innermost. Validation sits
// closest to the handler so rejected requests are still logged and bounded.
func (o *options) chain() []Middleware {
	chain := slices.Clone(o.outer)
	if o.config.AccessLog && o.logger != nil {
		chain = append(chain, loggingMiddleware(o.logger, o.config.QuietdownRoutes, o.config.HideHeaders))
	}
	if o.config.Timeout > 0 {
		chain = append(chain, timeoutMiddleware(o.config.Timeout))
	}
	if o.swagger != nil {
		chain = append(chain, oapiMiddleware(o.swagger))
	}
	return chain
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	cfg.QuietdownRoutes = slices.Clone(cfg.QuietdownRoutes)
	cfg.HideHeaders = slices.Clone(cfg.HideHeaders)
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger sets the access log destination. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSwagger enables request validation against swagger. Requests for paths
// the document does not describe are rejected with 404.
func WithSwagger(swagger *openapi3.T) Option {
	return func(o *options) {
		o.swagger = swagger
	}
}

// WithHandler mounts handler at pattern outside the middleware chain, so it
// is neither validated nor logged. Use it for endpoints such as /metrics that
// the OpenAPI document does not describe.
func WithHandler(pattern string, handler http.Handler) Option {
	return func(o *options) {
		if pattern != "" && handler != nil {
			o.extra = append(o.extra, route{pattern: pattern, handler: handler})
		}
	}
}

// WithMiddlewares runs middlewares ahead of the default chain, first one
// outermost.
func WithMiddlewares(middlewares ...Middleware) Option {
	return func(o *options) {
		for _, mw := range middlewares {
			if mw != nil {
				o.outer = append(o.outer, mw)
			}
		}
	}
}
