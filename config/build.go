package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/drblury/readywait/probe"
	"github.com/drblury/readywait/target"
	"github.com/drblury/readywait/wait"
)

// Entry is one target ready to be awaited.
type Entry struct {
	Name     string
	Kind     string
	Strategy wait.Strategy
	Target   wait.Target
	close    func() error
}

// Plan is the runnable form of a File.
type Plan struct {
	Parallel bool
	Entries  []Entry
}

// Names lists the entry names in file order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		names[i] = e.Name
	}
	return names
}

// Close releases database clients and Docker connections held by the plan.
func (p *Plan) Close() error {
	var errs []error
	for _, e := range p.Entries {
		if e.close != nil {
			if err := e.close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", e.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// DockerFactory creates the target of a docker entry.
type DockerFactory func(container, host string) (*target.Docker, error)

// BuildOption configures Build.
type BuildOption func(*builder)

type builder struct {
	logger   *slog.Logger
	observer wait.Observer
	docker   DockerFactory
}

// WithLogger sets the logger handed to every strategy.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(b *builder) { b.logger = logger }
}

// WithObserver sets the observer handed to every strategy.
func WithObserver(observer wait.Observer) BuildOption {
	return func(b *builder) { b.observer = observer }
}

// WithDockerFactory replaces how docker targets are created.
func WithDockerFactory(factory DockerFactory) BuildOption {
	return func(b *builder) {
		if factory != nil {
			b.docker = factory
		}
	}
}

func defaultDockerFactory(container, host string) (*target.Docker, error) {
	return target.NewDocker(container, target.WithDockerHost(host))
}

// Entry kinds.
const (
	KindHTTP     = "http"
	KindDelay    = "delay"
	KindMongo    = "mongo"
	KindPostgres = "postgres"
)

// Build turns f into a plan. Database clients are created without
// connecting; on error everything created so far is released.
func Build(ctx context.Context, f *File, opts ...BuildOption) (_ *Plan, err error) {
	b := &builder{logger: slog.Default(), docker: defaultDockerFactory}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	plan := &Plan{Parallel: f.ParallelOrDefault()}
	defer func() {
		if err != nil {
			_ = plan.Close()
		}
	}()

	for _, t := range f.Targets {
		common := []wait.Option{
			wait.WithStartupTimeout(f.TimeoutFor(t)),
			wait.WithAttemptInterval(f.IntervalFor(t)),
			wait.WithAttemptTimeout(f.AttemptTimeoutFor(t)),
			wait.WithLogger(b.logger),
		}
		if b.observer != nil {
			common = append(common, wait.WithObserver(b.observer))
		}

		entry, err := b.entry(ctx, t, common)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", t.Name, err)
		}
		plan.Entries = append(plan.Entries, entry)
	}
	return plan, nil
}

func (b *builder) entry(ctx context.Context, t Target, common []wait.Option) (Entry, error) {
	ident := target.Static{Name: t.Name}
	switch {
	case t.HTTP != nil:
		return b.httpEntry(t, common)
	case t.Delay != nil:
		return Entry{
			Name:     t.Name,
			Kind:     KindDelay,
			Strategy: wait.ForDuration(*t.Delay, common...),
			Target:   ident,
		}, nil
	case t.Mongo != nil:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(t.Mongo.URI))
		if err != nil {
			return Entry{}, fmt.Errorf("mongo client: %w", err)
		}
		return Entry{
			Name:     t.Name,
			Kind:     KindMongo,
			Strategy: wait.ForPing(t.Name, probe.NewMongoPingProbe(client, readpref.Primary()), common...),
			Target:   ident,
			close:    func() error { return client.Disconnect(context.Background()) },
		}, nil
	case t.Postgres != nil:
		db, err := sql.Open("postgres", t.Postgres.DSN)
		if err != nil {
			return Entry{}, fmt.Errorf("postgres client: %w", err)
		}
		return Entry{
			Name:     t.Name,
			Kind:     KindPostgres,
			Strategy: wait.ForPing(t.Name, probe.NewDBPingProbe(t.Name, db), common...),
			Target:   ident,
			close:    db.Close,
		}, nil
	}
	return Entry{}, fmt.Errorf("%w: no probe configured", ErrInvalid)
}

func (b *builder) httpEntry(t Target, common []wait.Option) (Entry, error) {
	h := t.HTTP
	opts, err := HTTPOptions(h)
	if err != nil {
		return Entry{}, err
	}
	opts = append(common, opts...)

	entry := Entry{Name: t.Name, Kind: KindHTTP}
	switch {
	case t.Docker != nil:
		d, err := b.docker(t.Docker.Container, t.Docker.Host)
		if err != nil {
			return Entry{}, err
		}
		entry.Target = named{Target: d, name: t.Name}
		entry.close = d.Close
		opts = append(opts, wait.WithPath(h.Path))
		if h.Port > 0 {
			opts = append(opts, wait.WithPort(h.Port))
		}
	case h.URL != "":
		ep, err := target.FromURL(h.URL)
		if err != nil {
			return Entry{}, err
		}
		ep.Name = t.Name
		entry.Target = ep.Static
		// http.query entries replace URL parameters of the same name.
		opts = append(ep.Options(), opts...)
	default:
		port := h.Port
		if port == 0 {
			port = 80
			if h.TLS || h.RelaxedTLS {
				port = 443
			}
		}
		entry.Target = target.Static{Name: t.Name, Address: h.Host, Ports: []int{port}}
		opts = append(opts, wait.WithPath(h.Path))
	}

	entry.Strategy = wait.ForHTTP(opts...)
	return entry, nil
}

// HTTPOptions translates the request and success criteria of h into strategy
// options. Address related fields are left to the caller.
func HTTPOptions(h *HTTP) ([]wait.Option, error) {
	var opts []wait.Option
	if h.RelaxedTLS {
		opts = append(opts, wait.UsingRelaxedTLS())
	} else if h.TLS {
		opts = append(opts, wait.UsingTLS())
	}
	if h.Method != "" {
		opts = append(opts, wait.WithMethod(h.Method))
	}
	for k, v := range h.Headers {
		opts = append(opts, wait.WithHeader(k, v))
	}
	for k, v := range h.Query {
		opts = append(opts, wait.WithQueryParam(k, v))
	}
	if h.Body != nil {
		opts = append(opts, wait.WithBody(*h.Body))
	}
	if h.BasicAuth != nil {
		opts = append(opts, wait.WithBasicCredentials(h.BasicAuth.Username, h.BasicAuth.Password))
	}
	if h.Authorization != "" {
		opts = append(opts, wait.WithAuthorization(h.Authorization))
	}
	if len(h.StatusCodes) > 0 {
		opts = append(opts, wait.ForStatusCode(h.StatusCodes...))
	}
	if h.StatusExpr != "" {
		pred, err := probe.StatusExpr(h.StatusExpr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		opts = append(opts, wait.ForStatusCodeMatching(pred))
	}

	var body []probe.BodyPredicate
	if h.BodyContains != "" {
		body = append(body, probe.BodyContains(h.BodyContains))
	}
	if h.BodyMatches != "" {
		pred, err := probe.BodyMatches(h.BodyMatches)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		body = append(body, pred)
	}
	if h.BodyJQ != "" {
		pred, err := probe.BodyJQ(h.BodyJQ)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		body = append(body, pred)
	}
	if pred := probe.AllBody(body...); pred != nil {
		opts = append(opts, wait.ForResponsePredicate(pred))
	}
	return opts, nil
}

// named reports a configured name instead of the wrapped target's ID.
type named struct {
	wait.Target
	name string
}

func (n named) ID() string { return n.name }
