package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/drblury/readywait/config"
	"github.com/drblury/readywait/target"
	"github.com/drblury/readywait/wait"
)

type httpOptions struct {
	statusCodes    []int
	method         string
	headers        []string
	query          []string
	data           string
	user           string
	authorization  string
	insecure       bool
	bodyContains   string
	bodyMatches    string
	bodyJQ         string
	statusExpr     string
	timeout        time.Duration
	interval       time.Duration
	attemptTimeout time.Duration
	json           bool
}

func newHTTPCommand(a *app) *cobra.Command {
	opts := httpOptions{}
	cmd := &cobra.Command{
		Use:   "http URL",
		Short: "Wait until an HTTP endpoint answers as expected",
		Example: `  readywait http http://localhost:8080/healthz
  readywait http https://api.local/ready --insecure --status 200,204 --timeout 2m
  readywait http http://localhost:9200/_cluster/health --body-jq '.status == "green"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.http(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.IntSliceVar(&opts.statusCodes, "status", nil, "Accepted status codes (default 200)")
	f.StringVarP(&opts.method, "method", "X", "", "Request method")
	f.StringArrayVarP(&opts.headers, "header", "H", nil, "Request header as 'Name: value'")
	f.StringArrayVar(&opts.query, "query", nil, "Query parameter as name=value")
	f.StringVarP(&opts.data, "data", "d", "", "Request body")
	f.StringVarP(&opts.user, "user", "u", "", "Basic credentials as user:password")
	f.StringVar(&opts.authorization, "authorization", "", "Verbatim Authorization header, overrides --user")
	f.BoolVarP(&opts.insecure, "insecure", "k", false, "Use TLS without verifying the certificate")
	f.StringVar(&opts.bodyContains, "body-contains", "", "Require the body to contain this text")
	f.StringVar(&opts.bodyMatches, "body-matches", "", "Require the body to match this regular expression")
	f.StringVar(&opts.bodyJQ, "body-jq", "", "Require this jq query over the JSON body to yield true")
	f.StringVar(&opts.statusExpr, "status-expr", "", "Accept statuses for which this expression is true, e.g. 'status < 500'")
	f.DurationVar(&opts.timeout, "timeout", config.DefaultTimeout, "Startup timeout")
	f.DurationVar(&opts.interval, "interval", config.DefaultInterval, "Minimum spacing between attempts")
	f.DurationVar(&opts.attemptTimeout, "attempt-timeout", 0, "Bound each attempt; 0 bounds attempts only by --timeout")
	f.BoolVar(&opts.json, "json", false, "Print the result as JSON")
	return cmd
}

// toConfig maps the flags onto the configuration schema so both entry points
// share predicate compilation.
func (o httpOptions) toConfig() (*config.HTTP, error) {
	h := &config.HTTP{
		Method:        o.method,
		RelaxedTLS:    o.insecure,
		Authorization: o.authorization,
		StatusCodes:   o.statusCodes,
		StatusExpr:    o.statusExpr,
		BodyContains:  o.bodyContains,
		BodyMatches:   o.bodyMatches,
		BodyJQ:        o.bodyJQ,
	}
	if o.data != "" {
		data := o.data
		h.Body = &data
	}
	if o.user != "" {
		user, pass, _ := strings.Cut(o.user, ":")
		h.BasicAuth = &config.BasicAuth{Username: user, Password: pass}
	}
	for _, raw := range o.headers {
		name, value, ok := strings.Cut(raw, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: header %q is not 'Name: value'", errUsage, raw)
		}
		if h.Headers == nil {
			h.Headers = map[string]string{}
		}
		h.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	for _, raw := range o.query {
		name, value, ok := strings.Cut(raw, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: query %q is not name=value", errUsage, raw)
		}
		if h.Query == nil {
			h.Query = map[string]string{}
		}
		h.Query[name] = value
	}
	return h, nil
}

func (a *app) http(cmd *cobra.Command, rawURL string, opts httpOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	h, err := opts.toConfig()
	if err != nil {
		return err
	}
	waitOpts, err := config.HTTPOptions(h)
	if err != nil {
		return err
	}
	ep, err := target.FromURL(rawURL)
	if err != nil {
		return err
	}
	if opts.insecure && !ep.TLS {
		return fmt.Errorf("%w: --insecure requires an https URL", errUsage)
	}

	// Flags come after the URL's own path and query so an explicit --query
	// replaces a parameter of the same name in the URL.
	strategyOpts := append(ep.Options(), waitOpts...)
	strategyOpts = append(strategyOpts,
		wait.WithStartupTimeout(opts.timeout),
		wait.WithAttemptInterval(opts.interval),
		wait.WithAttemptTimeout(opts.attemptTimeout),
		wait.WithLogger(a.log()),
	)
	strategy := wait.ForHTTP(strategyOpts...)

	started := time.Now()
	err = strategy.WaitUntilReady(ctx, ep.Static)
	r := newResult(ep.Name, config.KindHTTP, err, time.Since(started))
	if werr := writeResults(cmd.OutOrStdout(), []Result{r}, opts.json); werr != nil {
		return werr
	}
	return err
}
