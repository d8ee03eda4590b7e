package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/drblury/readywait/config"
	"github.com/drblury/readywait/metrics"
	"github.com/drblury/readywait/router"
	"github.com/drblury/readywait/status"
	"github.com/drblury/readywait/wait"
)

type runOptions struct {
	file       string
	statusAddr string
	json       bool
}

func newRunCommand(a *app) *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run -f FILE",
		Short: "Wait for every target of a configuration file",
		Example: `  readywait run -f readywait.yaml
  readywait run -f readywait.yaml --status-addr :9090 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Path to the YAML configuration")
	cmd.Flags().StringVar(&opts.statusAddr, "status-addr", "", "Serve status and metrics on this address while waiting")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print results as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts runOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := a.log()

	file, err := config.Load(opts.file)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	board := status.NewBoard()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer := wait.Observers(board, metrics.New(reg))

	plan, err := config.Build(ctx, file, config.WithLogger(log), config.WithObserver(observer))
	if err != nil {
		return err
	}
	defer func() {
		if err := plan.Close(); err != nil {
			log.Warn("failed to release clients", "error", err)
		}
	}()
	for _, name := range plan.Names() {
		board.Register(name)
	}

	if opts.statusAddr != "" {
		stop, err := a.serveStatus(opts.statusAddr, board, reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	results := waitAll(ctx, plan)
	if err := writeResults(cmd.OutOrStdout(), results, opts.json); err != nil {
		return err
	}

	var errs []error
	for _, r := range results {
		if r.Error != "" {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Error))
		}
	}
	return summarize(results, errors.Join(errs...))
}

// waitAll awaits every entry, concurrently when the plan allows it, and
// reports results in plan order.
func waitAll(ctx context.Context, plan *config.Plan) []Result {
	results := make([]Result, len(plan.Entries))
	await := func(i int) {
		e := plan.Entries[i]
		started := time.Now()
		err := e.Strategy.WaitUntilReady(ctx, e.Target)
		results[i] = newResult(e.Name, e.Kind, err, time.Since(started))
		results[i].err = err
	}

	if !plan.Parallel {
		for i := range plan.Entries {
			await(i)
		}
		return results
	}

	var g errgroup.Group
	for i := range plan.Entries {
		g.Go(func() error {
			await(i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// summarize returns nil when every target is ready and otherwise an error
// carrying the most severe outcome.
func summarize(results []Result, joined error) error {
	if joined == nil {
		return nil
	}
	for _, r := range results {
		if errors.Is(r.err, wait.ErrCanceled) {
			return fmt.Errorf("%w: %w", wait.ErrCanceled, joined)
		}
	}
	for _, r := range results {
		if errors.Is(r.err, wait.ErrInvalidConfig) {
			return fmt.Errorf("%w: %w", wait.ErrInvalidConfig, joined)
		}
	}
	return fmt.Errorf("not ready: %w", joined)
}

func (a *app) serveStatus(addr string, board *status.Board, reg *prometheus.Registry) (stop func(), err error) {
	doc, err := status.OpenAPI()
	if err != nil {
		return nil, err
	}
	handler := status.NewHandler(board,
		status.WithLogger(a.log()),
		status.WithVersion(func() any { return a.build }),
	)
	mux := router.New(handler.Routes(),
		router.WithSwagger(doc),
		router.WithLogger(a.log()),
		router.WithHandler("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log().Error("status server stopped", "error", err)
		}
	}()
	a.log().Info("serving status", slog.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.log().Warn("status server shutdown", "error", err)
		}
	}, nil
}
