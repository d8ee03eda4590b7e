// Package readywait blocks until the services a program depends on are ready.
// It is a library first; the readywait command in cmd/readywait wraps it for
// shell scripts and container entrypoints.
//
// A strategy decides what "ready" means and polls a target until it is, or
// until the startup timeout elapses. Attempts are spaced by a rate limiter and
// driven by a retrier, so one slow probe never causes a burst of requests.
//
// # Packages
//
//   - wait: the HTTP, fixed delay and ping strategies, their options, and the
//     retry loop with typed timeout errors.
//   - probe: single attempts against HTTP endpoints, databases or arbitrary
//     functions, plus status and body predicates (expr, regexp, jq).
//   - target: static hosts, URLs and Docker containers as probe targets.
//   - config: YAML plans with environment expansion, compiled into strategies.
//   - status: an observer board and the HTTP status API that reports it.
//   - metrics: Prometheus collectors fed by the same observer hooks.
//   - router: the middleware chain the status API is served through.
//   - jsonutil: thin sonic wrappers used for every JSON payload.
//
// # Quick Start
//
//	ep, err := target.FromURL("https://api.local:8443/healthz")
//	if err != nil {
//	    return err
//	}
//	strategy := wait.ForHTTP(ep.Options()...).
//	    UsingRelaxedTLS().
//	    ForStatusCode(http.StatusOK, http.StatusNoContent).
//	    WithStartupTimeout(2 * time.Minute)
//	if err := strategy.WaitUntilReady(ctx, ep.Static); err != nil {
//	    var timeout *wait.TimeoutError
//	    if errors.As(err, &timeout) {
//	        log.Error("api not ready", "last_status", timeout.LastStatus)
//	    }
//	    return err
//	}
//
// Sharing one status.Board and metrics.Collector across strategies through
// wait.Observers keeps the status API and the metrics consistent.
package readywait
