// Package wait blocks until a dependent service is ready.
//
// A Strategy decides readiness for a Target, the collaborator that knows the
// service's address and externally reachable ports:
//
//   - ForHTTP / ForEndpoint poll an HTTP endpoint until its status and body
//     satisfy the configured predicates.
//   - ForPing polls any probe.Func, such as a database ping.
//   - ForDuration waits a fixed amount of time.
//
// Polling strategies run attempts one after another, spaced by a rate
// limiter, until one passes or the startup timeout elapses. A timeout is
// reported as *TimeoutError, which matches ErrTimeout.
//
//	err := wait.ForEndpoint("/health",
//	    wait.ForStatusCode(http.StatusOK, http.StatusNoContent),
//	    wait.WithStartupTimeout(30*time.Second),
//	).WaitUntilReady(ctx, target.Static{Address: "localhost", Ports: []int{8080}})
package wait
