// Package status records the progress of readiness waits on a Board and
// serves it over HTTP.
//
// The Board is a wait.Observer; hand it to every strategy with
// wait.WithObserver. NewHandler exposes it as:
//
//	GET /status          all targets
//	GET /status/{name}   one target
//	GET /readyz          200 once every target is ready, 503 problem otherwise
//	GET /healthz         liveness of the process
//	GET /version         build information
//
// OpenAPI returns the document describing these routes, for request
// validation in the router package.
package status
