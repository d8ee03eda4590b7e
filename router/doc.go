// Package router assembles the status server: the status API behind OpenAPI
// request validation, a timeout and request logging, plus unvalidated extra
// handlers such as /metrics. ExampleNew_statusServer shows the wiring.
package router
