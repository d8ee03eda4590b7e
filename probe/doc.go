// Package probe implements single readiness attempts: HTTP requests checked
// against status and body predicates, and database or custom ping functions.
// Each probe is a Func that returns nil when the resource answered as
// expected. Package wait repeats these attempts until they pass or a
// deadline elapses. See ExampleNewHTTPProbe and ExampleNewStatusMatcher.
package probe
