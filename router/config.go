package router

import "time"

// Config holds the tunables of the default middleware chain.
type Config struct {
	// Timeout bounds each request. Zero disables the timeout middleware.
	Timeout time.Duration
	// AccessLog logs every request at debug level.
	AccessLog bool
	// QuietdownRoutes are paths whose requests are not logged, typically
	// probes polled by orchestrators.
	QuietdownRoutes []string
	// HideHeaders are request headers whose values are redacted in logs.
	HideHeaders []string
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		AccessLog:       true,
		QuietdownRoutes: []string{"/healthz", "/readyz"},
		HideHeaders:     []string{"Authorization", "Cookie"},
	}
}
