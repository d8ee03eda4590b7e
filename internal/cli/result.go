package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/drblury/readywait/jsonutil"
	"github.com/drblury/readywait/metrics"
)

// Result is the outcome of waiting for one target.
type Result struct {
	Name    string        `json:"name"`
	Kind    string        `json:"kind"`
	Result  string        `json:"result"`
	Elapsed time.Duration `json:"elapsedNs"`
	Error   string        `json:"error,omitempty"`

	err error
}

func newResult(name, kind string, err error, elapsed time.Duration) Result {
	r := Result{Name: name, Kind: kind, Result: metrics.Result(err), Elapsed: elapsed}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func writeResults(w io.Writer, results []Result, asJSON bool) error {
	if asJSON {
		return jsonutil.Encode(w, results)
	}
	for _, r := range results {
		line := fmt.Sprintf("%-20s %-9s %-8s %s", r.Name, r.Kind, r.Result, r.Elapsed.Round(time.Millisecond))
		if r.Error != "" {
			line += "  " + r.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
