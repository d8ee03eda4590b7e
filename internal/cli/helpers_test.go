package cli_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/drblury/readywait/internal/cli"
)

// execute runs the command tree with args and returns stdout.
func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := cli.NewRootCommand(cli.BuildInfo{Version: "1.2.3", Commit: "abc123", BuildDate: "2026-01-02"})
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}
