package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/drblury/readywait/config"
	"github.com/drblury/readywait/wait"
)

func newDelayCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "delay DURATION",
		Short:   "Sleep for a fixed duration",
		Example: "  readywait delay 5s",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", errUsage, err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			started := time.Now()
			err = wait.ForDuration(d, wait.WithLogger(a.log())).WaitUntilReady(ctx, nil)
			r := newResult("delay", config.KindDelay, err, time.Since(started))
			if werr := writeResults(cmd.OutOrStdout(), []Result{r}, asJSON); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}
