package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drblury/readywait/jsonutil"
)

func newVersionCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return jsonutil.Encode(cmd.OutOrStdout(), a.build)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "readywait %s (commit %s, built %s)\n",
				valueOr(a.build.Version, "dev"), valueOr(a.build.Commit, "none"), valueOr(a.build.BuildDate, "unknown"))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version information as JSON")
	return cmd
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
