package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// BuildInfo describes the binary. It is injected by main.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

type app struct {
	build     BuildInfo
	logLevel  LogLevel
	logFormat LogFormat
	logger    *slog.Logger
}

// NewRootCommand creates the readywait command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	a := &app{build: build, logLevel: LogLevel{slog.LevelInfo}, logFormat: LogFormatText}

	cmd := &cobra.Command{
		Use:   "readywait",
		Short: "Block until dependent services are ready",
		Long: `readywait polls services until they report ready or a timeout elapses.

Probe a single HTTP endpoint with 'readywait http', or wait for every target
of a YAML file with 'readywait run -f readywait.yaml'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.logger = newLogger(cmd.ErrOrStderr(), a.logLevel.Level, a.logFormat)
		},
	}

	cmd.PersistentFlags().Var(&a.logLevel, "log-level", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().Var(&a.logFormat, "log-format", "Log format: text or json")

	cmd.AddCommand(
		newRunCommand(a),
		newHTTPCommand(a),
		newDelayCommand(a),
		newVersionCommand(a),
	)
	return cmd
}

func (a *app) log() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger
}
