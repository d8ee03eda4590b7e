package cli

import (
	"errors"

	"github.com/drblury/readywait/config"
	"github.com/drblury/readywait/wait"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitNotReady = 1
	ExitUsage    = 2
	ExitCanceled = 130
)

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, wait.ErrCanceled):
		return ExitCanceled
	case errors.Is(err, wait.ErrInvalidConfig), errors.Is(err, config.ErrInvalid), errors.Is(err, errUsage):
		return ExitUsage
	default:
		return ExitNotReady
	}
}

var errUsage = errors.New("usage")
