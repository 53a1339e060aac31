package cli

import (
	"errors"

	"datapresso/internal/config"
	"datapresso/internal/project"
)

// Exit codes returned by the datapresso binary.
const (
	ExitOK             = 0
	ExitGeneral        = 1
	ExitUsage          = 2
	ExitAccessDenied   = 3
	ExitFormat         = 4
	ExitStorageFailure = 5
)

// ExitCodeFor maps an error returned by a command to a process exit code.
// A cancelled selection is not a failure.
func ExitCodeFor(err error) int {
	var (
		ce  config.ConfigurationError
		cec config.ConfigurationErrorCollection
	)
	switch {
	case err == nil, errors.Is(err, project.ErrUserCancelled):
		return ExitOK
	case errors.Is(err, project.ErrAccessDenied):
		return ExitAccessDenied
	case errors.Is(err, project.ErrFormat):
		return ExitFormat
	case errors.Is(err, project.ErrStorageFailure):
		return ExitStorageFailure
	case errors.As(err, &ce), errors.As(err, &cec):
		return ExitUsage
	default:
		return ExitGeneral
	}
}
