package cli

import (
	"errors"
	"strings"

	"datapresso/internal/codec"
	"datapresso/internal/config"
	"datapresso/internal/project"
)

// DescribeError returns the text shown to the user for a failed command,
// including hints where the cause is known.
func DescribeError(err error) string {
	var (
		fe  *codec.FormatError
		ce  config.ConfigurationError
		cec config.ConfigurationErrorCollection
	)
	switch {
	case errors.As(err, &fe):
		return fe.DetailedError()
	case errors.As(err, &ce):
		return ce.DetailedError()
	case errors.As(err, &cec):
		details := make([]string, 0, len(cec.Errors))
		for _, e := range cec.Errors {
			details = append(details, e.DetailedError())
		}
		return strings.Join(details, "\n")
	case errors.Is(err, project.ErrAccessDenied):
		return FormatError(err) + "\n  Hint: open the directory again to grant access, or pass --yes"
	case errors.Is(err, project.ErrNoActiveProject):
		return FormatError(err) + "\n  Hint: open a project first with 'datapresso open <dir>'"
	case errors.Is(err, project.ErrStorageFailure):
		return FormatError(err) + "\n  Hint: check that the registry directory is writable"
	default:
		return FormatError(err)
	}
}
