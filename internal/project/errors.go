package project

import (
	"errors"
	"fmt"
	"io/fs"

	"datapresso/internal/capability"
	"datapresso/internal/codec"
	"datapresso/internal/recent"
	"datapresso/internal/workflow"
)

// The error taxonomy of the project layer. Lower layers are re-exported here so
// that callers check a single package.
var (
	ErrUserCancelled   = capability.ErrUserCancelled
	ErrAccessDenied    = capability.ErrAccessDenied
	ErrFormat          = codec.ErrFormat
	ErrStorageFailure  = recent.ErrStorageFailure
	ErrUnknownSection  = workflow.ErrUnknownSection
	ErrNotFound        = errors.New("not found")
	ErrNoActiveProject = errors.New("no active project")
	ErrInvalidName     = errors.New("invalid file name")
)

// translate maps platform and store errors onto the taxonomy above.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrFormat),
		errors.Is(err, ErrStorageFailure),
		errors.Is(err, ErrNotFound):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w: %w", op, ErrAccessDenied, err)
	case errors.Is(err, recent.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
