package local

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-git/go-billy/v5"

	"github.com/koustreak/blobmover/internal/errs"
)

// mapError translates a filesystem error into a *errs.Error.
func mapError(err error, key, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("object %q not found", key), err)
	case errors.Is(err, billy.ErrCrossedBoundary):
		return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("key %q escapes the root directory", key), err)
	}

	// Permission denied, disk full, key names a directory, …
	return errs.Wrap(errs.ErrKindTransport, msg, err)
}
