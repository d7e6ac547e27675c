package minio

import (
	"errors"
	"net/http"

	miniogo "github.com/minio/minio-go/v7"

	"github.com/koustreak/blobmover/internal/errs"
)

// mapError translates a minio-go error into a *errs.Error.
// Only missing objects get their own kind; every other failure, including
// auth and throttling, is a transport error carrying the SDK cause.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	// MinIO SDK exposes a typed ErrorResponse for S3-protocol errors
	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		if resp.StatusCode == http.StatusNotFound {
			switch resp.Code {
			case "NoSuchBucket":
				return errs.Wrap(errs.ErrKindTransport, msg+": bucket does not exist", err)
			default:
				return errs.Wrap(errs.ErrKindNotFound, msg, err)
			}
		}

		// Codes that may arrive without a 404 status
		switch resp.Code {
		case "NoSuchKey", "NotFound":
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindTransport, msg, err)
}
