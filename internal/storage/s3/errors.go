package s3

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/koustreak/blobmover/internal/errs"
)

// mapError translates an AWS SDK error into a *errs.Error.
// Missing objects become ErrKindNotFound; everything else is transport.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	// HeadObject-style and some S3-compatible servers report a bare code.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindTransport, msg, err)
}
