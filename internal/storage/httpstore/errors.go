package httpstore

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/koustreak/blobmover/internal/errs"
)

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 512

// StatusError carries a non-success HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// checkStatus maps a non-2xx response to a *errs.Error wrapping *StatusError.
func checkStatus(resp *http.Response, key string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	cause := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}

	if resp.StatusCode == http.StatusNotFound {
		return errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("object %q not found", key), cause)
	}
	return errs.Wrap(errs.ErrKindTransport, fmt.Sprintf("failed to get object %q", key), cause)
}
