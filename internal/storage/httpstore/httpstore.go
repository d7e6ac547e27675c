// Package httpstore provides a read-only HTTP implementation of storage.Backend.
//
// Objects are fetched with GET <base_url>/<key>. Put always fails with
// errs.ErrKindUnsupported without sending a request.
package httpstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/storage"
)

// Backend reads objects from an HTTP endpoint.
// It is safe for concurrent use by multiple goroutines.
type Backend struct {
	baseURL string
	headers http.Header
	client  *http.Client
}

// Option customises a Backend.
type Option func(*Backend)

// WithClient replaces the pooled default HTTP client.
func WithClient(c *http.Client) Option {
	return func(b *Backend) { b.client = c }
}

// WithTimeout bounds every request. Zero leaves the client unchanged.
func WithTimeout(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.client.Timeout = d
		}
	}
}

// New returns a Backend for baseURL that sends headers on every request.
func New(baseURL string, headers map[string]string, opts ...Option) *Backend {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}

	b := &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: h,
		client:  cleanhttp.DefaultPooledClient(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Get downloads <base_url>/<key>. 404 maps to errs.ErrKindNotFound, any other
// non-2xx status to errs.ErrKindTransport.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := storage.CheckKey(key); err != nil {
		return nil, err
	}

	target := b.objectURL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("invalid object URL %q", target), err)
	}
	for k, v := range b.headers {
		req.Header[k] = v
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, key); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "failed to read response body", err)
	}
	return data, nil
}

// objectURL escapes every segment of key so that '#', '?' and '%' stay part
// of the object path.
func (b *Backend) objectURL(key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return b.baseURL + "/" + strings.Join(segments, "/")
}

// Put is not supported: the HTTP backend is read-only.
func (b *Backend) Put(context.Context, string, []byte) error {
	return errs.New(errs.ErrKindUnsupported, "http backend is read-only")
}

func (b *Backend) String() string {
	return fmt.Sprintf("http(base_url=%s)", b.baseURL)
}

var _ storage.Backend = (*Backend)(nil)
