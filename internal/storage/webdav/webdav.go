// Package webdav provides a WebDAV implementation of storage.Backend.
package webdav

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/studio-b12/gowebdav"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/storage"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// client is the subset of *gowebdav.Client used by Backend.
type client interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// Backend stores objects as files on a WebDAV server below a prefix.
//
// gowebdav has no context support, so cancellation only takes effect between
// requests; the client timeout bounds each one.
type Backend struct {
	client  client
	baseURL string
	prefix  string
}

// New returns a Backend for cfg.BaseURL. It does not contact the server.
func New(cfg storage.Config) *Backend {
	c := gowebdav.NewClient(cfg.BaseURL, cfg.Username, cfg.Password)
	for k, v := range cfg.Headers {
		c.SetHeader(k, v)
	}
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}

	return &Backend{
		client:  c,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		prefix:  strings.Trim(cfg.Prefix, "/"),
	}
}

// Get reads the file at key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := storage.CheckKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "request not sent", err)
	}

	p := b.remotePath(key)
	data, err := b.client.Read(p)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to read %s", p))
	}
	return data, nil
}

// Put writes data to key, creating parent collections first.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	if err := storage.CheckKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.ErrKindTransport, "request not sent", err)
	}

	p := b.remotePath(key)
	if dir := path.Dir(p); dir != "/" {
		if err := b.client.MkdirAll(dir, dirPerm); err != nil {
			return mapError(err, fmt.Sprintf("failed to create collection %s", dir))
		}
	}
	if err := b.client.Write(p, data, filePerm); err != nil {
		return mapError(err, fmt.Sprintf("failed to write %s", p))
	}
	return nil
}

func (b *Backend) String() string {
	return fmt.Sprintf("webdav(base_url=%s, prefix=%s)", b.baseURL, b.prefix)
}

func (b *Backend) remotePath(key string) string {
	return "/" + storage.ObjectKey(b.prefix, key)
}

// mapError translates a gowebdav error into a *errs.Error.
func mapError(err error, msg string) *errs.Error {
	var statusErr gowebdav.StatusError
	if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}
	if os.IsNotExist(err) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}
	return errs.Wrap(errs.ErrKindTransport, msg, err)
}

var _ storage.Backend = (*Backend)(nil)
