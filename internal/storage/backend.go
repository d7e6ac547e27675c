// Package storage defines the unified interface for blob storage backends.
//
// All variants (local filesystem, HTTP, S3, GCS, MinIO, WebDAV) implement the
// Backend interface. Callers depend only on this package, never on a specific
// variant package. Variants are built from a tagged Config by the factory
// package, which also applies the concurrency bound and instrumentation.
//
// Usage:
//
//	b, err := factory.New(ctx, storage.Config{Kind: storage.KindLocal, RootDir: "/tmp/x"}, log)
//	if err != nil { ... }
//
//	if err := b.Put(ctx, "images/a.bin", data); err != nil { ... }
//	data, err := b.Get(ctx, "images/a.bin")
package storage

import (
	"context"
	"strings"

	"github.com/koustreak/blobmover/internal/errs"
)

// Backend is the single interface all storage variants must implement.
// Implementations are safe for concurrent use by multiple goroutines.
type Backend interface {
	// Get returns the full content of the object stored at key.
	// It fails with errs.ErrKindNotFound when no object exists at key and
	// with errs.ErrKindTransport for any failure of the underlying client.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data at key, creating or overwriting it.
	// Read-only variants fail with errs.ErrKindUnsupported and perform no I/O.
	Put(ctx context.Context, key string, data []byte) error
}

// Op names a Backend operation for telemetry and logs.
type Op string

const (
	OpGet Op = "get"
	OpPut Op = "put"
)

// Describer is implemented by backends that can name themselves,
// e.g. "s3(bucket=b, prefix=p)".
type Describer interface {
	String() string
}

// Describe returns the identifier of b used in logs and spans: its String
// method when it has one, otherwise "unknown".
func Describe(b Backend) string {
	if s, ok := b.(Describer); ok {
		return s.String()
	}
	return "unknown"
}

// CheckKey rejects keys no variant can address.
func CheckKey(key string) error {
	if key == "" {
		return errs.New(errs.ErrKindInvalidInput, "object key must not be empty")
	}
	return nil
}

// ObjectKey joins a namespace prefix and a key with exactly one slash,
// ignoring leading and trailing slashes on either part.
//
//	ObjectKey("", "a/b")        == "a/b"
//	ObjectKey("/imgs/", "/a/b") == "imgs/a/b"
func ObjectKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	key = strings.TrimLeft(key, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
