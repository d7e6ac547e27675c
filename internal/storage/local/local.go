// Package local provides a filesystem implementation of storage.Backend.
//
// Objects live at <root>/<key>; parent directories are created on demand.
// The backend works on any go-billy filesystem, so tests can run it on memfs.
//
// Usage:
//
//	b, err := local.New("/var/lib/blobs")
//	if err != nil { ... }
//	err = b.Put(ctx, "images/a.bin", data)
package local

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/storage"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Backend stores objects as files below a root directory.
// It is safe for concurrent use by multiple goroutines.
type Backend struct {
	fs   billy.Filesystem
	root string
}

// New creates root (with parents) if needed and returns a Backend rooted there.
func New(root string) (*Backend, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, fmt.Sprintf("failed to create root directory %q", root), err)
	}
	return &Backend{fs: osfs.New(root), root: root}, nil
}

// NewWithFilesystem returns a Backend over an existing billy filesystem.
func NewWithFilesystem(fs billy.Filesystem) *Backend {
	return &Backend{fs: fs, root: fs.Root()}
}

// Get reads the file at key.
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	if err := storage.CheckKey(key); err != nil {
		return nil, err
	}

	data, err := util.ReadFile(b.fs, key)
	if err != nil {
		return nil, mapError(err, key, "failed to read object")
	}
	return data, nil
}

// Put writes data to the file at key, creating parent directories.
func (b *Backend) Put(_ context.Context, key string, data []byte) error {
	if err := storage.CheckKey(key); err != nil {
		return err
	}

	if dir := path.Dir(key); dir != "." && dir != "/" {
		if err := b.fs.MkdirAll(dir, dirPerm); err != nil {
			return mapError(err, key, "failed to create parent directory")
		}
	}
	if err := util.WriteFile(b.fs, key, data, filePerm); err != nil {
		return mapError(err, key, "failed to write object")
	}
	return nil
}

// Root returns the directory objects are stored under.
func (b *Backend) Root() string {
	return b.root
}

func (b *Backend) String() string {
	return fmt.Sprintf("local(root=%s)", b.root)
}

var _ storage.Backend = (*Backend)(nil)
