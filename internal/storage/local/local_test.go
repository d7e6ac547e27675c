package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/blobmover/internal/errs"
)

func TestNew_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b", "c")

	b, err := New(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, root, b.Root())
	assert.Equal(t, "local(root="+root+")", b.String())
}

func TestNew_RootIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := New(filepath.Join(file, "sub"))
	assert.True(t, errs.IsTransport(err))
}

func TestBackend_RoundTrip(t *testing.T) {
	root := t.TempDir()
	b, err := New(root)
	require.NoError(t, err)
	ctx := context.Background()

	payloads := map[string][]byte{
		"file1.bin":          []byte("hello"),
		"images/2024/a.jpg":  {0xff, 0xd8, 0x00, 0x01},
		"empty":              {},
		"deep/er/still/x.gz": []byte("nested"),
	}
	for key, data := range payloads {
		require.NoError(t, b.Put(ctx, key, data))
	}
	for key, data := range payloads {
		got, err := b.Get(ctx, key)
		require.NoError(t, err, key)
		assert.Equal(t, len(data), len(got), key)
		assert.True(t, string(data) == string(got), key)
	}

	onDisk, err := os.ReadFile(filepath.Join(root, "images", "2024", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, payloads["images/2024/a.jpg"], onDisk)
}

func TestBackend_PutOverwrites(t *testing.T) {
	b := NewWithFilesystem(memfs.New())
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "k", []byte("first, longer value")))
	require.NoError(t, b.Put(ctx, "k", []byte("second")))

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestBackend_GetMissing(t *testing.T) {
	root := t.TempDir()
	b, err := New(root)
	require.NoError(t, err)

	_, err = b.Get(context.Background(), "nested/missing.bin")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Contains(t, err.Error(), "nested/missing.bin")

	_, statErr := os.Stat(filepath.Join(root, "nested", "missing.bin"))
	assert.True(t, os.IsNotExist(statErr), "a failed get must not create the file")
	_, statErr = os.Stat(filepath.Join(root, "nested"))
	assert.True(t, os.IsNotExist(statErr), "a failed get must not create parent directories")
}

func TestBackend_GetMissing_Memfs(t *testing.T) {
	b := NewWithFilesystem(memfs.New())

	_, err := b.Get(context.Background(), "missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestBackend_InvalidKeys(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = b.Get(ctx, "")
	assert.True(t, errs.IsInvalidInput(err))
	assert.True(t, errs.IsInvalidInput(b.Put(ctx, "", []byte("x"))))

	_, err = b.Get(ctx, "../outside")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestBackend_GetDirectory(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "dir/file", []byte("x")))

	_, err = b.Get(ctx, "dir")
	require.Error(t, err)
	assert.False(t, errs.IsNotFound(err))
}
