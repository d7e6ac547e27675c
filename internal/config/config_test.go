package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/storage"
)

const sampleYAML = `
log:
  level: debug
  format: json
storage:
  images_source:
    kind: s3
    bucket: my-bucket
    prefix: images
    region: eu-west-1
    max_concurrent: 8
  images_destination:
    backend: local
    root_dir: /tmp/out
  mirror:
    kind: webdav
    base_url: https://dav.example.com
    timeout: 30s
    headers:
      X-Token: abc
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "blobmover.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"images_destination", "images_source", "mirror"}, cfg.SlotNames())

	src, err := cfg.Backend("images_source")
	require.NoError(t, err)
	assert.Equal(t, storage.KindS3, src.Kind)
	assert.Equal(t, "my-bucket", src.Bucket)
	assert.Equal(t, "images", src.Prefix)
	assert.Equal(t, 8, src.MaxConcurrent)

	mirror, err := cfg.Backend("mirror")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mirror.Timeout)
	assert.Equal(t, "abc", mirror.Headers["x-token"])

	require.NoError(t, cfg.Validate())
}

func TestLoad_LegacyBackendKey(t *testing.T) {
	cfg, err := Load(writeFile(t, "blobmover.yaml", sampleYAML))
	require.NoError(t, err)

	dst, err := cfg.Backend("images_destination")
	require.NoError(t, err)
	assert.Equal(t, storage.KindLocal, dst.Kind)
	assert.Equal(t, "/tmp/out", dst.RootDir)
	assert.Equal(t, 1, dst.Concurrency())
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "blobmover.json", `{"storage": {"web": {"kind": "http", "base_url": "http://localhost:8080/objects"}}}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	web, err := cfg.Backend("web")
	require.NoError(t, err)
	assert.Equal(t, storage.KindHTTP, web.Kind)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BLOBMOVER_LOG_LEVEL", "warn")
	t.Setenv("BLOBMOVER_STORAGE_IMAGES_SOURCE_BUCKET", "other-bucket")

	cfg, err := Load(writeFile(t, "blobmover.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	src, err := cfg.Backend("images_source")
	require.NoError(t, err)
	assert.Equal(t, "other-bucket", src.Bucket)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))

	_, err = Load("")
	assert.True(t, errs.IsConfiguration(err))

	_, err = Load(writeFile(t, "broken.yaml", "storage: [unterminated"))
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
}

func TestBackend_MissingSlot(t *testing.T) {
	cfg, err := Load(writeFile(t, "blobmover.yaml", sampleYAML))
	require.NoError(t, err)

	_, err = cfg.Backend("images_archive")
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
	assert.Contains(t, err.Error(), "images_archive")
	assert.Contains(t, err.Error(), "images_source")
}

func TestValidate_NamesSlot(t *testing.T) {
	cfg, err := Load(writeFile(t, "blobmover.yaml", `
storage:
  broken:
    kind: minio
    bucket: b
`))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
	assert.Contains(t, err.Error(), "storage slot broken")
	assert.Contains(t, err.Error(), "endpoint")
}

func TestLogger(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "error"}}
	lc := cfg.Logger()
	assert.Equal(t, "error", lc.Level)
	assert.Equal(t, "json", lc.Format)
}
