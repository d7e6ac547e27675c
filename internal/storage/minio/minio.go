// Package minio provides a storage.Backend for S3-protocol object stores
// reached through minio-go: Google Cloud Storage (XML API with HMAC keys)
// and any MinIO or S3-compatible server.
//
// Credentials come from access_key/secret_key, else from the AWS_* or MINIO_*
// environment. A gcs slot needs HMAC keys from one of those: Application
// Default Credentials are not consulted, and a slot without keys sends
// anonymous requests that only public buckets accept.
//
// Usage:
//
//	b, err := minio.New(storage.Config{Kind: storage.KindGCS, Bucket: "images", Prefix: "raw"})
//	if err != nil { ... }
//	data, err := b.Get(ctx, "file1.bin")
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/storage"
)

// GCSEndpoint is the S3-interoperable endpoint of Google Cloud Storage.
const GCSEndpoint = "storage.googleapis.com"

// objectAPI is the pair of calls Backend makes; minioAPI adapts the SDK
// client to it and tests substitute a fake.
type objectAPI interface {
	get(ctx context.Context, bucket, key string) ([]byte, error)
	put(ctx context.Context, bucket, key string, data []byte) error
}

// Backend stores objects in one bucket below a prefix.
// It is safe for concurrent use by multiple goroutines.
type Backend struct {
	api    objectAPI
	kind   storage.Kind
	bucket string
	prefix string
}

// New builds a minio-go client for a KindGCS or KindMinIO config.
// No request is sent until the first Get or Put.
func New(cfg storage.Config) (*Backend, error) {
	endpoint, secure := cfg.Endpoint, cfg.UseSSL
	if cfg.Kind == storage.KindGCS {
		if endpoint == "" {
			endpoint = GCSEndpoint
		}
		secure = true
	}
	endpoint, secure = splitScheme(endpoint, secure)

	client, err := miniogo.New(endpoint, &miniogo.Options{
		Creds:  credentialsFor(cfg),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "failed to create minio client", err)
	}

	return &Backend{
		api:    &minioAPI{client: client},
		kind:   cfg.Kind,
		bucket: strings.Trim(cfg.Bucket, "/"),
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Get downloads the object at key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := storage.CheckKey(key); err != nil {
		return nil, err
	}

	objectKey := storage.ObjectKey(b.prefix, key)
	data, err := b.api.get(ctx, b.bucket, objectKey)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to get %s/%s", b.bucket, objectKey))
	}
	return data, nil
}

// Put uploads data to key.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	if err := storage.CheckKey(key); err != nil {
		return err
	}

	objectKey := storage.ObjectKey(b.prefix, key)
	if err := b.api.put(ctx, b.bucket, objectKey, data); err != nil {
		return mapError(err, fmt.Sprintf("failed to put %s/%s", b.bucket, objectKey))
	}
	return nil
}

func (b *Backend) String() string {
	return fmt.Sprintf("%s(bucket=%s, prefix=%s)", b.kind, b.bucket, b.prefix)
}

// credentialsFor prefers static keys, then the AWS_* and MINIO_* environment,
// then anonymous access.
func credentialsFor(cfg storage.Config) *credentials.Credentials {
	if cfg.AccessKey != "" {
		return credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.EnvMinio{},
	})
}

// splitScheme accepts endpoints written as URLs; minio-go wants host[:port].
func splitScheme(endpoint string, secure bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	}
	return endpoint, secure
}

// --- internal types ---

// minioAPI wraps the SDK client.
type minioAPI struct {
	client *miniogo.Client
}

func (m *minioAPI) get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	// The request is only sent on first read, so errors surface here.
	return io.ReadAll(obj)
}

func (m *minioAPI) put(ctx context.Context, bucket, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), miniogo.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

var _ storage.Backend = (*Backend)(nil)
