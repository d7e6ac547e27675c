package minio

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/storage"
)

type fakeAPI struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: make(map[string][]byte)}
}

func (f *fakeAPI) get(_ context.Context, bucket, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, miniogo.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound, Key: key, BucketName: bucket}
	}
	return data, nil
}

func (f *fakeAPI) put(_ context.Context, bucket, key string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = append([]byte(nil), data...)
	return nil
}

func TestNew_GCSDefaults(t *testing.T) {
	b, err := New(storage.Config{Kind: storage.KindGCS, Bucket: "/images/", Prefix: "/raw/", AccessKey: "GOOG1E", SecretKey: "s"})
	require.NoError(t, err)

	api, ok := b.api.(*minioAPI)
	require.True(t, ok)
	assert.Equal(t, GCSEndpoint, api.client.EndpointURL().Host)
	assert.Equal(t, "https", api.client.EndpointURL().Scheme)
	assert.Equal(t, "gcs(bucket=images, prefix=raw)", b.String())
}

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY", "AWS_SECRET_KEY", "AWS_SESSION_TOKEN",
		"MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_ROOT_USER", "MINIO_ROOT_PASSWORD",
	} {
		t.Setenv(name, "")
	}
}

func TestCredentialsFor(t *testing.T) {
	t.Run("static keys win", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv("AWS_ACCESS_KEY_ID", "from-env")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

		v, err := credentialsFor(storage.Config{Kind: storage.KindGCS, AccessKey: "GOOG1E", SecretKey: "s"}).Get()
		require.NoError(t, err)
		assert.Equal(t, "GOOG1E", v.AccessKeyID)
		assert.False(t, v.SignerType.IsAnonymous())
	})

	t.Run("environment", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv("AWS_ACCESS_KEY_ID", "from-env")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

		v, err := credentialsFor(storage.Config{Kind: storage.KindGCS}).Get()
		require.NoError(t, err)
		assert.Equal(t, "from-env", v.AccessKeyID)
	})

	t.Run("gcs without keys is anonymous", func(t *testing.T) {
		clearCredentialEnv(t)

		v, err := credentialsFor(storage.Config{Kind: storage.KindGCS, Bucket: "images"}).Get()
		require.NoError(t, err)
		assert.Empty(t, v.AccessKeyID)
		assert.True(t, v.SignerType.IsAnonymous())
	})
}

func TestNew_MinIOEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		scheme   string
		host     string
	}{
		{"plain host", "localhost:9000", false, "http", "localhost:9000"},
		{"plain host with tls", "minio.internal:9000", true, "https", "minio.internal:9000"},
		{"http url", "http://127.0.0.1:9000/", true, "http", "127.0.0.1:9000"},
		{"https url", "https://s3.example.com", false, "https", "s3.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(storage.Config{Kind: storage.KindMinIO, Bucket: "b", Endpoint: tt.endpoint, UseSSL: tt.useSSL})
			require.NoError(t, err)
			u := b.api.(*minioAPI).client.EndpointURL()
			assert.Equal(t, tt.scheme, u.Scheme)
			assert.Equal(t, tt.host, u.Host)
		})
	}
}

func TestNew_InvalidEndpoint(t *testing.T) {
	_, err := New(storage.Config{Kind: storage.KindMinIO, Bucket: "b", Endpoint: "bad host:9000/path"})
	assert.True(t, errs.IsConfiguration(err))
}

func TestBackend_RoundTrip(t *testing.T) {
	api := newFakeAPI()
	b := &Backend{api: api, kind: storage.KindMinIO, bucket: "bucket", prefix: "pre"}
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "dir/file.bin", []byte("payload")))
	assert.Contains(t, api.objects, "bucket/pre/dir/file.bin")

	data, err := b.Get(ctx, "dir/file.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	_, err = b.Get(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))

	_, err = b.Get(ctx, "")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestBackend_TransportFailure(t *testing.T) {
	cause := errors.New("connection reset by peer")
	api := newFakeAPI()
	api.err = cause
	b := &Backend{api: api, kind: storage.KindGCS, bucket: "b"}

	err := b.Put(context.Background(), "k", []byte("x"))
	require.Error(t, err)
	assert.True(t, errs.IsTransport(err))
	assert.ErrorIs(t, err, cause)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"no such key", miniogo.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"404 without code", miniogo.ErrorResponse{StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"no such key without status", miniogo.ErrorResponse{Code: "NoSuchKey"}, errs.ErrKindNotFound},
		{"no such bucket", miniogo.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}, errs.ErrKindTransport},
		{"access denied", miniogo.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, errs.ErrKindTransport},
		{"slow down", miniogo.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, errs.ErrKindTransport},
		{"timeout", context.DeadlineExceeded, errs.ErrKindTransport},
		{"plain", errors.New("eof"), errs.ErrKindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, mapError(tt.err, "op").Kind)
		})
	}
	assert.Nil(t, mapError(nil, "op"))
}
