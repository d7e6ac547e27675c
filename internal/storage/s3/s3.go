// Package s3 provides an Amazon S3 implementation of storage.Backend.
//
// Keys are stored under <bucket>/<prefix>/<key>. Credentials come from the
// static access/secret pair in the config when set, otherwise from the AWS
// default credential chain (environment, shared config, instance role).
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/storage"
)

const defaultRegion = "us-east-1"

// API is the subset of the S3 client used by Backend. It exists so tests
// can substitute a mock.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Backend stores objects in one S3 bucket below a prefix.
// It is safe for concurrent use by multiple goroutines.
type Backend struct {
	client API
	bucket string
	prefix string
}

// New builds an S3 client from cfg. It loads local AWS configuration but
// performs no network I/O.
func New(ctx context.Context, cfg storage.Config) (*Backend, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "failed to load aws configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient returns a Backend using an existing client.
func NewWithClient(client API, bucket, prefix string) *Backend {
	return &Backend{
		client: client,
		bucket: strings.Trim(bucket, "/"),
		prefix: strings.Trim(prefix, "/"),
	}
}

// Get downloads the object at key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := storage.CheckKey(key); err != nil {
		return nil, err
	}

	objectKey := storage.ObjectKey(b.prefix, key)
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to get s3://%s/%s", b.bucket, objectKey))
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if out.ContentLength != nil && *out.ContentLength > 0 {
		buf.Grow(int(*out.ContentLength))
	}
	if _, err := io.Copy(&buf, out.Body); err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to read s3://%s/%s", b.bucket, objectKey))
	}
	return buf.Bytes(), nil
}

// Put uploads data to key in a single PutObject call.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	if err := storage.CheckKey(key); err != nil {
		return err
	}

	objectKey := storage.ObjectKey(b.prefix, key)
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return mapError(err, fmt.Sprintf("failed to put s3://%s/%s", b.bucket, objectKey))
	}
	return nil
}

func (b *Backend) String() string {
	return fmt.Sprintf("s3(bucket=%s, prefix=%s)", b.bucket, b.prefix)
}

var _ storage.Backend = (*Backend)(nil)
