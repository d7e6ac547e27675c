package storage

import (
	"strings"
	"time"

	"github.com/koustreak/blobmover/internal/errs"
)

// Kind identifies the storage backend variant.
type Kind string

const (
	KindLocal  Kind = "local"
	KindHTTP   Kind = "http"
	KindS3     Kind = "s3"
	KindGCS    Kind = "gcs"
	KindMinIO  Kind = "minio"
	KindWebDAV Kind = "webdav"
)

// Kinds lists every supported variant.
var Kinds = []Kind{KindLocal, KindHTTP, KindS3, KindGCS, KindMinIO, KindWebDAV}

// DefaultMaxConcurrent is the permit count used when MaxConcurrent is unset.
const DefaultMaxConcurrent = 1

// Config is the tagged description of one backend. Kind selects the variant;
// only the fields that variant reads are consulted.
type Config struct {
	// Kind is the variant discriminator (e.g. KindS3).
	Kind Kind `mapstructure:"kind" json:"kind" yaml:"kind"`

	// RootDir is the directory holding objects for KindLocal.
	// It is created, with parents, when the backend is built.
	RootDir string `mapstructure:"root_dir" json:"root_dir,omitempty" yaml:"root_dir,omitempty"`

	// BaseURL is the endpoint for KindHTTP and KindWebDAV.
	// Objects live at BaseURL + "/" + key.
	BaseURL string `mapstructure:"base_url" json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Headers are sent with every request for KindHTTP and KindWebDAV.
	Headers map[string]string `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty"`

	// Bucket and Prefix select the namespace of the object-store kinds.
	Bucket string `mapstructure:"bucket" json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `mapstructure:"prefix" json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region is used by region-aware object stores (S3).
	Region string `mapstructure:"region" json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the service endpoint.
	// Required for KindMinIO, defaults to storage.googleapis.com for KindGCS.
	Endpoint string `mapstructure:"endpoint" json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// AccessKey and SecretKey are static credentials (S3 keys, GCS HMAC keys).
	// When empty the variant falls back to its ambient credential chain.
	AccessKey string `mapstructure:"access_key" json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `mapstructure:"secret_key" json:"-" yaml:"-"`

	// UseSSL enables TLS for KindMinIO. KindGCS always uses TLS.
	UseSSL bool `mapstructure:"use_ssl" json:"use_ssl,omitempty" yaml:"use_ssl,omitempty"`

	// UsePathStyle forces path-style addressing for KindS3.
	UsePathStyle bool `mapstructure:"use_path_style" json:"use_path_style,omitempty" yaml:"use_path_style,omitempty"`

	// Username and Password authenticate KindWebDAV.
	Username string `mapstructure:"username" json:"username,omitempty" yaml:"username,omitempty"`
	Password string `mapstructure:"password" json:"-" yaml:"-"`

	// Timeout bounds a single request for KindHTTP and KindWebDAV. 0 means none.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// MaxConcurrent caps in-flight Get/Put calls. 0 means DefaultMaxConcurrent.
	MaxConcurrent int `mapstructure:"max_concurrent" json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
}

// Concurrency returns the effective permit count.
func (c Config) Concurrency() int {
	if c.MaxConcurrent < 1 {
		return DefaultMaxConcurrent
	}
	return c.MaxConcurrent
}

// Validate checks that every field required by Kind is present.
// It fails with errs.ErrKindUnsupportedKind for an unknown Kind and with
// errs.ErrKindConfiguration for missing or out-of-range fields.
func (c Config) Validate() error {
	if c.MaxConcurrent < 0 {
		return errs.Newf(errs.ErrKindConfiguration, "%s: max_concurrent must be >= 1, got %d", c.Kind, c.MaxConcurrent)
	}

	var required map[string]string
	switch c.Kind {
	case "":
		return errs.New(errs.ErrKindConfiguration, "backend kind is required")
	case KindLocal:
		required = map[string]string{"root_dir": c.RootDir}
	case KindHTTP, KindWebDAV:
		required = map[string]string{"base_url": c.BaseURL}
	case KindS3, KindGCS:
		required = map[string]string{"bucket": c.Bucket}
	case KindMinIO:
		required = map[string]string{"bucket": c.Bucket, "endpoint": c.Endpoint}
	default:
		return errs.Newf(errs.ErrKindUnsupportedKind, "unsupported backend kind %q (want one of %s)", c.Kind, kindList())
	}

	// Report in a stable order.
	for _, field := range []string{"root_dir", "base_url", "bucket", "endpoint"} {
		if v, ok := required[field]; ok && strings.TrimSpace(v) == "" {
			return errs.Newf(errs.ErrKindConfiguration, "%s: %s is required", c.Kind, field)
		}
	}
	return nil
}

func kindList() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
