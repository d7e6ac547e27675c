// Package factory builds storage backends from tagged configuration.
//
// Every backend returned by New is wrapped, innermost first, in a
// storage.Bounded honouring max_concurrent and a storage.Instrumented that
// logs and traces each call.
package factory

import (
	"context"
	"sort"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/logger"
	"github.com/koustreak/blobmover/internal/storage"
	"github.com/koustreak/blobmover/internal/storage/httpstore"
	"github.com/koustreak/blobmover/internal/storage/local"
	"github.com/koustreak/blobmover/internal/storage/minio"
	"github.com/koustreak/blobmover/internal/storage/s3"
	"github.com/koustreak/blobmover/internal/storage/webdav"
	"github.com/koustreak/blobmover/internal/telemetry"
)

type options struct {
	hooks     []storage.Hooks
	telemetry bool
}

// Option customises New.
type Option func(*options)

// WithHooks adds hooks called around every Get/Put.
func WithHooks(h ...storage.Hooks) Option {
	return func(o *options) { o.hooks = append(o.hooks, h...) }
}

// WithoutTelemetry skips the OpenTelemetry hooks.
func WithoutTelemetry() Option {
	return func(o *options) { o.telemetry = false }
}

// New validates cfg and builds the backend it describes.
// Only the local kind touches the outside world here: it creates root_dir.
func New(ctx context.Context, cfg storage.Config, log *logger.Logger, opts ...Option) (storage.Backend, error) {
	o := options{telemetry: true}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.Nop()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	variant, err := build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	id := storage.Describe(variant)
	log = log.ForBackend(string(cfg.Kind), id)

	hooks := []storage.Hooks{storage.LogHooks(log)}
	if o.telemetry {
		hooks = append(hooks, telemetry.Default())
	}
	hooks = append(hooks, o.hooks...)

	bounded := storage.NewBounded(variant, cfg.Concurrency())
	log.With().Int("max_concurrent", bounded.Capacity()).Logger().Debug("storage backend ready")

	return storage.NewInstrumented(bounded, id, storage.MultiHooks(hooks...)), nil
}

// NewSet builds one backend per named slot. Slots are built in name order
// and the first failure is returned with the slot name attached.
func NewSet(ctx context.Context, slots map[string]storage.Config, log *logger.Logger, opts ...Option) (map[string]storage.Backend, error) {
	names := make([]string, 0, len(slots))
	for name := range slots {
		names = append(names, name)
	}
	sort.Strings(names)

	set := make(map[string]storage.Backend, len(slots))
	for _, name := range names {
		b, err := New(ctx, slots[name], log, opts...)
		if err != nil {
			return nil, errs.Wrap(errs.KindOf(err), "storage slot "+name, err)
		}
		set[name] = b
	}
	return set, nil
}

func build(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
	switch cfg.Kind {
	case storage.KindLocal:
		return local.New(cfg.RootDir)
	case storage.KindHTTP:
		return httpstore.New(cfg.BaseURL, cfg.Headers, httpstore.WithTimeout(cfg.Timeout)), nil
	case storage.KindS3:
		return s3.New(ctx, cfg)
	case storage.KindGCS, storage.KindMinIO:
		return minio.New(cfg)
	case storage.KindWebDAV:
		return webdav.New(cfg), nil
	default:
		// Validate rejects unknown kinds first.
		return nil, errs.Newf(errs.ErrKindUnsupportedKind, "unsupported backend kind %q", cfg.Kind)
	}
}
