// Package telemetry reports storage operations to OpenTelemetry.
//
// Every Get/Put passing through a storage.Instrumented backend gets a span
// named "storage.<op>" and one sample in the storage.operation.duration
// histogram. Without an installed SDK the global providers are no-ops.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/storage"
)

// InstrumentationName identifies blobmover's tracer and meter.
const InstrumentationName = "github.com/koustreak/blobmover/internal/telemetry"

// Metric and attribute names.
const (
	DurationMetric = "storage.operation.duration"

	AttrKey       = attribute.Key("storage.key")
	AttrBackend   = attribute.Key("storage.backend")
	AttrOperation = attribute.Key("operation")
	AttrErrorKind = attribute.Key("error.kind")
)

// Hooks implements storage.Hooks with a tracer and a duration histogram.
type Hooks struct {
	tracer   trace.Tracer
	duration metric.Float64Histogram
}

// New creates Hooks from tracer and meter.
func New(tracer trace.Tracer, meter metric.Meter) (*Hooks, error) {
	hist, err := meter.Float64Histogram(DurationMetric,
		metric.WithUnit("s"),
		metric.WithDescription("Duration of storage get and put operations"),
	)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "failed to create duration histogram", err)
	}
	return &Hooks{tracer: tracer, duration: hist}, nil
}

// Default returns Hooks bound to the global tracer and meter providers.
func Default() *Hooks {
	h, err := New(otel.Tracer(InstrumentationName), otel.Meter(InstrumentationName))
	if err != nil {
		// Spans still work; the histogram is skipped.
		return &Hooks{tracer: otel.Tracer(InstrumentationName)}
	}
	return h
}

// Begin starts a span for one operation and returns the func that ends it.
func (h *Hooks) Begin(ctx context.Context, op storage.Op, backend, key string) (context.Context, func(error)) {
	ctx, span := h.tracer.Start(ctx, "storage."+string(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrKey.String(key), AttrBackend.String(backend)),
	)
	start := time.Now()

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(AttrErrorKind.String(errs.KindOf(err).String()))
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if h.duration != nil {
			h.duration.Record(ctx, time.Since(start).Seconds(),
				metric.WithAttributes(AttrOperation.String(string(op))))
		}
	}
}

var _ storage.Hooks = (*Hooks)(nil)
