package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/storage"
	"github.com/koustreak/blobmover/internal/storage/storagetest"
)

type recordedSpan struct {
	tracenoop.Span

	name   string
	kind   trace.SpanKind
	attrs  []attribute.KeyValue
	errs   []error
	status codes.Code
	ended  bool
}

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }
func (s *recordedSpan) SetStatus(code codes.Code, _ string)           { s.status = code }
func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue)        { s.attrs = append(s.attrs, kv...) }
func (s *recordedSpan) End(...trace.SpanEndOption)                    { s.ended = true }

func (s *recordedSpan) attr(key attribute.Key) string {
	for _, kv := range s.attrs {
		if kv.Key == key {
			return kv.Value.AsString()
		}
	}
	return ""
}

type recordingTracer struct {
	tracenoop.Tracer

	mu    sync.Mutex
	spans []*recordedSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{name: name, kind: cfg.SpanKind(), attrs: cfg.Attributes()}

	t.mu.Lock()
	t.spans = append(t.spans, s)
	t.mu.Unlock()
	return ctx, s
}

type sample struct {
	value float64
	attrs attribute.Set
}

type recordingHistogram struct {
	metricnoop.Float64Histogram

	mu      sync.Mutex
	samples []sample
}

func (h *recordingHistogram) Record(_ context.Context, v float64, opts ...metric.RecordOption) {
	cfg := metric.NewRecordConfig(opts)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = append(h.samples, sample{value: v, attrs: cfg.Attributes()})
}

type recordingMeter struct {
	metricnoop.Meter

	name string
	unit string
	hist *recordingHistogram
	err  error
}

func (m *recordingMeter) Float64Histogram(name string, opts ...metric.Float64HistogramOption) (metric.Float64Histogram, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.name = name
	m.unit = metric.NewFloat64HistogramConfig(opts...).Unit()
	m.hist = &recordingHistogram{}
	return m.hist, nil
}

func TestHooks_Success(t *testing.T) {
	tracer := &recordingTracer{}
	meter := &recordingMeter{}
	hooks, err := New(tracer, meter)
	require.NoError(t, err)
	assert.Equal(t, DurationMetric, meter.name)
	assert.Equal(t, "s", meter.unit)

	mem := storagetest.NewMemory()
	mem.Seed("images/a.bin", []byte("x"))
	b := storage.NewInstrumented(mem, "memory", hooks)

	_, err = b.Get(context.Background(), "images/a.bin")
	require.NoError(t, err)

	require.Len(t, tracer.spans, 1)
	span := tracer.spans[0]
	assert.Equal(t, "storage.get", span.name)
	assert.Equal(t, trace.SpanKindClient, span.kind)
	assert.Equal(t, "images/a.bin", span.attr(AttrKey))
	assert.Equal(t, "memory", span.attr(AttrBackend))
	assert.True(t, span.ended)
	assert.Empty(t, span.errs)
	assert.Equal(t, codes.Unset, span.status)

	require.Len(t, meter.hist.samples, 1)
	op, ok := meter.hist.samples[0].attrs.Value(AttrOperation)
	require.True(t, ok)
	assert.Equal(t, "get", op.AsString())
	assert.GreaterOrEqual(t, meter.hist.samples[0].value, 0.0)
}

func TestHooks_Failure(t *testing.T) {
	tracer := &recordingTracer{}
	meter := &recordingMeter{}
	hooks, err := New(tracer, meter)
	require.NoError(t, err)

	b := storage.NewInstrumented(storagetest.NewMemory(), "memory", hooks)
	_, err = b.Get(context.Background(), "missing")
	require.Error(t, err)

	span := tracer.spans[0]
	require.Len(t, span.errs, 1)
	assert.True(t, errs.IsNotFound(span.errs[0]))
	assert.Equal(t, codes.Error, span.status)
	assert.Equal(t, "not_found", span.attr(AttrErrorKind))
	assert.True(t, span.ended)
	assert.Len(t, meter.hist.samples, 1)
}

func TestHooks_PutOperationName(t *testing.T) {
	tracer := &recordingTracer{}
	meter := &recordingMeter{}
	hooks, err := New(tracer, meter)
	require.NoError(t, err)

	b := storage.NewInstrumented(storagetest.NewMemory(), "", hooks)
	require.NoError(t, b.Put(context.Background(), "k", []byte("v")))

	assert.Equal(t, "storage.put", tracer.spans[0].name)
	op, _ := meter.hist.samples[0].attrs.Value(AttrOperation)
	assert.Equal(t, "put", op.AsString())
}

func TestNew_HistogramError(t *testing.T) {
	_, err := New(&recordingTracer{}, &recordingMeter{err: errors.New("bad instrument")})
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
}

func TestDefault_NoopProviders(t *testing.T) {
	hooks := Default()
	b := storage.NewInstrumented(storagetest.NewMemory(), "", hooks)
	assert.NoError(t, b.Put(context.Background(), "k", []byte("v")))
}
