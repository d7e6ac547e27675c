// Package storagetest provides an in-memory storage.Backend with probes for
// latency, failures and concurrency, for use in tests.
package storagetest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/storage"
)

// Call records one completed Get or Put.
type Call struct {
	Op    storage.Op
	Key   string
	Start time.Time
	End   time.Time
	Err   error
}

// Option configures a Memory backend.
type Option func(*Memory)

// WithGetDelay makes Get(key) block for fn(key) before answering.
func WithGetDelay(fn func(key string) time.Duration) Option {
	return func(m *Memory) { m.getDelay = fn }
}

// WithPutDelay makes Put(key) block for fn(key) before storing.
func WithPutDelay(fn func(key string) time.Duration) Option {
	return func(m *Memory) { m.putDelay = fn }
}

// WithGetError makes Get(key) fail with fn(key) when it is non-nil.
func WithGetError(fn func(key string) error) Option {
	return func(m *Memory) { m.getErr = fn }
}

// WithPutError makes Put(key) fail with fn(key) when it is non-nil.
func WithPutError(fn func(key string) error) Option {
	return func(m *Memory) { m.putErr = fn }
}

// Memory is a thread-safe in-memory backend that records every call and the
// peak number of calls in flight at once.
type Memory struct {
	getDelay func(string) time.Duration
	putDelay func(string) time.Duration
	getErr   func(string) error
	putErr   func(string) error

	mu      sync.Mutex
	objects map[string][]byte
	calls   []Call

	active atomic.Int64
	peak   atomic.Int64
}

// NewMemory returns an empty Memory backend.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{objects: make(map[string][]byte)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Seed stores data at key without recording a call.
func (m *Memory) Seed(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
}

// Object returns the stored content at key.
func (m *Memory) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Peak returns the highest number of simultaneously active calls observed.
func (m *Memory) Peak() int {
	return int(m.peak.Load())
}

// Calls returns completed calls in completion order.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Get implements storage.Backend.
func (m *Memory) Get(ctx context.Context, key string) (data []byte, err error) {
	if err := storage.CheckKey(key); err != nil {
		return nil, err
	}
	start := m.enter()
	defer func() { m.exit(storage.OpGet, key, start, err) }()

	if err := wait(ctx, m.getDelay, key); err != nil {
		return nil, err
	}
	if m.getErr != nil {
		if err := m.getErr(key); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.objects[key]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "object %q not found", key)
	}
	return append([]byte(nil), stored...), nil
}

// Put implements storage.Backend.
func (m *Memory) Put(ctx context.Context, key string, data []byte) (err error) {
	if err := storage.CheckKey(key); err != nil {
		return err
	}
	start := m.enter()
	defer func() { m.exit(storage.OpPut, key, start, err) }()

	if err := wait(ctx, m.putDelay, key); err != nil {
		return err
	}
	if m.putErr != nil {
		if err := m.putErr(key); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) String() string {
	return "memory"
}

func (m *Memory) enter() time.Time {
	n := m.active.Add(1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return time.Now()
}

func (m *Memory) exit(op storage.Op, key string, start time.Time, err error) {
	end := time.Now()
	m.active.Add(-1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: op, Key: key, Start: start, End: end, Err: err})
}

func wait(ctx context.Context, delay func(string) time.Duration, key string) error {
	if delay == nil {
		return nil
	}
	d := delay(key)
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return errs.Wrap(errs.ErrKindTransport, "interrupted", ctx.Err())
	}
}

var _ storage.Backend = (*Memory)(nil)
