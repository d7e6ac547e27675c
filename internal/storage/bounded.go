package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/koustreak/blobmover/internal/errs"
)

// Bounded caps the number of concurrent Get/Put calls reaching the wrapped
// Backend. It never alters results; a capacity of 1 serializes all access.
type Bounded struct {
	backend  Backend
	sem      *semaphore.Weighted
	capacity int
}

// NewBounded wraps b so that at most maxConcurrent calls run at once.
// Values below 1 are treated as 1.
func NewBounded(b Backend, maxConcurrent int) *Bounded {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Bounded{
		backend:  b,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		capacity: maxConcurrent,
	}
}

// Capacity returns the permit count.
func (b *Bounded) Capacity() int {
	return b.capacity
}

// Unwrap returns the wrapped backend.
func (b *Bounded) Unwrap() Backend {
	return b.backend
}

// Get waits for a permit, then delegates.
func (b *Bounded) Get(ctx context.Context, key string) ([]byte, error) {
	if err := b.acquire(ctx); err != nil {
		return nil, err
	}
	defer b.sem.Release(1)

	return b.backend.Get(ctx, key)
}

// Put waits for a permit, then delegates.
func (b *Bounded) Put(ctx context.Context, key string, data []byte) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.sem.Release(1)

	return b.backend.Put(ctx, key, data)
}

func (b *Bounded) String() string {
	return fmt.Sprintf("bounded(%d, %s)", b.capacity, Describe(b.backend))
}

// acquire only fails when ctx ends before a permit frees up.
func (b *Bounded) acquire(ctx context.Context) error {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return errs.Wrap(errs.ErrKindTransport, "waiting for concurrency permit", err)
	}
	return nil
}
