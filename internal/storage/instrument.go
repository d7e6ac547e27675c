package storage

import (
	"context"
	"time"

	"github.com/koustreak/blobmover/internal/logger"
)

// Hooks observes every Get/Put passing through an Instrumented backend.
// Begin is called before the operation; the returned func is called exactly
// once with the operation's error (nil on success) when it returns.
type Hooks interface {
	Begin(ctx context.Context, op Op, backend, key string) (context.Context, func(error))
}

// HooksFunc adapts a function to Hooks.
type HooksFunc func(ctx context.Context, op Op, backend, key string) (context.Context, func(error))

func (f HooksFunc) Begin(ctx context.Context, op Op, backend, key string) (context.Context, func(error)) {
	return f(ctx, op, backend, key)
}

// MultiHooks calls each of hooks in order; finish funcs run in reverse order.
func MultiHooks(hooks ...Hooks) Hooks {
	return HooksFunc(func(ctx context.Context, op Op, backend, key string) (context.Context, func(error)) {
		finishers := make([]func(error), 0, len(hooks))
		for _, h := range hooks {
			if h == nil {
				continue
			}
			var done func(error)
			ctx, done = h.Begin(ctx, op, backend, key)
			finishers = append(finishers, done)
		}
		return ctx, func(err error) {
			for i := len(finishers) - 1; i >= 0; i-- {
				finishers[i](err)
			}
		}
	})
}

// LogHooks logs every call at debug level, and failures at warn level.
func LogHooks(log *logger.Logger) Hooks {
	return HooksFunc(func(ctx context.Context, op Op, backend, key string) (context.Context, func(error)) {
		start := time.Now()
		return ctx, func(err error) {
			if err != nil {
				log.With().Str("op", string(op)).Str("backend_id", backend).Str("key", key).Err(err).
					Logger().Warn("storage operation failed")
				return
			}
			log.DebugEvent().
				Str("op", string(op)).
				Str("backend_id", backend).
				Str("key", key).
				Dur("duration", time.Since(start)).
				Msg("storage operation completed")
		}
	})
}

// Instrumented reports every call on the wrapped Backend to Hooks.
type Instrumented struct {
	backend Backend
	id      string
	hooks   Hooks
}

// NewInstrumented wraps b. id identifies the backend in spans and logs;
// when empty, Describe(b) is used.
func NewInstrumented(b Backend, id string, hooks Hooks) *Instrumented {
	if id == "" {
		id = Describe(b)
	}
	return &Instrumented{backend: b, id: id, hooks: hooks}
}

// Get delegates and reports.
func (i *Instrumented) Get(ctx context.Context, key string) (data []byte, err error) {
	ctx, done := i.hooks.Begin(ctx, OpGet, i.id, key)
	defer func() { done(err) }()

	return i.backend.Get(ctx, key)
}

// Put delegates and reports.
func (i *Instrumented) Put(ctx context.Context, key string, data []byte) (err error) {
	ctx, done := i.hooks.Begin(ctx, OpPut, i.id, key)
	defer func() { done(err) }()

	return i.backend.Put(ctx, key, data)
}

// Unwrap returns the wrapped backend.
func (i *Instrumented) Unwrap() Backend {
	return i.backend
}

func (i *Instrumented) String() string {
	return i.id
}
