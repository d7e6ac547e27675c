// Package transfer copies batches of objects from one storage backend to
// another.
//
// Every key is downloaded on its own goroutine; the source backend's
// concurrency bound is the only limit. Downloads are consumed in completion
// order and each success immediately starts the matching upload, so a slow
// object never holds back the uploads of faster ones.
//
// Usage:
//
//	report := transfer.New(transfer.WithLogger(log)).Run(ctx, keys, src, dst)
//	if err := report.Err(); err != nil { ... }
package transfer

import (
	"context"
	"sync"
	"time"

	"github.com/koustreak/blobmover/internal/logger"
	"github.com/koustreak/blobmover/internal/storage"
)

// Event describes one state change of one input position.
type Event struct {
	Index int
	Key   string
	State State
	Err   error // set when State is StateFailed
	Time  time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithObserver registers fn to receive every state change. fn runs on the
// goroutine that caused the change and must be safe for concurrent use.
func WithObserver(fn func(Event)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// Orchestrator runs batch transfers. It holds no per-run state and may be
// reused, including concurrently.
type Orchestrator struct {
	log      *logger.Logger
	observer func(Event)
}

// New returns an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{log: logger.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.ForComponent("transfer")
	return o
}

type download struct {
	index int
	key   string
	data  []byte
	err   error
}

// Run downloads every key from src and uploads it under the same key to dst.
// It returns once every download and every started upload has finished.
// Per-key failures are recorded in the Report and never stop other keys.
// Duplicate keys are transferred once per occurrence.
func (o *Orchestrator) Run(ctx context.Context, keys []string, src, dst storage.Backend) *Report {
	start := time.Now()
	report := &Report{Results: make([]Result, len(keys))}
	for i, key := range keys {
		report.Results[i] = Result{Index: i, Key: key, State: StatePending}
	}

	o.log.With().
		Int("keys", len(keys)).
		Str("source", storage.Describe(src)).
		Str("destination", storage.Describe(dst)).
		Logger().Info("transfer started")

	downloads := make(chan download, len(keys))
	for i, key := range keys {
		go func() {
			o.emit(report, i, StateDownloading, nil)
			data, err := src.Get(ctx, key)
			downloads <- download{index: i, key: key, data: data, err: err}
		}()
	}

	var uploads sync.WaitGroup
	for range keys {
		d := <-downloads
		if d.err != nil {
			o.fail(report, d.index, PhaseDownload, d.err)
			continue
		}

		report.Results[d.index].Bytes = len(d.data)
		o.emit(report, d.index, StateDownloaded, nil)

		uploads.Add(1)
		go func() {
			defer uploads.Done()
			o.emit(report, d.index, StateUploading, nil)
			if err := dst.Put(ctx, d.key, d.data); err != nil {
				o.fail(report, d.index, PhaseUpload, err)
				return
			}
			o.emit(report, d.index, StateDone, nil)
		}()
	}
	uploads.Wait()

	report.Duration = time.Since(start)
	o.log.With().
		Int("succeeded", report.Succeeded()).
		Int("failed", len(report.Failed())).
		Str("duration", report.Duration.String()).
		Logger().Info("transfer finished")

	return report
}

func (o *Orchestrator) fail(report *Report, index int, phase Phase, err error) {
	key := report.Results[index].Key
	kerr := &KeyError{Index: index, Key: key, Phase: phase, Err: err}
	report.Results[index].Err = kerr

	o.log.ForKey(key).With().Str("phase", string(phase)).Err(err).Logger().Warn("transfer of key failed")
	o.emit(report, index, StateFailed, kerr)
}

// emit records the new state for index and notifies the observer.
// Each index is only written by one goroutine at a time: its download
// goroutine, then the fan-in loop, then its upload goroutine.
func (o *Orchestrator) emit(report *Report, index int, state State, err error) {
	report.Results[index].State = state
	if o.observer == nil {
		return
	}
	o.observer(Event{
		Index: index,
		Key:   report.Results[index].Key,
		State: state,
		Err:   err,
		Time:  time.Now(),
	})
}
