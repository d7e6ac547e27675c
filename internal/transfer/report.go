package transfer

import (
	"errors"
	"fmt"
	"time"
)

// State is the progress of one input position.
//
//	Pending -> Downloading -> Downloaded -> Uploading -> Done
//	              |                            |
//	              +-----------> Failed <-------+
type State int

const (
	StatePending State = iota
	StateDownloading
	StateDownloaded
	StateUploading
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDownloading:
		return "downloading"
	case StateDownloaded:
		return "downloaded"
	case StateUploading:
		return "uploading"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON and YAML reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Phase names the step a key failed in.
type Phase string

const (
	PhaseDownload Phase = "download"
	PhaseUpload   Phase = "upload"
)

// KeyError is the failure of one input position.
type KeyError struct {
	Index int
	Key   string
	Phase Phase
	Err   error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Phase, e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// Result is the outcome for one input position.
type Result struct {
	Index int       `json:"index" yaml:"index"`
	Key   string    `json:"key" yaml:"key"`
	State State     `json:"state" yaml:"state"`
	Bytes int       `json:"bytes" yaml:"bytes"`
	Err   *KeyError `json:"-" yaml:"-"`
}

// Report is the outcome of one Run. Results are in input order.
type Report struct {
	Results  []Result
	Duration time.Duration
}

// Succeeded returns the number of positions that reached StateDone.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.State == StateDone {
			n++
		}
	}
	return n
}

// Failed returns the failures in input order.
func (r *Report) Failed() []*KeyError {
	var failed []*KeyError
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res.Err)
		}
	}
	return failed
}

// Err joins every KeyError, or returns nil when all keys succeeded.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	joined := make([]error, len(failed))
	for i, f := range failed {
		joined[i] = f
	}
	return errors.Join(joined...)
}
