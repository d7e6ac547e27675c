package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/blobmover/internal/transfer"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(format string) bool {
	switch format {
	case formatText, formatJSON, formatYAML:
		return true
	}
	return false
}

// reportView is the serialised form of a transfer.Report.
type reportView struct {
	Succeeded int          `json:"succeeded" yaml:"succeeded"`
	Failed    int          `json:"failed" yaml:"failed"`
	Duration  string       `json:"duration" yaml:"duration"`
	Results   []resultView `json:"results" yaml:"results"`
}

type resultView struct {
	Index int    `json:"index" yaml:"index"`
	Key   string `json:"key" yaml:"key"`
	State string `json:"state" yaml:"state"`
	Bytes int    `json:"bytes" yaml:"bytes"`
	Phase string `json:"phase,omitempty" yaml:"phase,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newReportView(r *transfer.Report) reportView {
	v := reportView{
		Succeeded: r.Succeeded(),
		Failed:    len(r.Failed()),
		Duration:  r.Duration.String(),
		Results:   make([]resultView, len(r.Results)),
	}
	for i, res := range r.Results {
		rv := resultView{Index: res.Index, Key: res.Key, State: res.State.String(), Bytes: res.Bytes}
		if res.Err != nil {
			rv.Phase = string(res.Err.Phase)
			rv.Error = res.Err.Err.Error()
		}
		v.Results[i] = rv
	}
	return v
}

func writeReport(w io.Writer, format string, r *transfer.Report) error {
	view := newReportView(r)

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, res := range view.Results {
			detail := fmt.Sprintf("%d bytes", res.Bytes)
			if res.Error != "" {
				detail = res.Phase + ": " + res.Error
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", res.State, res.Key, detail)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%d succeeded, %d failed in %s\n", view.Succeeded, view.Failed, view.Duration)
		return err
	}
}
