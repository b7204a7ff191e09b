package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v3"

	"github.com/ja7ad/tickstat/pkg/monitor"
	"github.com/ja7ad/tickstat/pkg/system/proc"
	"github.com/ja7ad/tickstat/pkg/usage"
)

// Sink consumes poller results. Close flushes whatever the sink buffered.
type Sink interface {
	Write(r monitor.Result) error
	Close() error
}

// View selects which parts of a sample reach a sink.
type View string

const (
	ViewAll    View = "all"
	ViewSystem View = "system"
	ViewProcs  View = "procs"
)

// ParseView validates a --view value.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewAll, ViewSystem, ViewProcs:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q (supported: all, system, procs)", s)
	}
}

// Filter trims samples before they reach a sink.
type Filter struct {
	View View
	// PIDs, when non-empty, restricts the process list to these pids.
	PIDs *set.Set[proc.PID]
}

// NewFilter builds a filter for the given view and pid list.
func NewFilter(view View, pids []uint32) Filter {
	f := Filter{View: view}
	if len(pids) > 0 {
		f.PIDs = set.FromFunc(pids, func(p uint32) proc.PID { return proc.PID(p) })
	}
	return f
}

// Apply returns a copy of s without the parts the filter excludes.
func (f Filter) Apply(s usage.Sample) usage.Sample {
	switch f.View {
	case ViewSystem:
		s.Procs = nil
	case ViewProcs:
		s.System = usage.CPUStat{}
	}
	if f.PIDs == nil || f.PIDs.Empty() || len(s.Procs) == 0 {
		return s
	}
	kept := make([]usage.Proc, 0, min(len(s.Procs), f.PIDs.Size()))
	for _, p := range s.Procs {
		if f.PIDs.Contains(p.PID) {
			kept = append(kept, p)
		}
	}
	s.Procs = kept
	return s
}

type filtered struct {
	Sink
	f Filter
}

// Filtered wraps sink so every successful result is trimmed by f first.
func Filtered(sink Sink, f Filter) Sink {
	return &filtered{Sink: sink, f: f}
}

func (s *filtered) Write(r monitor.Result) error {
	if r.Err == nil {
		r.Sample = s.f.Apply(r.Sample)
	}
	return s.Sink.Write(r)
}

// Multi fans results out to several sinks.
type Multi []Sink

// Write writes r to every sink, even after one fails.
func (m Multi) Write(r monitor.Result) error {
	var merr *multierror.Error
	for _, s := range m {
		if err := s.Write(r); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

// Close closes every sink and reports all failures together.
func (m Multi) Close() error {
	var merr *multierror.Error
	for _, s := range m {
		if err := s.Close(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
