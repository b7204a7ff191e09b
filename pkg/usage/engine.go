package usage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-set/v3"

	"github.com/ja7ad/tickstat/pkg/system/proc"
)

// Source is everything the engine reads. *proc.FS implements it.
type Source interface {
	StatReader
	PIDStatReader
	ListPIDs() (*set.Set[proc.PID], error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for refresh diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock overrides the time source stamped on samples.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine advances the system snapshot and the process tracker together, one
// tick per Refresh. It is safe for concurrent use; each Refresh is serialized
// as a whole.
type Engine struct {
	mu      sync.Mutex
	src     Source
	sys     *System
	tracker *Tracker
	log     *slog.Logger
	now     func() time.Time
}

// New takes the initial system reading and process census. The first
// Refresh therefore already yields deltas.
func New(src Source, opts ...Option) (*Engine, error) {
	e := &Engine{
		src: src,
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	sys, err := NewSystem(src)
	if err != nil {
		return nil, fmt.Errorf("read system: %w", err)
	}
	e.sys = sys
	e.tracker = NewTracker(src)

	pids, err := src.ListPIDs()
	if err != nil {
		return nil, fmt.Errorf("list pids: %w", err)
	}
	if err := e.tracker.Reconcile(pids); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	e.log.Debug("engine ready", "cores", len(sys.cur.CPUs), "procs", e.tracker.Len())
	return e, nil
}

// Refresh reads the system counters, lists pids and reads every tracked
// record, then commits the whole generation at once and derives a Sample
// from it. Any failure leaves the engine exactly as it was, so the next
// successful Refresh spans both periods for the system and every process.
func (e *Engine) Refresh() (Sample, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.src.ReadStat()
	if err != nil {
		return Sample{}, fmt.Errorf("refresh system: %w", err)
	}
	pids, err := e.src.ListPIDs()
	if err != nil {
		return Sample{}, fmt.Errorf("list pids: %w", err)
	}
	g, err := e.tracker.prepare(pids)
	if err != nil {
		return Sample{}, fmt.Errorf("reconcile: %w", err)
	}

	e.sys.rotate(st)
	e.tracker.commit(g)
	if e.sys.CoreMismatch() {
		cur, old := e.sys.Cores()
		e.log.Warn("core count changed, truncating", "cores", cur, "previous", old)
	}

	delta := e.sys.UptimeDelta()
	s := Sample{
		At:          e.now(),
		UptimeDelta: delta,
		System:      e.sys.Stat(),
		Procs:       e.tracker.Procs(delta),
	}
	e.log.Debug("refresh",
		"uptimeDelta", delta,
		"census", e.tracker.Census(),
		"procs", len(s.Procs),
	)
	return s, nil
}

// Tracked returns the pids currently holding a stat pair.
func (e *Engine) Tracked() []proc.PID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.PIDs()
}
