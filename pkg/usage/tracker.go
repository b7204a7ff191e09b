package usage

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-set/v3"

	"github.com/ja7ad/tickstat/pkg/system/proc"
)

// PIDStatReader reads the stat record of one process. It must return an
// error matching proc.ErrProcessGone when the process no longer exists.
type PIDStatReader interface {
	ReadPIDStat(pid proc.PID) (proc.PIDStat, error)
}

type process struct {
	cur, prev proc.PIDStat
}

// Tracker keeps a (current, previous) stat pair per process and reconciles
// them against the process census of every refresh.
type Tracker struct {
	src   PIDStatReader
	pids  *set.Set[proc.PID]
	procs map[proc.PID]*process
}

// NewTracker returns an empty tracker. The first Reconcile admits every pid.
func NewTracker(src PIDStatReader) *Tracker {
	return &Tracker{
		src:   src,
		pids:  set.New[proc.PID](0),
		procs: make(map[proc.PID]*process),
	}
}

// generation is a fully read census that has not been committed yet.
type generation struct {
	pids  *set.Set[proc.PID]
	procs map[proc.PID]*process
}

// Reconcile advances the tracker to the fresh census. Removed pids are
// dropped first, then surviving processes are re-read, then new pids are
// admitted. A process that vanished before it could be read is skipped or
// dropped. Any other read error aborts and is returned with the tracker
// unchanged.
func (t *Tracker) Reconcile(fresh *set.Set[proc.PID]) error {
	g, err := t.prepare(fresh)
	if err != nil {
		return err
	}
	t.commit(g)
	return nil
}

// prepare reads every record the next generation needs without touching the
// tracker.
func (t *Tracker) prepare(fresh *set.Set[proc.PID]) (*generation, error) {
	g := &generation{
		pids:  fresh.Copy(),
		procs: make(map[proc.PID]*process, len(t.procs)),
	}

	for pid, p := range t.procs {
		if !fresh.Contains(pid) {
			continue
		}
		st, err := t.src.ReadPIDStat(pid)
		switch {
		case err == nil:
			g.procs[pid] = &process{cur: st, prev: p.cur}
		case errors.Is(err, proc.ErrProcessGone):
		default:
			return nil, fmt.Errorf("update pid %d: %w", pid, err)
		}
	}

	for _, pid := range fresh.Difference(t.pids).Slice() {
		st, err := t.src.ReadPIDStat(pid)
		switch {
		case err == nil:
			g.procs[pid] = &process{cur: st, prev: st}
		case errors.Is(err, proc.ErrProcessGone):
		default:
			return nil, fmt.Errorf("add pid %d: %w", pid, err)
		}
	}
	return g, nil
}

func (t *Tracker) commit(g *generation) {
	t.pids, t.procs = g.pids, g.procs
}

// Procs derives the metrics of every tracked process, ordered by pid.
func (t *Tracker) Procs(uptimeDelta uint64) []Proc {
	out := make([]Proc, 0, len(t.procs))
	for _, pid := range t.PIDs() {
		p := t.procs[pid]
		out = append(out, ProcPercent(pid, p.cur, p.prev, uptimeDelta))
	}
	return out
}

// PIDs returns the tracked pids in ascending order.
func (t *Tracker) PIDs() []proc.PID {
	pids := make([]proc.PID, 0, len(t.procs))
	for pid := range t.procs {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}

// Len is the number of tracked processes.
func (t *Tracker) Len() int { return len(t.procs) }

// Contains reports whether pid has a stat pair.
func (t *Tracker) Contains(pid proc.PID) bool {
	_, ok := t.procs[pid]
	return ok
}

// Census is the number of pids seen by the last Reconcile, including those
// that were never admitted.
func (t *Tracker) Census() int { return t.pids.Size() }
