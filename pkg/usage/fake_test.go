package usage

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/hashicorp/go-set/v3"

	"github.com/ja7ad/tickstat/pkg/system/proc"
)

// fakeSource is an in-memory procfs. A pid listed in census but missing from
// procs reads as gone.
type fakeSource struct {
	mu      sync.Mutex
	stat    proc.Stat
	procs   map[proc.PID]proc.PIDStat
	census  []proc.PID
	statErr error
	listErr error
	readErr map[proc.PID]error
	reads   map[proc.PID]int
}

func newFakeSource(stat proc.Stat) *fakeSource {
	return &fakeSource{
		stat:    stat,
		procs:   make(map[proc.PID]proc.PIDStat),
		readErr: make(map[proc.PID]error),
		reads:   make(map[proc.PID]int),
	}
}

func (f *fakeSource) ReadStat() (proc.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statErr != nil {
		return proc.Stat{}, f.statErr
	}
	return proc.Stat{CPU: f.stat.CPU, CPUs: slices.Clone(f.stat.CPUs)}, nil
}

func (f *fakeSource) ListPIDs() (*set.Set[proc.PID], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.census != nil {
		return set.From(f.census), nil
	}
	return set.From(slices.Collect(maps.Keys(f.procs))), nil
}

func (f *fakeSource) ReadPIDStat(pid proc.PID) (proc.PIDStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[pid]++
	if err := f.readErr[pid]; err != nil {
		return proc.PIDStat{}, err
	}
	st, ok := f.procs[pid]
	if !ok {
		return proc.PIDStat{}, fmt.Errorf("%w: /proc/%d/stat", proc.ErrProcessGone, pid)
	}
	return st, nil
}

func (f *fakeSource) setProc(pid proc.PID, comm string, utime, stime uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procs[pid] = proc.PIDStat{PID: int64(pid), Comm: comm, State: 'R', UTime: utime, STime: stime}
}

func (f *fakeSource) dropProc(pid proc.PID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.procs, pid)
}

func (f *fakeSource) setCensus(pids ...proc.PID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.census = pids
}

// tick advances the aggregate by user+idle ticks, split evenly over cores.
func (f *fakeSource) tick(user, idle uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stat.CPU.User += user
	f.stat.CPU.Idle += idle
	n := uint64(len(f.stat.CPUs))
	for i := range f.stat.CPUs {
		f.stat.CPUs[i].User += user / n
		f.stat.CPUs[i].Idle += idle / n
	}
}

func (f *fakeSource) setCores(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.stat.CPUs) < n {
		f.stat.CPUs = append(f.stat.CPUs, proc.CPUCounters{})
	}
	f.stat.CPUs = f.stat.CPUs[:n]
}

func twoCoreStat() proc.Stat {
	return proc.Stat{
		CPU: proc.CPUCounters{User: 1000, System: 500, Idle: 8500},
		CPUs: []proc.CPUCounters{
			{User: 500, System: 250, Idle: 4250},
			{User: 500, System: 250, Idle: 4250},
		},
	}
}
