package usage

import (
	"github.com/ja7ad/tickstat/pkg/system/proc"
	"github.com/ja7ad/tickstat/pkg/system/util"
)

// UptimeDelta returns newUptime-oldUptime, floored at 1 so it can always be
// used as a denominator. The difference is taken as signed, so a counter that
// stepped backwards also yields 1.
func UptimeDelta(newUptime, oldUptime uint64) uint64 {
	d := int64(newUptime - oldUptime)
	if d < 1 {
		return 1
	}
	return uint64(d)
}

// tickPercent is (newV-oldV)*100/delta with a signed difference.
func tickPercent(newV, oldV, delta uint64) float64 {
	return float64(int64(newV-oldV)) * 100 / float64(delta)
}

// CPUPercent converts two readings of the same CPU line into percentages of
// delta. Nothing is clamped: a misbehaving counter shows up as a negative or
// >100 value instead of being hidden.
func CPUPercent(newC, oldC proc.CPUCounters, delta uint64) SingleCPU {
	if delta == 0 {
		delta = 1
	}
	return SingleCPU{
		User:      tickPercent(newC.User, oldC.User, delta),
		Nice:      tickPercent(newC.Nice, oldC.Nice, delta),
		System:    tickPercent(newC.System, oldC.System, delta),
		Idle:      tickPercent(newC.Idle, oldC.Idle, delta),
		IOWait:    tickPercent(newC.IOWait, oldC.IOWait, delta),
		IRQ:       tickPercent(newC.IRQ, oldC.IRQ, delta),
		SoftIRQ:   tickPercent(newC.SoftIRQ, oldC.SoftIRQ, delta),
		Steal:     tickPercent(newC.Steal, oldC.Steal, delta),
		Guest:     tickPercent(newC.Guest, oldC.Guest, delta),
		GuestNice: tickPercent(newC.GuestNice, oldC.GuestNice, delta),
	}
}

// StatPercent computes the aggregate and per-core percentages of two
// /proc/stat readings. Every core uses the aggregate delta as denominator.
// Cores are zipped by position; if the core count changed, the extra cores of
// the longer reading are dropped.
func StatPercent(cur, prev proc.Stat, delta uint64) CPUStat {
	n := min(len(cur.CPUs), len(prev.CPUs))
	out := CPUStat{
		CPU:  CPUPercent(cur.CPU, prev.CPU, delta),
		CPUs: make([]SingleCPU, n),
	}
	for i := 0; i < n; i++ {
		out.CPUs[i] = CPUPercent(cur.CPUs[i], prev.CPUs[i], delta)
	}
	return out
}

// ProcPercent converts two readings of the same process into percentages of
// delta. User and Kern are clamped independently before Idle is derived.
func ProcPercent(pid proc.PID, cur, prev proc.PIDStat, delta uint64) Proc {
	if delta == 0 {
		delta = 1
	}
	user := util.ClampPercent(tickPercent(cur.UTime, prev.UTime, delta))
	kern := util.ClampPercent(tickPercent(cur.STime, prev.STime, delta))
	return Proc{
		PID:  pid,
		Comm: cur.Comm,
		User: user,
		Kern: kern,
		Idle: 100 - user - kern,
	}
}
